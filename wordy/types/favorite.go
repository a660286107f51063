package types

type FavoriteResponse struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	UserID     int    `json:"user_id"`
}
