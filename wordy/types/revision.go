package types

type CreateRevisionRequest struct {
	DocumentID          string  `json:"document_id"`
	Text                string  `json:"text"`
	Content             string  `json:"content"`
	Checksum            *string `json:"checksum,omitempty"`
	RevisionName        *string `json:"revision_name,omitempty"`
	MakeCurrentRevision bool    `json:"make_current_revision"`
}

type CreateRevisionResponse struct {
	ID string `json:"id"`
}

// UpdateRevisionRequest is either a rename (RevisionName alone) or a content
// update (Content and Text, optionally Checksum and MakeCurrentRevision).
type UpdateRevisionRequest struct {
	RevisionName        *string `json:"revision_name,omitempty"`
	Content             *string `json:"content,omitempty"`
	Text                *string `json:"text,omitempty"`
	Checksum            *string `json:"checksum,omitempty"`
	MakeCurrentRevision bool    `json:"make_current_revision"`
}

// IsRename reports whether the request only carries a name.
func (r UpdateRevisionRequest) IsRename() bool {
	return r.RevisionName != nil && r.Content == nil && r.Text == nil && r.Checksum == nil
}

type RevisionSummary struct {
	ID           string  `json:"id"`
	RevisionName *string `json:"revision_name"`
	ContentPath  string  `json:"content_path"`
}

type SetCurrentRevisionRequest struct {
	RevisionID string `json:"revision_id"`
}
