package types

type CreateDocumentRequest struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	ParentID *string `json:"parent_id,omitempty"`
	// Handle is a requested slug; the name is slugified when it is empty.
	Handle *string `json:"handle,omitempty"`
}

// UpdateDocumentRequest renames a document and/or moves it under another
// space or folder. The handle never changes.
type UpdateDocumentRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID *string `json:"parent_id,omitempty"`
}
