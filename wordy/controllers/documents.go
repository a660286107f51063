package controllers

import (
	"context"
	"wordy/wordy/services/access"
	"wordy/wordy/services/documents"
	"wordy/wordy/services/revisions"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/types"

	"github.com/google/uuid"
)

type DocumentController struct {
	access    *access.Service
	documents *documents.Service
	revisions *revisions.Service
}

func NewDocumentController(acc *access.Service, docs *documents.Service, revs *revisions.Service) *DocumentController {
	return &DocumentController{access: acc, documents: docs, revisions: revs}
}

func (c *DocumentController) CreateDocument(ctx context.Context, userID int, req types.CreateDocumentRequest) (*models.Document, error) {
	return c.documents.CreateDocument(ctx, userID, req)
}

func (c *DocumentController) ListDocuments(ctx context.Context, userID int, parentID *uuid.UUID) ([]models.Document, error) {
	if parentID != nil {
		if err := c.access.RequireDocument(ctx, userID, *parentID); err != nil {
			return nil, err
		}
	}
	return c.documents.ListDocuments(ctx, userID, parentID)
}

func (c *DocumentController) GetDocument(ctx context.Context, userID int, id uuid.UUID) (*models.Document, error) {
	if err := c.access.RequireDocument(ctx, userID, id); err != nil {
		return nil, err
	}
	return c.documents.GetDocument(ctx, id)
}

func (c *DocumentController) GetDocumentByHandle(ctx context.Context, userID int, handle string) (*models.Document, error) {
	return c.documents.GetDocumentByHandle(ctx, userID, handle)
}

func (c *DocumentController) UpdateDocument(ctx context.Context, userID int, id uuid.UUID, req types.UpdateDocumentRequest) (*models.Document, error) {
	if err := c.access.RequireDocument(ctx, userID, id); err != nil {
		return nil, err
	}
	return c.documents.UpdateDocument(ctx, id, req, userID)
}

func (c *DocumentController) DeleteDocument(ctx context.Context, userID int, id uuid.UUID) error {
	if err := c.access.RequireDocument(ctx, userID, id); err != nil {
		return err
	}
	return c.documents.DeleteDocument(ctx, id, userID)
}

func (c *DocumentController) ListRevisions(ctx context.Context, userID int, id uuid.UUID) ([]models.Revision, error) {
	if err := c.access.RequireDocument(ctx, userID, id); err != nil {
		return nil, err
	}
	return c.revisions.ListRevisions(ctx, id)
}

// GetCurrentRevision returns nil when the document has no current revision.
func (c *DocumentController) GetCurrentRevision(ctx context.Context, userID int, id uuid.UUID) (*models.CurrentRevision, error) {
	if err := c.access.RequireDocument(ctx, userID, id); err != nil {
		return nil, err
	}
	return c.revisions.GetCurrentRevisionByDocumentID(ctx, id)
}

func (c *DocumentController) SetCurrentRevision(ctx context.Context, userID int, id, revisionID uuid.UUID) error {
	if err := c.access.RequireDocument(ctx, userID, id); err != nil {
		return err
	}
	return c.revisions.SetCurrentRevision(ctx, id, revisionID, userID)
}
