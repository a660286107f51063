package controllers

import (
	"context"
	"io"
	"wordy/wordy/services/access"
	"wordy/wordy/services/revisions"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/sources/storage"
	"wordy/wordy/types"

	"github.com/google/uuid"
)

type RevisionController struct {
	access    *access.Service
	revisions *revisions.Service
}

func NewRevisionController(acc *access.Service, revs *revisions.Service) *RevisionController {
	return &RevisionController{access: acc, revisions: revs}
}

// CreateRevision checks ownership of a well formed document id. A malformed
// one is left to payload validation.
func (c *RevisionController) CreateRevision(ctx context.Context, userID int, req types.CreateRevisionRequest) (*types.CreateRevisionResponse, error) {
	if docID, err := uuid.Parse(req.DocumentID); err == nil {
		if err := c.access.RequireDocument(ctx, userID, docID); err != nil {
			return nil, err
		}
	}
	return c.revisions.CreateRevision(ctx, req, userID)
}

func (c *RevisionController) GetRevision(ctx context.Context, userID int, id uuid.UUID) (*models.Revision, error) {
	if err := c.access.RequireRevision(ctx, userID, id); err != nil {
		return nil, err
	}
	return c.revisions.GetRevision(ctx, id)
}

// OpenContent streams the stored body. The caller closes the reader.
func (c *RevisionController) OpenContent(ctx context.Context, userID int, id uuid.UUID) (io.ReadCloser, storage.ObjectInfo, error) {
	if err := c.access.RequireRevision(ctx, userID, id); err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	return c.revisions.OpenRevisionContent(ctx, id)
}

func (c *RevisionController) UpdateRevision(ctx context.Context, userID int, id uuid.UUID, req types.UpdateRevisionRequest) (*types.RevisionSummary, error) {
	if err := c.access.RequireRevision(ctx, userID, id); err != nil {
		return nil, err
	}
	return c.revisions.UpdateRevision(ctx, id, req, userID)
}

func (c *RevisionController) DeleteRevision(ctx context.Context, userID int, id uuid.UUID) error {
	if err := c.access.RequireRevision(ctx, userID, id); err != nil {
		return err
	}
	return c.revisions.DeleteRevisionByID(ctx, id, userID)
}
