package controllers

import (
	"context"
	"io"
	"wordy/wordy/services/access"
	"wordy/wordy/services/attachments"
	"wordy/wordy/sources/storage"

	"github.com/google/uuid"
)

type AttachmentController struct {
	access      *access.Service
	attachments *attachments.Service
}

func NewAttachmentController(acc *access.Service, att *attachments.Service) *AttachmentController {
	return &AttachmentController{access: acc, attachments: att}
}

func (c *AttachmentController) Upload(ctx context.Context, userID int, documentID uuid.UUID, filename string, r io.Reader) (*storage.ObjectInfo, error) {
	if err := c.access.RequireDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return c.attachments.Upload(ctx, documentID, filename, r)
}

func (c *AttachmentController) List(ctx context.Context, userID int, documentID uuid.UUID) ([]storage.ObjectInfo, error) {
	if err := c.access.RequireDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return c.attachments.List(ctx, documentID)
}

func (c *AttachmentController) Open(ctx context.Context, userID int, documentID uuid.UUID, filename string) (io.ReadCloser, storage.ObjectInfo, error) {
	if err := c.access.RequireDocument(ctx, userID, documentID); err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	return c.attachments.Open(ctx, documentID, filename)
}

func (c *AttachmentController) Delete(ctx context.Context, userID int, documentID uuid.UUID, filename string) error {
	if err := c.access.RequireDocument(ctx, userID, documentID); err != nil {
		return err
	}
	return c.attachments.Delete(ctx, documentID, filename)
}
