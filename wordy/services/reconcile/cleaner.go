// Package reconcile keeps the relational index and the content store in
// step: best-effort cleanup after writes and an offline divergence scan.
package reconcile

import (
	"context"
	"time"
	"wordy/wordy/sources/storage"
	"wordy/wordy/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const cleanupTimeout = 30 * time.Second

// Cleaner removes content whose row is gone. It never fails the caller:
// every failure lands on the reconcile log for Scan to pick up later.
type Cleaner struct {
	store storage.ContentStore
}

func NewCleaner(store storage.ContentStore) *Cleaner {
	return &Cleaner{store: store}
}

// RemoveRevisionContent deletes one revision body. A body that is already
// gone is logged at debug level only.
func (c *Cleaner) RemoveRevisionContent(ctx context.Context, op string, revisionID, documentID uuid.UUID, path string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("path", path),
		zap.String("revision_id", revisionID.String()),
		zap.String("document_id", documentID.String()),
	}
	err := c.store.Delete(ctx, path)
	switch {
	case err == nil:
	case storage.IsNotFound(err):
		logging.ReconcileLogger.Debug("revision content already absent", append(fields, zap.Error(err))...)
	default:
		logging.ReconcileLogger.Warn("revision content cleanup failed", append(fields, zap.Error(err))...)
	}
}

// RemoveAttachments drops a document's attachment directory.
func (c *Cleaner) RemoveAttachments(ctx context.Context, op string, documentID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	dir := storage.AttachmentDir(documentID.String())
	if err := c.store.DeleteDir(ctx, dir); err != nil {
		logging.ReconcileLogger.Warn("attachment cleanup failed",
			zap.String("op", op),
			zap.String("path", dir),
			zap.String("document_id", documentID.String()),
			zap.Error(err),
		)
	}
}
