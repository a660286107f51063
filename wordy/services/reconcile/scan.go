package reconcile

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"wordy/wordy/sources/db/dao"
	"wordy/wordy/sources/storage"
	"wordy/wordy/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const scanBatchSize = 500

// Report lists every divergence found by one Scan.
type Report struct {
	Revisions int `json:"revisions"`
	Files     int `json:"files"`
	// MissingContent are revision rows whose content file is absent.
	MissingContent []dao.RevisionRef `json:"missing_content"`
	// OrphanFiles are content keys no revision row points at.
	OrphanFiles []string `json:"orphan_files"`
	// Removed are the orphan keys deleted when fixing.
	Removed []string `json:"removed"`
}

func (r Report) Clean() bool {
	return len(r.MissingContent) == 0 && len(r.OrphanFiles) == 0
}

// DefaultMinAge keeps Scan away from files a revision create may still be
// about to reference.
const DefaultMinAge = 10 * time.Minute

type Scanner struct {
	revisions *dao.RevisionDAO
	store     storage.ContentStore
	// MinAge is how old a content file must be before it can be reported
	// as an orphan.
	MinAge time.Duration
}

func NewScanner(db *gorm.DB, store storage.ContentStore) *Scanner {
	return &Scanner{revisions: dao.NewRevisionDAO(db), store: store, MinAge: DefaultMinAge}
}

// Scan compares revision rows against the revisions directory. With fix set
// orphan files are deleted; rows are never touched.
//
// Files are listed before rows are read: a create writes its file before it
// commits its row, so a walked file whose row commits before the row pass
// starts is referenced. Rows committed later are caught by a per-file
// recheck right before deletion, and files younger than MinAge are never
// judged.
func (s *Scanner) Scan(ctx context.Context, fix bool) (*Report, error) {
	defer logging.LogDuration(ctx, "reconcile.Scan")()

	report := &Report{MissingContent: []dao.RevisionRef{}, OrphanFiles: []string{}, Removed: []string{}}
	cutoff := time.Now().Add(-s.MinAge)

	var files []string
	err := s.store.Walk(ctx, storage.RevisionsDir(), func(p string, info storage.ObjectInfo) error {
		report.Files++
		if info.ModTime.After(cutoff) {
			logging.ReconcileLogger.Debug("content too recent to judge", zap.String("op", "scan"), zap.String("path", p))
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan content store: %w", err)
	}

	referenced := make(map[string]struct{})
	err = s.revisions.EachRevisionRef(ctx, scanBatchSize, func(batch []dao.RevisionRef) error {
		for _, ref := range batch {
			report.Revisions++
			key, err := storage.Normalize(ref.ContentPath)
			if err == nil {
				referenced[key] = struct{}{}
			}
			exists := false
			if err == nil {
				exists, err = s.store.Exists(ctx, key)
				if err != nil {
					return fmt.Errorf("stat %s: %w", ref.ContentPath, err)
				}
			}
			if !exists {
				report.MissingContent = append(report.MissingContent, ref)
				logging.ReconcileLogger.Warn("revision content missing",
					zap.String("op", "scan"),
					zap.String("path", ref.ContentPath),
					zap.String("revision_id", ref.ID.String()),
					zap.String("document_id", ref.DocumentID.String()),
				)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan revision rows: %w", err)
	}

	for _, p := range files {
		if _, ok := referenced[p]; ok {
			continue
		}
		report.OrphanFiles = append(report.OrphanFiles, p)
		logging.ReconcileLogger.Warn("orphan revision content", zap.String("op", "scan"), zap.String("path", p))
	}

	if fix {
		for _, p := range report.OrphanFiles {
			claimed, err := s.claimed(ctx, p)
			if err != nil {
				logging.ReconcileLogger.Warn("orphan recheck failed", zap.String("op", "fix"), zap.String("path", p), zap.Error(err))
				continue
			}
			if claimed {
				logging.ReconcileLogger.Info("orphan claimed by new revision", zap.String("op", "fix"), zap.String("path", p))
				continue
			}
			if err := s.store.Delete(ctx, p); err != nil && !storage.IsNotFound(err) {
				logging.ReconcileLogger.Warn("orphan removal failed", zap.String("op", "fix"), zap.String("path", p), zap.Error(err))
				continue
			}
			report.Removed = append(report.Removed, p)
			logging.ReconcileLogger.Info("orphan removed", zap.String("op", "fix"), zap.String("path", p))
		}
	}

	logging.AppLogger.Info("Reconcile scan finished",
		zap.Int("revisions", report.Revisions),
		zap.Int("files", report.Files),
		zap.Int("missing_content", len(report.MissingContent)),
		zap.Int("orphan_files", len(report.OrphanFiles)),
		zap.Int("removed", len(report.Removed)),
	)
	return report, nil
}

// claimed reports whether a revision row now points at key. Content keys
// are named after the revision id.
func (s *Scanner) claimed(ctx context.Context, key string) (bool, error) {
	id, err := uuid.Parse(strings.TrimSuffix(path.Base(key), ".json"))
	if err != nil {
		return false, nil
	}
	rev, err := s.revisions.GetRevisionByID(ctx, id)
	if err != nil {
		return false, err
	}
	if rev == nil {
		return false, nil
	}
	stored, err := storage.Normalize(rev.ContentPath)
	return err == nil && stored == key, nil
}
