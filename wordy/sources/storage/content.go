// Package storage keeps revision bodies and attachments outside the
// relational store, either on the local filesystem or in a MinIO bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"wordy/wordy/config"
)

// ErrNotFound is wrapped by every store when an object is missing.
var ErrNotFound = errors.New("content not found")

// ErrInvalidPath rejects paths that would leave the content root.
var ErrInvalidPath = errors.New("invalid content path")

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type ObjectInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified_at"`
}

// ContentStore is the content root every revision and attachment lives in.
// Paths are slash separated and may carry a leading "storage/" segment.
type ContentStore interface {
	Save(ctx context.Context, p string, r io.Reader) error
	Read(ctx context.Context, p string) ([]byte, error)
	Open(ctx context.Context, p string) (io.ReadCloser, ObjectInfo, error)
	Exists(ctx context.Context, p string) (bool, error)
	Delete(ctx context.Context, p string) error
	// List returns the files directly under dir. A missing dir is empty.
	List(ctx context.Context, dir string) ([]ObjectInfo, error)
	// Walk calls fn with the normalized path and info of every file under
	// dir.
	Walk(ctx context.Context, dir string, fn func(p string, info ObjectInfo) error) error
	DeleteDir(ctx context.Context, dir string) error
}

const (
	storagePrefix  = "storage"
	revisionsDir   = "revisions"
	attachmentsDir = "attachments"
)

// RevisionContentPath is where a revision's body is written at creation.
// The result is stored on the revision row and read back from there.
func RevisionContentPath(revisionID string) string {
	return path.Join(storagePrefix, revisionsDir, revisionID+".json")
}

// RevisionsDir is the directory holding every revision body.
func RevisionsDir() string {
	return path.Join(storagePrefix, revisionsDir)
}

func AttachmentDir(documentID string) string {
	return path.Join(storagePrefix, attachmentsDir, documentID)
}

func AttachmentPath(documentID, filename string) string {
	return path.Join(AttachmentDir(documentID), filename)
}

// Normalize maps p onto a root-relative key: it strips a leading "/", "./"
// and any "storage" segments in front of the first real one, and rejects
// anything that climbs above the root.
func Normalize(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.Contains("/"+p+"/", "/../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	for cleaned == storagePrefix || strings.HasPrefix(cleaned, storagePrefix+"/") {
		cleaned = strings.TrimPrefix(strings.TrimPrefix(cleaned, storagePrefix), "/")
	}
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return cleaned, nil
}

// NewContentStore builds the store configured by STORAGE_BACKEND.
func NewContentStore(ctx context.Context, cfg config.Config) (ContentStore, error) {
	switch cfg.StorageBackend {
	case "", config.StorageBackendLocal:
		return NewLocalStore(cfg.StorageRoot)
	case config.StorageBackendMinIO:
		return NewMinIOStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}
