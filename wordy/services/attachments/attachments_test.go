package attachments

import (
	"context"
	"io"
	"strings"
	"testing"
	"wordy/wordy/sources/storage"
	"wordy/wordy/utils/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanFilename(t *testing.T) {
	ok := map[string]string{
		"photo.png":           "photo.png",
		"../../etc/passwd":    "passwd",
		`C:\Users\ada\cv.pdf`: "cv.pdf",
		"  spaced name.txt  ": "spaced name.txt",
		"dir/sub/.hidden":     ".hidden",
		"notes.tmp-1":         "notes.tmp-1",
	}
	for in, want := range ok {
		got, err := CleanFilename(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "  ", ".", "..", "/", "a/..", ".tmp-123", "dir/.tmp-x"} {
		_, err := CleanFilename(bad)
		assert.True(t, apperrors.IsValidation(err), "%q", bad)
	}
}

func TestAttachments(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	s := NewService(store, 8)
	docID := uuid.New()

	info, err := s.Upload(ctx, docID, "../notes.txt", strings.NewReader("12345678"))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", info.Name)
	assert.Equal(t, int64(8), info.Size)

	_, err = s.Upload(ctx, docID, "big.bin", strings.NewReader("123456789"))
	assert.True(t, apperrors.IsValidation(err))

	list, err := s.List(ctx, docID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "notes.txt", list[0].Name)

	rc, _, err := s.Open(ctx, docID, "notes.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "12345678", string(body))

	_, _, err = s.Open(ctx, docID, "missing.txt")
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, s.Delete(ctx, docID, "notes.txt"))
	assert.True(t, apperrors.IsNotFound(s.Delete(ctx, docID, "notes.txt")))

	_, err = s.Upload(ctx, docID, ".tmp-upload", strings.NewReader("x"))
	assert.True(t, apperrors.IsValidation(err))
	list, err = s.List(ctx, docID)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, list)
}
