package reconcile

import (
	"context"
	"strings"
	"testing"
	"wordy/wordy/sources/db/dbtest"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/sources/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookedStore runs onExists once, the first time Exists is called.
type hookedStore struct {
	*storage.LocalStore
	onExists func()
}

func (h *hookedStore) Exists(ctx context.Context, p string) (bool, error) {
	if h.onExists != nil {
		fn := h.onExists
		h.onExists = nil
		fn()
	}
	return h.LocalStore.Exists(ctx, p)
}

func newStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestCleaner_RemovesAndSwallowsMissing(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	c := NewCleaner(store)

	revID, docID := uuid.New(), uuid.New()
	p := storage.RevisionContentPath(revID.String())
	require.NoError(t, store.Save(ctx, p, strings.NewReader("body")))

	c.RemoveRevisionContent(ctx, "test", revID, docID, p)
	ok, err := store.Exists(ctx, p)
	require.NoError(t, err)
	assert.False(t, ok)

	// second call finds nothing and must not panic or fail
	c.RemoveRevisionContent(ctx, "test", revID, docID, p)

	require.NoError(t, store.Save(ctx, storage.AttachmentPath(docID.String(), "a.png"), strings.NewReader("x")))
	c.RemoveAttachments(ctx, "test", docID)
	list, err := store.List(ctx, storage.AttachmentDir(docID.String()))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestScanner_FindsAndFixesDivergence(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	store := newStore(t)
	userID := dbtest.SeedUser(t, db, "ada")

	doc := &models.Document{Name: "Space", Handle: "space", Type: models.DocumentTypeSpace, UserID: userID}
	require.NoError(t, db.Create(doc).Error)

	healthy := &models.Revision{ID: uuid.New(), DocumentID: doc.ID, UserID: userID, Text: "a"}
	healthy.ContentPath = storage.RevisionContentPath(healthy.ID.String())
	require.NoError(t, store.Save(ctx, healthy.ContentPath, strings.NewReader("{}")))
	require.NoError(t, db.Omit("Document").Create(healthy).Error)

	missing := &models.Revision{ID: uuid.New(), DocumentID: doc.ID, UserID: userID, Text: "b"}
	missing.ContentPath = storage.RevisionContentPath(missing.ID.String())
	require.NoError(t, db.Omit("Document").Create(missing).Error)

	orphan := storage.RevisionContentPath(uuid.NewString())
	require.NoError(t, store.Save(ctx, orphan, strings.NewReader("{}")))

	s := NewScanner(db, store)
	s.MinAge = 0

	report, err := s.Scan(ctx, false)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Equal(t, 2, report.Revisions)
	assert.Equal(t, 2, report.Files)
	require.Len(t, report.MissingContent, 1)
	assert.Equal(t, missing.ID, report.MissingContent[0].ID)
	orphanKey, _ := storage.Normalize(orphan)
	assert.Equal(t, []string{orphanKey}, report.OrphanFiles)
	assert.Empty(t, report.Removed)

	ok, err := store.Exists(ctx, orphan)
	require.NoError(t, err)
	assert.True(t, ok, "scan without fix leaves files alone")

	report, err = s.Scan(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{orphanKey}, report.Removed)

	ok, err = store.Exists(ctx, orphan)
	require.NoError(t, err)
	assert.False(t, ok)

	var count int64
	require.NoError(t, db.Model(&models.Revision{}).Count(&count).Error)
	assert.Equal(t, int64(2), count, "rows are never removed")
}

func TestScanner_SkipsRecentFiles(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	store := newStore(t)

	fresh := storage.RevisionContentPath(uuid.NewString())
	require.NoError(t, store.Save(ctx, fresh, strings.NewReader("{}")))

	report, err := NewScanner(db, store).Scan(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Files)
	assert.Empty(t, report.OrphanFiles)
	assert.Empty(t, report.Removed)

	ok, err := store.Exists(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestScanner_FixKeepsFileClaimedDuringRowPass(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	local := newStore(t)
	userID := dbtest.SeedUser(t, db, "ada")

	doc := &models.Document{Name: "Space", Handle: "space", Type: models.DocumentTypeSpace, UserID: userID}
	require.NoError(t, db.Create(doc).Error)

	existing := &models.Revision{ID: uuid.New(), DocumentID: doc.ID, UserID: userID, Text: "a"}
	existing.ContentPath = storage.RevisionContentPath(existing.ID.String())
	require.NoError(t, local.Save(ctx, existing.ContentPath, strings.NewReader("{}")))
	require.NoError(t, db.Omit("Document").Create(existing).Error)

	late := &models.Revision{ID: uuid.New(), DocumentID: doc.ID, UserID: userID, Text: "b"}
	late.ContentPath = storage.RevisionContentPath(late.ID.String())
	require.NoError(t, local.Save(ctx, late.ContentPath, strings.NewReader("{}")))

	// the row for the second file commits after the row pass has loaded
	// its batch
	store := &hookedStore{LocalStore: local, onExists: func() {
		require.NoError(t, db.Omit("Document").Create(late).Error)
	}}
	s := NewScanner(db, store)
	s.MinAge = 0

	report, err := s.Scan(ctx, true)
	require.NoError(t, err)
	lateKey, _ := storage.Normalize(late.ContentPath)
	assert.Equal(t, []string{lateKey}, report.OrphanFiles)
	assert.Empty(t, report.Removed)

	ok, err := local.Exists(ctx, late.ContentPath)
	require.NoError(t, err)
	assert.True(t, ok, "content of a committed revision survives --fix")
}
