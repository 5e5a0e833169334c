package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/hotelrm/backend-go/internal/snapshot"
	"github.com/hotelrm/backend-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRepo struct {
	replaced []string
	err      error
}

func (r *recordingRepo) ReplaceSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	if r.err != nil {
		return r.err
	}
	r.replaced = append(r.replaced, snap.HotelID)
	return nil
}

type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Get(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, bool, error) {
	return nil, false, nil
}

func (c *recordingCache) Set(ctx context.Context, req domain.SimulationRequest, result *domain.SimulationResult) error {
	return nil
}

func (c *recordingCache) InvalidateHotel(ctx context.Context, hotelID string) error {
	c.invalidated = append(c.invalidated, hotelID)
	return nil
}

func (c *recordingCache) InvalidateAll(ctx context.Context) error { return nil }

type memoryArchive struct {
	objects map[string][]byte
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{objects: make(map[string][]byte)}
}

func (a *memoryArchive) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	infos := make([]storage.ObjectInfo, 0)
	for key, data := range a.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return infos, nil
}

func (a *memoryArchive) DownloadObject(ctx context.Context, key string) ([]byte, error) {
	data, ok := a.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object %s", key)
	}
	return data, nil
}

func (a *memoryArchive) UploadObject(ctx context.Context, key string, data []byte) error {
	a.objects[key] = data
	return nil
}

func TestImportDocumentsPublishes(t *testing.T) {
	store := snapshot.NewMemoryStore()
	repo := &recordingRepo{}
	invalidations := &recordingCache{}
	imp := NewImporter(store, repo, nil, invalidations)

	snap, err := imp.ImportDocuments(context.Background(), "riviera",
		[]byte(validData), []byte(validConfig))
	require.NoError(t, err)

	// Persisted, published, and the hotel's cached results dropped.
	assert.Equal(t, []string{"riviera"}, repo.replaced)
	assert.Equal(t, []string{"riviera"}, invalidations.invalidated)

	served, err := store.Load(context.Background(), "riviera")
	require.NoError(t, err)
	assert.Equal(t, snap.Version, served.Version)
}

func TestImportDocumentsRejectsInvalidInput(t *testing.T) {
	store := snapshot.NewMemoryStore()
	repo := &recordingRepo{}
	imp := NewImporter(store, repo, nil, nil)

	_, err := imp.ImportDocuments(context.Background(), "riviera",
		[]byte(`{"rooms": {"Double": {"stock": {"2025-06-01": -1}}}}`), []byte(validConfig))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	// Nothing was persisted or published.
	assert.Empty(t, repo.replaced)
	_, err = store.Load(context.Background(), "riviera")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestImportDocumentsPersistFailureAborts(t *testing.T) {
	store := snapshot.NewMemoryStore()
	repo := &recordingRepo{err: errors.New("connection refused")}
	imp := NewImporter(store, repo, nil, nil)

	_, err := imp.ImportDocuments(context.Background(), "riviera",
		[]byte(validData), []byte(validConfig))
	require.Error(t, err)

	// The in-memory snapshot must not be swapped when persistence failed.
	_, err = store.Load(context.Background(), "riviera")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestImportDocumentsArchivesDocumentPair(t *testing.T) {
	archive := newMemoryArchive()
	imp := NewImporter(snapshot.NewMemoryStore(), &recordingRepo{}, archive, nil)

	snap, err := imp.ImportDocuments(context.Background(), "riviera",
		[]byte(validData), []byte(validConfig))
	require.NoError(t, err)

	prefix := "riviera/" + snap.Version
	assert.Equal(t, []byte(validData), archive.objects[prefix+"_data.json"])
	assert.Equal(t, []byte(validConfig), archive.objects[prefix+"_config.json"])
}

func TestListArchivedVersions(t *testing.T) {
	archive := newMemoryArchive()
	imp := NewImporter(snapshot.NewMemoryStore(), &recordingRepo{}, archive, nil)
	ctx := context.Background()

	first, err := imp.ImportDocuments(ctx, "riviera", []byte(validData), []byte(validConfig))
	require.NoError(t, err)
	second, err := imp.ImportDocuments(ctx, "riviera", []byte(validData), []byte(validConfig))
	require.NoError(t, err)

	// A version missing half of its pair is not restorable and is not listed.
	require.NoError(t, archive.UploadObject(ctx, "riviera/orphan_data.json", []byte(validData)))
	// Other hotels stay out of the listing.
	require.NoError(t, archive.UploadObject(ctx, "alpina/v9_data.json", []byte(validData)))
	require.NoError(t, archive.UploadObject(ctx, "alpina/v9_config.json", []byte(validConfig)))

	versions, err := imp.ListArchivedVersions(ctx, "riviera")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.Version, second.Version}, versions)
}

func TestRestoreFromArchive(t *testing.T) {
	archive := newMemoryArchive()
	store := snapshot.NewMemoryStore()
	repo := &recordingRepo{}
	invalidations := &recordingCache{}
	imp := NewImporter(store, repo, archive, invalidations)
	ctx := context.Background()

	original, err := imp.ImportDocuments(ctx, "riviera", []byte(validData), []byte(validConfig))
	require.NoError(t, err)

	restored, err := imp.RestoreFromArchive(ctx, "riviera", original.Version)
	require.NoError(t, err)

	// A restore is a fresh publish of the archived documents: new
	// version, persisted and swapped in, cached results dropped again.
	assert.NotEqual(t, original.Version, restored.Version)
	assert.Equal(t, []string{"riviera", "riviera"}, repo.replaced)
	assert.Equal(t, []string{"riviera", "riviera"}, invalidations.invalidated)

	served, err := store.Load(ctx, "riviera")
	require.NoError(t, err)
	assert.Equal(t, restored.Version, served.Version)
	assert.Len(t, served.Rooms, 2)
}

func TestRestoreFromArchiveUnknownVersion(t *testing.T) {
	imp := NewImporter(snapshot.NewMemoryStore(), &recordingRepo{}, newMemoryArchive(), nil)

	_, err := imp.RestoreFromArchive(context.Background(), "riviera", "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestArchiveOperationsWithoutArchive(t *testing.T) {
	imp := NewImporter(snapshot.NewMemoryStore(), &recordingRepo{}, nil, nil)
	ctx := context.Background()

	_, err := imp.ListArchivedVersions(ctx, "riviera")
	assert.True(t, errors.Is(err, ErrArchiveDisabled))

	_, err = imp.RestoreFromArchive(ctx, "riviera", "v1")
	assert.True(t, errors.Is(err, ErrArchiveDisabled))
}

func TestImportDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "riviera_data.json"), []byte(validData), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "riviera_config.json"), []byte(validConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpina_data.json"), []byte(validData), 0o644))
	// alpina has no config document and must be skipped.

	store := snapshot.NewMemoryStore()
	imp := NewImporter(store, &recordingRepo{}, nil, nil)

	imported, err := imp.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"riviera"}, imported)

	_, err = store.Load(context.Background(), "alpina")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestImportDirMissingDirectory(t *testing.T) {
	imp := NewImporter(snapshot.NewMemoryStore(), &recordingRepo{}, nil, nil)
	_, err := imp.ImportDir(context.Background(), "/does/not/exist")
	require.Error(t, err)
}
