package services

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"housing-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectStore struct {
	puts    map[string][]byte
	failPut bool
}

func (f *fakeObjectStore) Put(_ context.Context, key string, data []byte, _ string) error {
	if f.failPut {
		return errors.New("bucket unreachable")
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[key] = data
	return nil
}

func (f *fakeObjectStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.example/" + key, nil
}

func newTestPhotoService(t *testing.T, mirror ObjectStore) *PhotoService {
	t.Helper()
	repo, err := repository.NewPhotoRepository(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return NewPhotoService(repo, mirror, "photos/")
}

func distance(v float64) *float64 { return &v }

func filenames(t *testing.T, svc *PhotoService, minPrice, maxPrice int) []string {
	t.Helper()
	photos, err := svc.FilterByPrice(context.Background(), minPrice, maxPrice)
	require.NoError(t, err)
	names := []string{}
	for _, p := range photos {
		names = append(names, p.Filename)
	}
	return names
}

func TestPriceIndexAndFilter(t *testing.T) {
	svc := newTestPhotoService(t, nil)
	ctx := context.Background()

	_, err := svc.Upload(ctx, []UploadFile{
		{Filename: "a.jpg", Data: []byte("a")},
		{Filename: "b.jpg", Data: []byte("b")},
		{Filename: "c.jpg", Data: []byte("c")},
	}, distance(1.2))
	require.NoError(t, err)

	index, err := svc.PriceIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a.jpg": 100, "b.jpg": 200, "c.jpg": 300}, index)

	assert.Equal(t, []string{"b.jpg", "c.jpg"}, filenames(t, svc, 150, 300))
	assert.Equal(t, []string{"a.jpg"}, filenames(t, svc, 100, 100))
	assert.Empty(t, filenames(t, svc, 300, 100))
}

func TestPriceIndexShiftsWhenPhotosAreAdded(t *testing.T) {
	svc := newTestPhotoService(t, nil)
	ctx := context.Background()

	_, err := svc.Upload(ctx, []UploadFile{{Filename: "b.jpg", Data: []byte("b")}}, nil)
	require.NoError(t, err)
	index, err := svc.PriceIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, index["b.jpg"])

	_, err = svc.Upload(ctx, []UploadFile{{Filename: "a.jpg", Data: []byte("a")}}, nil)
	require.NoError(t, err)
	index, err = svc.PriceIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, index["b.jpg"])
}

func TestUploadValidatesBeforeWriting(t *testing.T) {
	svc := newTestPhotoService(t, nil)
	ctx := context.Background()

	_, err := svc.Upload(ctx, []UploadFile{
		{Filename: "ok.jpg", Data: []byte("a")},
		{Filename: "bad.gif", Data: []byte("b")},
	}, nil)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = svc.Upload(ctx, []UploadFile{{Filename: "ok.jpg"}}, distance(-1))
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = svc.Upload(ctx, []UploadFile{{Filename: "ok.jpg"}}, distance(v))
		assert.ErrorIs(t, err, repository.ErrInvalidInput)
	}

	_, err = svc.Upload(ctx, nil, nil)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	photos, err := svc.ListPhotos(ctx)
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestUploadMirrorsAndPresigns(t *testing.T) {
	mirror := &fakeObjectStore{}
	svc := newTestPhotoService(t, mirror)
	ctx := context.Background()

	_, err := svc.Upload(ctx, []UploadFile{{Filename: "a.png", Data: []byte("png")}}, distance(2))
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), mirror.puts["photos/a.png"])

	priced, err := svc.ListPriced(ctx)
	require.NoError(t, err)
	require.Len(t, priced, 1)
	assert.Equal(t, "https://objects.example/photos/a.png", priced[0].URL)
}

func TestUploadSucceedsWhenMirrorFails(t *testing.T) {
	svc := newTestPhotoService(t, &fakeObjectStore{failPut: true})
	ctx := context.Background()

	saved, err := svc.Upload(ctx, []UploadFile{{Filename: "a.jpg", Data: []byte("a")}}, nil)
	require.NoError(t, err)
	require.Len(t, saved, 1)

	photos, err := svc.ListPhotos(ctx)
	require.NoError(t, err)
	assert.Len(t, photos, 1)
}
