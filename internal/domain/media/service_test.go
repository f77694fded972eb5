package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lostfound/internal/database"
	"lostfound/internal/domain/access"
	"lostfound/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, maxSize int64) (*Service, *DiskStorage) {
	t.Helper()
	dsn := fmt.Sprintf("file:media_test_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(dsn, database.Options{MaxOpenConns: 1, Silent: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Media{}))

	disk, err := NewDiskStorage(t.TempDir(), "/static/media")
	require.NoError(t, err)
	return NewService(NewRepository(db), disk, maxSize, nil), disk
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, G: 30, B: 30, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	return img
}

func TestStore_DerivesFullAndThumbnail(t *testing.T) {
	svc, disk := newTestService(t, 0)

	m, err := svc.Store(context.Background(), "student1", "wallet.png", bytes.NewReader(pngBytes(t, 2000, 1000)))
	require.NoError(t, err)

	assert.Equal(t, 1600, m.Width)
	assert.Equal(t, 800, m.Height)
	assert.True(t, strings.HasPrefix(m.FullURL, "/static/media/"))
	assert.True(t, strings.HasSuffix(m.ThumbURL, "/thumb.jpg"))

	full := decodeJPEG(t, filepath.Join(disk.Dir(), filepath.FromSlash(m.FullKey)))
	assert.Equal(t, 1600, full.Bounds().Dx())
	thumb := decodeJPEG(t, filepath.Join(disk.Dir(), filepath.FromSlash(m.ThumbKey)))
	assert.Equal(t, 320, thumb.Bounds().Dx())
	assert.Equal(t, 160, thumb.Bounds().Dy())

	img := m.Image()
	assert.Equal(t, m.ID, img.MediaID)
	assert.Equal(t, m.FullURL, img.FullSizeURL)
}

func TestStore_SmallImageNotUpscaled(t *testing.T) {
	svc, _ := newTestService(t, 0)
	m, err := svc.Store(context.Background(), "student1", "key.png", bytes.NewReader(pngBytes(t, 200, 100)))
	require.NoError(t, err)
	assert.Equal(t, 200, m.Width)
	assert.Equal(t, 100, m.Height)
}

func TestStore_Rejections(t *testing.T) {
	svc, _ := newTestService(t, 1024)
	ctx := context.Background()

	_, err := svc.Store(ctx, "u", "empty.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = svc.Store(ctx, "u", "notes.txt", strings.NewReader("just some text, not an image"))
	assert.ErrorIs(t, err, ErrInvalidMimeType)

	_, err = svc.Store(ctx, "u", "big.png", bytes.NewReader(make([]byte, 4096)))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	e, ok := apperr.As(ErrFileTooLarge)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
}

func TestDelete_RemovesObjectsAndRow(t *testing.T) {
	svc, disk := newTestService(t, 0)
	ctx := context.Background()

	m, err := svc.Store(ctx, "student1", "wallet.png", bytes.NewReader(pngBytes(t, 400, 300)))
	require.NoError(t, err)

	err = svc.DeleteOwned(ctx, access.Session{UserID: "someone-else"}, m.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, svc.DeleteOwned(ctx, access.Session{UserID: "student1"}, m.ID))

	_, statErr := os.Stat(filepath.Join(disk.Dir(), filepath.FromSlash(m.FullKey)))
	assert.True(t, os.IsNotExist(statErr))

	err = svc.Delete(ctx, m.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDiskStorage_RejectsEscapingKeys(t *testing.T) {
	disk, err := NewDiskStorage(t.TempDir(), "/static/media")
	require.NoError(t, err)

	_, err = disk.Put(context.Background(), "../outside.jpg", []byte("x"), "image/jpeg")
	assert.Error(t, err)
}
