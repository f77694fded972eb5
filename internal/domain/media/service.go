package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"time"

	"lostfound/internal/domain/access"
	"lostfound/internal/pkg/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultMaxSize = 10 * 1024 * 1024

// Service turns uploaded photos into stored full-size and thumbnail objects.
type Service struct {
	repo    *Repository
	storage Storage
	maxSize int64
	log     *zap.Logger
	now     func() time.Time
}

func NewService(repo *Repository, storage Storage, maxSize int64, log *zap.Logger) *Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		storage: storage,
		maxSize: maxSize,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Upload reads a multipart file and stores it.
func (s *Service) Upload(ctx context.Context, ownerID string, fh *multipart.FileHeader) (*Media, error) {
	if fh.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fh.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.IO(fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()

	return s.Store(ctx, ownerID, fh.Filename, f)
}

// Store validates r as a JPEG or PNG image, derives both renditions and
// records them. Objects already written are removed if a later step fails.
func (s *Service) Store(ctx context.Context, ownerID, name string, r io.Reader) (*Media, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, apperr.IO(fmt.Errorf("read upload: %w", err))
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}
	if mime, ok := sniff(data); !ok {
		s.log.Info("upload rejected", zap.String("mime", mime), zap.String("owner_id", ownerID))
		return nil, ErrInvalidMimeType
	}

	d, err := derive(data)
	if err != nil {
		return nil, err
	}

	now := s.now()
	id := uuid.NewString()
	prefix := fmt.Sprintf("%d/%02d/%s", now.Year(), now.Month(), id)
	m := &Media{
		ID:           id,
		OwnerID:      ownerID,
		OriginalName: filepath.Base(name),
		FullKey:      prefix + "/full.jpg",
		ThumbKey:     prefix + "/thumb.jpg",
		Width:        d.width,
		Height:       d.height,
		Size:         int64(len(d.full)),
		CreatedAt:    now,
	}

	if m.FullURL, err = s.storage.Put(ctx, m.FullKey, d.full, "image/jpeg"); err != nil {
		return nil, apperr.IO(err)
	}
	if m.ThumbURL, err = s.storage.Put(ctx, m.ThumbKey, d.thumb, "image/jpeg"); err != nil {
		s.removeObjects(m.FullKey)
		return nil, apperr.IO(err)
	}
	if err := s.repo.Create(ctx, m); err != nil {
		s.removeObjects(m.FullKey, m.ThumbKey)
		return nil, err
	}

	s.log.Info("media stored", zap.String("media_id", m.ID), zap.String("owner_id", ownerID), zap.Int64("size", m.Size))
	return m, nil
}

// Delete removes both objects and the row. It satisfies item.MediaRemover.
func (s *Service) Delete(ctx context.Context, id string) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.delete(ctx, m)
}

// DeleteOwned lets the uploader (or an admin) remove a photo.
func (s *Service) DeleteOwned(ctx context.Context, sess access.Session, id string) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m.OwnerID != sess.UserID && !sess.IsAdmin {
		return ErrNotOwner
	}
	return s.delete(ctx, m)
}

func (s *Service) delete(ctx context.Context, m *Media) error {
	for _, key := range []string{m.FullKey, m.ThumbKey} {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.log.Warn("media object delete failed", zap.String("media_id", m.ID), zap.String("key", key), zap.Error(err))
		}
	}
	return s.repo.Delete(ctx, m.ID)
}

func (s *Service) removeObjects(keys ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.log.Warn("media cleanup failed", zap.String("key", key), zap.Error(err))
		}
	}
}
