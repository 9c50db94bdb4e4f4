package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tieubaoca/studytool-be/cache"
	"github.com/tieubaoca/studytool-be/logger"
	"github.com/tieubaoca/studytool-be/repository"
	"github.com/tieubaoca/studytool-be/storage"
	"github.com/tieubaoca/studytool-be/types"
	"github.com/tieubaoca/studytool-be/utils"
)

var DefaultDocumentServiceConfig = types.DocumentServiceConfig{
	MaxUploadBytes:    10 << 20,
	AllowedExtensions: []string{".pdf", ".txt", ".md"},
	MaxParallelFiles:  4,
}

// FileService is the per-user document store. The owner of every call is the
// principal carried by ctx.
type FileService interface {
	Store(ctx context.Context, originalFilename string, content io.Reader) (*types.StoredFile, error)
	Fetch(ctx context.Context, storageName string) ([]byte, *types.StoredFile, error)
	ExtractText(ctx context.Context, storageName string) (string, error)
	Delete(ctx context.Context, storageName string) error
	List(ctx context.Context) ([]types.StoredFile, error)
}

type fileService struct {
	cfg       types.DocumentServiceConfig
	repo      repository.FileRepo
	blobs     storage.BlobStore
	extractor TextExtractor
	cache     cache.TextCache
	log       *logger.Logger
}

func NewFileService(
	cfg types.DocumentServiceConfig,
	repo repository.FileRepo,
	blobs storage.BlobStore,
	extractor TextExtractor,
	textCache cache.TextCache,
	log *logger.Logger,
) FileService {
	if textCache == nil {
		textCache = cache.NewNoopTextCache()
	}
	return &fileService{
		cfg:       cfg,
		repo:      repo,
		blobs:     blobs,
		extractor: extractor,
		cache:     textCache,
		log:       log.With("service", "FileService"),
	}
}

func userIDFrom(ctx context.Context) (string, error) {
	p, ok := types.PrincipalFromContext(ctx)
	if !ok {
		return "", types.ErrUnauthenticated
	}
	return p.UserID, nil
}

func (s *fileService) Store(ctx context.Context, originalFilename string, content io.Reader) (*types.StoredFile, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}

	name := utils.CleanOriginalFilename(originalFilename)
	if name == "" {
		return nil, fmt.Errorf("%w: filename is empty", types.ErrValidation)
	}
	ext := utils.Extension(name)
	if !slices.Contains(s.cfg.AllowedExtensions, ext) {
		return nil, fmt.Errorf("%w: file type %q is not allowed", types.ErrValidation, ext)
	}

	data, err := io.ReadAll(io.LimitReader(content, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", types.ErrValidation)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", types.ErrValidation, s.cfg.MaxUploadBytes)
	}

	storageName, err := utils.GenerateStorageName(ext)
	if err != nil {
		return nil, err
	}
	file := &types.StoredFile{
		ID:               uuid.NewString(),
		UserID:           userID,
		OriginalFilename: name,
		StoredFilename:   storageName,
		FileSize:         int64(len(data)),
		UploadTime:       time.Now().UTC(),
	}

	written := false
	err = s.repo.Create(ctx, file, func() error {
		if err := s.blobs.Put(ctx, storageName, data); err != nil {
			return fmt.Errorf("failed to store payload: %w", err)
		}
		written = true
		return nil
	})
	if err != nil {
		if written {
			if cleanupErr := s.blobs.Delete(context.WithoutCancel(ctx), storageName); cleanupErr != nil {
				s.log.Error("Failed to remove orphaned payload", "storage_name", storageName, "error", cleanupErr)
			}
		}
		return nil, err
	}

	s.log.Info("Stored file", "user_id", userID, "storage_name", storageName, "size", file.FileSize)
	return file, nil
}

func (s *fileService) lookup(ctx context.Context, storageName string) (*types.StoredFile, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !utils.IsStorageName(storageName) {
		return nil, types.ErrNotFound
	}
	return s.repo.GetByStoredName(ctx, userID, storageName)
}

func (s *fileService) Fetch(ctx context.Context, storageName string) ([]byte, *types.StoredFile, error) {
	file, err := s.lookup(ctx, storageName)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Get(ctx, storageName)
	if errors.Is(err, storage.ErrBlobNotFound) {
		s.log.Warn("Metadata without payload", "storage_name", storageName)
		return nil, nil, types.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return data, file, nil
}

// ExtractText returns the plain text of one of the caller's files, using the
// text cache when it has an entry.
func (s *fileService) ExtractText(ctx context.Context, storageName string) (string, error) {
	file, err := s.lookup(ctx, storageName)
	if err != nil {
		return "", err
	}
	if text, ok := s.cache.Get(ctx, file.StoredFilename); ok {
		return text, nil
	}

	format, err := FormatFromFilename(file.StoredFilename)
	if err != nil {
		return "", err
	}
	data, err := s.blobs.Get(ctx, file.StoredFilename)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	text, err := s.extractor.Extract(format, data)
	if err != nil {
		return "", err
	}
	s.cache.Set(ctx, file.StoredFilename, text)
	return text, nil
}

func (s *fileService) Delete(ctx context.Context, storageName string) error {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return err
	}
	if !utils.IsStorageName(storageName) {
		return types.ErrNotFound
	}
	err = s.repo.Delete(ctx, userID, storageName, func() error {
		return s.blobs.Delete(ctx, storageName)
	})
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			s.log.Error("Failed to delete file", "user_id", userID, "storage_name", storageName, "error", err)
		}
		return err
	}
	s.cache.Delete(ctx, storageName)
	s.log.Info("Deleted file", "user_id", userID, "storage_name", storageName)
	return nil
}

func (s *fileService) List(ctx context.Context) ([]types.StoredFile, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID)
}
