package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tieubaoca/studytool-be/database"
	"github.com/tieubaoca/studytool-be/types"
)

// FileRepo stores file metadata. Create and Delete take a callback that
// touches the payload. A failed payload write rolls the new row back, and a
// failed payload removal puts the deleted row back.
type FileRepo interface {
	Create(ctx context.Context, file *types.StoredFile, writePayload func() error) error
	GetByStoredName(ctx context.Context, userID, storedFilename string) (*types.StoredFile, error)
	ListByUser(ctx context.Context, userID string) ([]types.StoredFile, error)
	Delete(ctx context.Context, userID, storedFilename string, removePayload func() error) error
}

type fileRepo struct {
	db *gorm.DB
}

func NewFileRepo(db *gorm.DB) FileRepo {
	return &fileRepo{db: db}
}

func (r *fileRepo) Create(ctx context.Context, file *types.StoredFile, writePayload func() error) error {
	row := fileToRow(file)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert file metadata: %w", err)
		}
		return writePayload()
	})
}

func (r *fileRepo) GetByStoredName(ctx context.Context, userID, storedFilename string) (*types.StoredFile, error) {
	var row database.StoredFile
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND stored_filename = ?", userID, storedFilename).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	file := rowToFile(row)
	return &file, nil
}

func (r *fileRepo) ListByUser(ctx context.Context, userID string) ([]types.StoredFile, error) {
	var rows []database.StoredFile
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("upload_time ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.StoredFile, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToFile(row))
	}
	return out, nil
}

// Delete commits the metadata removal, then removes the payload. If the
// payload cannot be removed the row is restored, so neither half is left
// without the other.
func (r *fileRepo) Delete(ctx context.Context, userID, storedFilename string, removePayload func() error) error {
	var row database.StoredFile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND stored_filename = ?", userID, storedFilename).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.ErrNotFound
		}
		if err != nil {
			return err
		}
		res := tx.Delete(&row)
		if res.Error != nil {
			return fmt.Errorf("failed to delete file metadata: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return types.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := removePayload(); err != nil {
		if restoreErr := r.db.WithContext(context.WithoutCancel(ctx)).Create(&row).Error; restoreErr != nil {
			return errors.Join(err, fmt.Errorf("failed to restore file metadata: %w", restoreErr))
		}
		return err
	}
	return nil
}

func fileToRow(f *types.StoredFile) database.StoredFile {
	return database.StoredFile{
		ID:               f.ID,
		UserID:           f.UserID,
		OriginalFilename: f.OriginalFilename,
		StoredFilename:   f.StoredFilename,
		FileSize:         f.FileSize,
		UploadTime:       f.UploadTime,
	}
}

func rowToFile(row database.StoredFile) types.StoredFile {
	return types.StoredFile{
		ID:               row.ID,
		UserID:           row.UserID,
		OriginalFilename: row.OriginalFilename,
		StoredFilename:   row.StoredFilename,
		FileSize:         row.FileSize,
		UploadTime:       row.UploadTime.UTC(),
	}
}
