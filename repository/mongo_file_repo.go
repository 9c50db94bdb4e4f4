package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tieubaoca/studytool-be/types"
)

type fileDocument struct {
	ID               string    `bson:"_id"`
	UserID           string    `bson:"user_id"`
	OriginalFilename string    `bson:"original_filename"`
	StoredFilename   string    `bson:"stored_filename"`
	FileSize         int64     `bson:"file_size"`
	UploadTime       time.Time `bson:"upload_time"`
}

// fileCollection is the part of *mongo.Collection the file repo uses.
type fileCollection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	FindOneAndDelete(ctx context.Context, filter any, opts ...options.Lister[options.FindOneAndDeleteOptions]) *mongo.SingleResult
}

type mongoFileRepo struct {
	collection fileCollection
}

// NewMongoFileRepo has no multi-document transactions to lean on, so it
// orders the two writes and compensates: payload before metadata on create,
// metadata before payload on delete with a re-insert if the payload removal
// fails.
func NewMongoFileRepo(collection *mongo.Collection) FileRepo {
	return newMongoFileRepo(collection)
}

func newMongoFileRepo(collection fileCollection) *mongoFileRepo {
	return &mongoFileRepo{collection: collection}
}

func (r *mongoFileRepo) Create(ctx context.Context, file *types.StoredFile, writePayload func() error) error {
	if err := writePayload(); err != nil {
		return err
	}
	doc := fileDocument{
		ID:               file.ID,
		UserID:           file.UserID,
		OriginalFilename: file.OriginalFilename,
		StoredFilename:   file.StoredFilename,
		FileSize:         file.FileSize,
		UploadTime:       file.UploadTime,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert file metadata: %w", err)
	}
	return nil
}

func (r *mongoFileRepo) GetByStoredName(ctx context.Context, userID, storedFilename string) (*types.StoredFile, error) {
	var doc fileDocument
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "stored_filename": storedFilename}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	file := docToFile(doc)
	return &file, nil
}

func (r *mongoFileRepo) ListByUser(ctx context.Context, userID string) ([]types.StoredFile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "upload_time", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	files := []types.StoredFile{}
	for cursor.Next(ctx) {
		var doc fileDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		files = append(files, docToFile(doc))
	}
	return files, cursor.Err()
}

func (r *mongoFileRepo) Delete(ctx context.Context, userID, storedFilename string, removePayload func() error) error {
	var doc fileDocument
	err := r.collection.FindOneAndDelete(ctx, bson.M{"user_id": userID, "stored_filename": storedFilename}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete file metadata: %w", err)
	}
	if err := removePayload(); err != nil {
		if _, restoreErr := r.collection.InsertOne(context.WithoutCancel(ctx), doc); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("failed to restore file metadata: %w", restoreErr))
		}
		return err
	}
	return nil
}

func docToFile(doc fileDocument) types.StoredFile {
	return types.StoredFile{
		ID:               doc.ID,
		UserID:           doc.UserID,
		OriginalFilename: doc.OriginalFilename,
		StoredFilename:   doc.StoredFilename,
		FileSize:         doc.FileSize,
		UploadTime:       doc.UploadTime.UTC(),
	}
}
