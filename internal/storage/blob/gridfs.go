// Package blob stores uploaded property images in MongoDB GridFS.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bucketName = "property_images"

// Connect opens and pings a MongoDB client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// ImageStore implements properties.ImageStore on a GridFS bucket.
type ImageStore struct {
	db *mongo.Database
}

func NewImageStore(client *mongo.Client, dbName string) *ImageStore {
	return &ImageStore{db: client.Database(dbName)}
}

func (s *ImageStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

// Upload streams r into GridFS and returns the hex file id.
func (s *ImageStore) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	bucket, err := s.bucket(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open bucket: %w", err)
	}

	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	fileID, err := bucket.UploadFromStream(filename, r, opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return fileID.Hex(), nil
}

// Open returns nil when the blob does not exist.
func (s *ImageStore) Open(ctx context.Context, blobID string) (io.ReadCloser, error) {
	objID, err := primitive.ObjectIDFromHex(blobID)
	if err != nil {
		return nil, nil
	}

	bucket, err := s.bucket(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}

	stream, err := bucket.OpenDownloadStream(objID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return stream, nil
}

func (s *ImageStore) Delete(ctx context.Context, blobID string) error {
	objID, err := primitive.ObjectIDFromHex(blobID)
	if err != nil {
		return nil
	}

	bucket, err := s.bucket(ctx)
	if err != nil {
		return fmt.Errorf("failed to open bucket: %w", err)
	}

	if err := bucket.Delete(objID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
