package registry

import (
	"context"
	"fmt"
	"io"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/exceptions"

	"github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
)

// artifactStore reads instrument artifacts from the object store. Objects
// live under {kind}/{name}.json inside a single bucket.
type ArtifactStore interface {
	GetArtifactObject(ctx context.Context, kind, name string) (json.RawMessage, error)
}

type minioArtifactStore struct {
	MinioClient *minio.Client
	BucketName  string
}

func NewMinioArtifactStore(minioClient *minio.Client, bucketName string) ArtifactStore {
	return &minioArtifactStore{
		MinioClient: minioClient,
		BucketName:  bucketName,
	}
}

func (s *minioArtifactStore) GetArtifactObject(ctx context.Context, kind, name string) (json.RawMessage, error) {
	objectName := fmt.Sprintf(constvars.ArtifactObjectFormat, kind, name)
	object, err := s.MinioClient.GetObject(ctx, s.BucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, exceptions.ErrMinioGetObject(err, objectName, s.BucketName)
	}
	defer object.Close()

	content, err := io.ReadAll(object)
	if err != nil {
		return nil, exceptions.ErrMinioGetObject(err, objectName, s.BucketName)
	}

	return content, nil
}
