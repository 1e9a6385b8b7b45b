// Package gcs implements port.ObjectStorage on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"invoiceflow/internal/port"
)

type gcsClient struct {
	client *storage.Client
}

// NewGCSClient creates a GCS-backed ObjectStorage using application default credentials.
func NewGCSClient(ctx context.Context) (port.ObjectStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}
	return &gcsClient{client: client}, nil
}

func location(bucket, key string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, key)
}

// isPreconditionFailed reports whether err is the 412 returned when the
// object already exists.
func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 412
}

// Upload writes the object only if it does not exist yet. An existing object
// is left in place and treated as uploaded.
func (c *gcsClient) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	obj := c.client.Bucket(input.Bucket).Object(input.Key)
	writer := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = input.ContentType

	if _, err := io.Copy(writer, input.Body); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("gcs upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			log.Printf("gcs.Upload: object %s already exists", input.Key)
			return &port.UploadOutput{Location: location(input.Bucket, input.Key)}, nil
		}
		return nil, fmt.Errorf("gcs upload finalize: %w", err)
	}

	etag := ""
	if attrs := writer.Attrs(); attrs != nil {
		etag = attrs.Etag
	}
	return &port.UploadOutput{Location: location(input.Bucket, input.Key), ETag: etag}, nil
}

func (c *gcsClient) Delete(ctx context.Context, bucket, key string) error {
	if err := c.client.Bucket(bucket).Object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete: %w", err)
	}
	return nil
}
