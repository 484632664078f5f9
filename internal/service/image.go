package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logging"
)

// ImageStore persists an uploaded recipe image and returns the value stored
// in Recipe.Image.
type ImageStore interface {
	Save(ctx context.Context, dataURI string) (string, error)
}

// DecodedImage is the payload of a data:image/...;base64 URI.
type DecodedImage struct {
	ContentType string
	Extension   string
	Data        []byte
}

var errInvalidImage = newValidationError("image", "Upload a valid base64 encoded image.")

// DecodeDataURI parses "data:image/<type>;base64,<payload>".
func DecodeDataURI(uri string) (*DecodedImage, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, errInvalidImage
	}

	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext := strings.TrimPrefix(contentType, "image/")
	if ext == "" {
		return nil, errInvalidImage
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	if i := strings.IndexByte(ext, '+'); i > 0 {
		ext = ext[:i]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, errInvalidImage
	}

	return &DecodedImage{ContentType: contentType, Extension: ext, Data: data}, nil
}

// InlineImageStore keeps the validated data URI itself.
type InlineImageStore struct{}

func (InlineImageStore) Save(_ context.Context, dataURI string) (string, error) {
	if _, err := DecodeDataURI(dataURI); err != nil {
		return "", err
	}
	return dataURI, nil
}

// ObjectUploader is the part of the S3 client the image store needs.
type ObjectUploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ImageStore uploads images under recipes/ and returns their public URL.
type S3ImageStore struct {
	client ObjectUploader
	bucket string
	urlFor func(key string) string
}

func NewS3ImageStore(cfg *config.S3Config) *S3ImageStore {
	return &S3ImageStore{client: cfg.Client, bucket: cfg.BucketName, urlFor: cfg.ObjectURL}
}

// NewS3ImageStoreWithClient is used when the client is not an *s3.Client.
func NewS3ImageStoreWithClient(client ObjectUploader, bucket string, urlFor func(string) string) *S3ImageStore {
	return &S3ImageStore{client: client, bucket: bucket, urlFor: urlFor}
}

func (s *S3ImageStore) Save(ctx context.Context, dataURI string) (string, error) {
	img, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("recipes/%s.%s", uuid.New().String(), img.Extension)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := s.urlFor(key)
	logging.Ctx(ctx).Debug().Str("url", url).Msg("uploaded recipe image")
	return url, nil
}
