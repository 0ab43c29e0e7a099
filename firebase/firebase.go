package firebase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"

	"storefront/utils"
)

var ErrNotConfigured = errors.New("image storage not configured")

// StorageClient is the blob store product images live in.
type StorageClient interface {
	// UploadImage stores r under a generated name and returns its public URL.
	UploadImage(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
	// DeleteFile removes the object behind a URL returned by UploadImage.
	DeleteFile(ctx context.Context, url string) error
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeFilename removes special characters from filenames and limits length.
func sanitizeFilename(filename string) string {
	sanitized := unsafeChars.ReplaceAllString(filename, "_")

	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}

	if sanitized == "" || sanitized == "." || sanitized == ".." {
		sanitized = "file"
	}

	return sanitized
}

func objectPath(folder, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", folder, now.Unix(), sanitizeFilename(filename))
}

func publicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}

// Storage uploads into one Firebase Storage bucket.
type Storage struct {
	app    *firebase.App
	bucket string
	folder string
}

// NewStorage initializes the Firebase app. credentials is either inline JSON
// or a path to a service account file; empty means default credentials.
func NewStorage(ctx context.Context, bucket, credentials string) (*Storage, error) {
	if bucket == "" {
		return nil, ErrNotConfigured
	}

	var opts []option.ClientOption
	switch {
	case strings.HasPrefix(credentials, "{"):
		log.Println("Using Firebase credentials from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(credentials)))
	case credentials != "":
		log.Println("Using Firebase credentials from file:", credentials)
		opts = append(opts, option.WithCredentialsFile(credentials))
	default:
		log.Println("Warning: GOOGLE_APPLICATION_CREDENTIALS not set, using default credentials")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: bucket}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}
	return &Storage{app: app, bucket: bucket, folder: "products"}, nil
}

func (s *Storage) bucketHandle(ctx context.Context) (*storage.BucketHandle, error) {
	client, err := s.app.Storage(ctx)
	if err != nil {
		return nil, err
	}
	return client.Bucket(s.bucket)
}

func (s *Storage) UploadImage(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	bucket, err := s.bucketHandle(ctx)
	if err != nil {
		return "", err
	}

	path := objectPath(s.folder, filename, time.Now())
	obj := bucket.Object(path)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	// the storefront renders image URLs directly
	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		log.Printf("Warning: failed to set public ACL on %s: %v", path, err)
	}

	return publicURL(s.bucket, path), nil
}

func (s *Storage) DeleteFile(ctx context.Context, url string) error {
	path, err := utils.ExtractObjectPath(url)
	if err != nil {
		return err
	}

	bucket, err := s.bucketHandle(ctx)
	if err != nil {
		return err
	}
	if err := bucket.Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}

	log.Printf("Deleted file %s from bucket %s", path, s.bucket)
	return nil
}

// Unconfigured answers every call with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) UploadImage(context.Context, io.Reader, string, string) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) DeleteFile(context.Context, string) error {
	return ErrNotConfigured
}
