package vault

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"pathdb-go/internal/pathdb"
)

// S3API abstracts the S3 operations used by S3Vault beyond uploads.
// The s3.Client type satisfies this interface.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Uploader abstracts the upload manager used for PutSnapshot.
// The manager.Uploader type satisfies this interface.
type S3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Vault stores snapshots in Amazon S3 or any S3-compatible object store
// (MinIO, R2, etc.). Keys are laid out as <prefix>/<source>/<id>.snap.
// Uploads stream through the SDK's upload manager, so large snapshots are
// sent multipart without buffering in memory.
type S3Vault struct {
	name     string
	client   S3API
	uploader S3Uploader
	bucket   string
	prefix   string
}

// NewS3Vault creates an S3-backed vault.
// The client should be pre-configured (credentials, region, endpoint).
func NewS3Vault(name string, client *s3.Client, bucket, prefix string) *S3Vault {
	return &S3Vault{
		name:     name,
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}
}

// newS3VaultWithAPI wires explicit API implementations. For tests.
func newS3VaultWithAPI(name string, client S3API, uploader S3Uploader, bucket, prefix string) *S3Vault {
	return &S3Vault{name: name, client: client, uploader: uploader, bucket: bucket, prefix: prefix}
}

// key builds the full object key for a snapshot.
func (v *S3Vault) key(source, id string) string {
	k := source + "/" + id + ".snap"
	if v.prefix == "" {
		return k
	}
	return v.prefix + "/" + k
}

// PutSnapshot uploads a snapshot blob. Storing the same source/id twice
// overwrites.
func (v *S3Vault) PutSnapshot(source, id string, r io.Reader, size int64) error {
	_, err := v.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(source, id)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading snapshot %s/%s: %w", source, id, err)
	}
	return nil
}

// GetSnapshot downloads a snapshot blob and writes it to w.
func (v *S3Vault) GetSnapshot(source, id string, w io.Writer) error {
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(source, id)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return fmt.Errorf("snapshot not found: %s/%s", source, id)
		}
		return fmt.Errorf("fetching snapshot %s/%s: %w", source, id, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading snapshot %s/%s: %w", source, id, err)
	}
	return nil
}

// HasSnapshot reports whether a snapshot exists, via HeadObject.
func (v *S3Vault) HasSnapshot(source, id string) (bool, error) {
	_, err := v.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(source, id)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking snapshot %s/%s: %w", source, id, err)
	}
	return true, nil
}

// ValidateSetup verifies the bucket is reachable with the configured
// credentials.
func (v *S3Vault) ValidateSetup() error {
	_, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(v.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}

// isS3NotFound reports whether err indicates the object does not exist.
func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// Compile-time check that S3Vault implements pathdb.Vault interface
var _ pathdb.Vault = (*S3Vault)(nil)
