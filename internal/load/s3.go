package load

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Uploader publishes snapshot files to the destination bucket, where the
// warehouse's auto-ingestion picks them up.
type S3Uploader struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
}

func NewS3Uploader(region, bucket string) *S3Uploader {
	sess := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(region),
	}))
	return &S3Uploader{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
	}
}

// Upload sends the local file to s3://<bucket>/<key> and verifies the
// object exists afterwards. Returns the number of bytes uploaded.
func (u *S3Uploader) Upload(ctx context.Context, key, path string, metadata map[string]string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s for upload: %w", path, err)
	}
	defer f.Close()

	meta := make(map[string]*string, len(metadata))
	for k, v := range metadata {
		meta[k] = aws.String(v)
	}

	_, err = u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:   aws.String(u.bucket),
		Key:      aws.String(key),
		Body:     f,
		Metadata: meta,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload to s3://%s/%s: %w", u.bucket, key, err)
	}

	_, err = u.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return info.Size(), fmt.Errorf("upload verification failed for %s: %w", key, err)
	}

	return info.Size(), nil
}
