package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

func newTestService() *S3Service {
	return NewS3Service(s3.New(s3.Options{Region: "us-east-1"}))
}

func TestS3Service_RequiresBucket(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Upload(ctx, "", "k", strings.NewReader("{}"), "application/json")
	require.ErrorContains(t, err, "bucket is required")

	_, err = svc.ListObjects(ctx, "", "")
	require.ErrorContains(t, err, "bucket is required")

	err = svc.DeleteObjects(ctx, "", []string{"k"})
	require.ErrorContains(t, err, "bucket is required")
}

func TestS3Service_UploadRequiresKey(t *testing.T) {
	_, err := newTestService().Upload(context.Background(), "bucket", "/", strings.NewReader("{}"), "")
	require.ErrorContains(t, err, "object key is required")
}

func TestS3Service_DeleteNothingIsNoop(t *testing.T) {
	require.NoError(t, newTestService().DeleteObjects(context.Background(), "bucket", nil))
}
