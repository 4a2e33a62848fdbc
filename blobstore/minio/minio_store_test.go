package minio

import (
	"context"
	"testing"

	"github.com/hupe1980/sensego/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-sensego"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	_, err = client.ListBuckets(ctx)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		require.NoError(t, err)
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "scores/test.snap", data))

	got, err := store.Get(ctx, "scores/test.snap")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "scores/")
	require.NoError(t, err)
	assert.Contains(t, names, "scores/test.snap")

	require.NoError(t, store.Delete(ctx, "scores/test.snap"))

	_, err = store.Get(ctx, "scores/test.snap")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "bucket", "root/")
	assert.Equal(t, "root/scores/a.snap", s.key("scores/a.snap"))
}
