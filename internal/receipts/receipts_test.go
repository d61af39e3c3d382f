package receipts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRelease(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "u1", "receipt.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))

	s := NewLocalStore(root)
	require.NoError(t, s.Release(context.Background(), "u1/receipt.jpg"))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Release(context.Background(), "u1/receipt.jpg"), "missing file is not an error")
	assert.NoError(t, s.Release(context.Background(), ""))
}

func TestLocalStoreStaysInsideRoot(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	s := NewLocalStore(t.TempDir())
	_ = s.Release(context.Background(), "../../"+filepath.Base(outside))

	_, err := os.Stat(outside)
	assert.NoError(t, err, "file outside the root must survive")
}

type fakeDeleter struct {
	keys []string
	err  error
}

func (f *fakeDeleter) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.keys = append(f.keys, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, f.err
}

func TestS3StoreRelease(t *testing.T) {
	fd := &fakeDeleter{}
	s := &S3Store{bucket: "receipts", client: fd}

	require.NoError(t, s.Release(context.Background(), "/u1/r.pdf"))
	require.NoError(t, s.Release(context.Background(), " "))
	assert.Equal(t, []string{"u1/r.pdf"}, fd.keys)

	fd.err = errors.New("access denied")
	assert.Error(t, s.Release(context.Background(), "u1/x.pdf"))
}
