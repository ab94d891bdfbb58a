package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 keeps objects in memory keyed by bucket/key
type fakeS3 struct {
	mu          sync.Mutex
	objects     map[string][]byte
	contentType map[string]string
	headErr     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentType: map[string]string{}}
}

func objectKey(bucket, key *string) string {
	return aws.ToString(bucket) + "/" + aws.ToString(key)
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[objectKey(in.Bucket, in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := objectKey(in.Bucket, in.Key)
	f.objects[k] = data
	f.contentType[k] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectKey(in.Bucket, in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[objectKey(in.Bucket, in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantBucket  string
		wantKey     string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid S3 URI",
			uri:        "s3://my-bucket/graphs/pip.json",
			wantBucket: "my-bucket",
			wantKey:    "graphs/pip.json",
		},
		{
			name:       "S3 URI with single key",
			uri:        "s3://bucket/job.yaml",
			wantBucket: "bucket",
			wantKey:    "job.yaml",
		},
		{
			name:        "missing bucket",
			uri:         "s3:///graphs/pip.json",
			wantErr:     true,
			errContains: "missing bucket name",
		},
		{
			name:        "missing key",
			uri:         "s3://my-bucket/",
			wantErr:     true,
			errContains: "missing object key",
		},
		{
			name:        "bucket only",
			uri:         "s3://my-bucket",
			wantErr:     true,
			errContains: "missing object key",
		},
		{
			name:        "wrong scheme",
			uri:         "https://bucket/file.txt",
			wantErr:     true,
			errContains: "S3 storage only supports s3://",
		},
		{
			name:        "empty URI",
			uri:         "",
			wantErr:     true,
			errContains: "cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := parseS3URI(tt.uri)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestS3Storage_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	var st Storage = NewS3StorageWithClient(fake)
	ctx := context.Background()
	uri := "s3://media/graphs/pip.json"

	exists, err := st.Exists(ctx, uri)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, st.Put(ctx, uri, strings.NewReader(`{"__kind__":"Output"}`)))
	assert.Equal(t, "application/json", fake.contentType["media/graphs/pip.json"])

	exists, err = st.Exists(ctx, uri)
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := st.Get(ctx, uri)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, `{"__kind__":"Output"}`, string(data))

	require.NoError(t, st.Delete(ctx, uri))
	_, err = st.Get(ctx, uri)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestS3Storage_ExistsError(t *testing.T) {
	fake := newFakeS3()
	fake.headErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}

	_, err := NewS3StorageWithClient(fake).Exists(context.Background(), "s3://media/a.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")

	fake.headErr = &smithy.GenericAPIError{Code: "NotFound"}
	exists, err := NewS3StorageWithClient(fake).Exists(context.Background(), "s3://media/a.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, isNotFound(nil))
	assert.False(t, isNotFound(errors.New("boom")))
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NoSuchKey"}))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("a/graph.json"))
	assert.Equal(t, "application/yaml", contentType("job.yml"))
	assert.Equal(t, "text/plain", contentType("filter.txt"))
}
