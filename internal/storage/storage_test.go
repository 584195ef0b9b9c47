package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radif/uploader/internal/config"
)

type mockS3 struct {
	HeadBucketFunc func(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObjectFunc  func(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func (m *mockS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return m.HeadBucketFunc(ctx, in, opts...)
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return m.PutObjectFunc(ctx, in, opts...)
}

func TestNewConnector(t *testing.T) {
	c, err := NewConnector(config.Backend{Driver: config.DriverMinio, Secure: true})
	require.NoError(t, err)
	assert.IsType(t, &MinioConnector{}, c)

	c, err = NewConnector(config.Backend{Driver: config.DriverS3, Region: "eu-west-1"})
	require.NoError(t, err)
	require.IsType(t, &S3Connector{}, c)
	assert.Equal(t, "eu-west-1", c.(*S3Connector).Region)

	_, err = NewConnector(config.Backend{Driver: "ftp"})
	require.Error(t, err)
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "https://s3.amazonaws.com", endpointURL("s3.amazonaws.com", true))
	assert.Equal(t, "http://localhost:9000", endpointURL("localhost:9000", false))
	assert.Equal(t, "http://minio:9000", endpointURL("http://minio:9000", true))
}

func TestS3Connection_Container(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "exists"},
		{name: "missing", err: &s3types.NotFound{}, wantErr: ErrContainerNotFound},
		{name: "denied", err: errors.New("403 forbidden")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockS3{
				HeadBucketFunc: func(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
					assert.Equal(t, "audio", aws.ToString(in.Bucket))
					if tt.err != nil {
						return nil, tt.err
					}
					return &s3.HeadBucketOutput{}, nil
				},
			}

			c, err := NewS3Connection(m).Container(context.Background(), "audio")
			if tt.err == nil {
				require.NoError(t, err)
				assert.NotNil(t, c)
				return
			}
			require.Error(t, err)
			assert.Nil(t, c)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
		})
	}
}

func TestS3Bucket_PutObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "My Song.mp3")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	var called bool
	m := &mockS3{
		PutObjectFunc: func(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			called = true
			assert.Equal(t, "audio", aws.ToString(in.Bucket))
			assert.Equal(t, "stations/42/ab/My-Song_x.mp3", aws.ToString(in.Key))
			assert.Equal(t, int64(10), aws.ToInt64(in.ContentLength))
			assert.Equal(t, map[string]string{"filename": "My Song.mp3"}, in.Metadata)
			assert.NotEmpty(t, aws.ToString(in.ContentType))

			body, err := io.ReadAll(in.Body)
			require.NoError(t, err)
			assert.Equal(t, "0123456789", string(body))
			return &s3.PutObjectOutput{}, nil
		},
	}

	b := &s3Bucket{client: m, bucket: "audio"}
	err := b.PutObject(context.Background(), "stations/42/ab/My-Song_x.mp3", map[string]string{"filename": "My Song.mp3"}, path)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestS3Bucket_PutObjectErrors(t *testing.T) {
	m := &mockS3{
		PutObjectFunc: func(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, errors.New("connection reset")
		},
	}
	b := &s3Bucket{client: m, bucket: "audio"}

	err := b.PutObject(context.Background(), "k", nil, filepath.Join(t.TempDir(), "missing.mp3"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(t.TempDir(), "a.mp3")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	err = b.PutObject(context.Background(), "k", nil, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestContentType(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("plain text content\n"), 0o600))
	assert.Contains(t, contentType(txt), "text/plain")

	assert.Equal(t, defaultContentType, contentType(filepath.Join(dir, "missing")))
}

func TestMinioConnector_Connect(t *testing.T) {
	c := &MinioConnector{Secure: false, Region: "us-east-1"}
	conn, err := c.Connect(context.Background(), "key", "secret", "localhost:9000")
	require.NoError(t, err)
	assert.NotNil(t, conn)

	conn, err = c.Connect(context.Background(), "key", "secret", "https://play.min.io")
	require.NoError(t, err)
	assert.Equal(t, "https", conn.(*minioConnection).client.EndpointURL().Scheme)
}
