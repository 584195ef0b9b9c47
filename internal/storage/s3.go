package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the AWS S3 client used by this package.
type S3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Connector implements Connector with the AWS SDK. Path-style addressing
// is used so that non-AWS endpoints work too.
type S3Connector struct {
	Secure bool
	Region string
}

// Connect builds an S3 client for host with static credentials.
func (c *S3Connector) Connect(ctx context.Context, accessKey, secretKey, host string) (Connection, error) {
	region := c.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := endpointURL(host, c.Secure)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return NewS3Connection(client), nil
}

// NewS3Connection wraps an existing S3 client.
func NewS3Connection(client S3API) Connection {
	return &s3Connection{client: client}
}

func endpointURL(host string, secure bool) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	if secure {
		return "https://" + host
	}
	return "http://" + host
}

type s3Connection struct {
	client S3API
}

func (c *s3Connection) Container(ctx context.Context, name string) (Container, error) {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("bucket %q: %w", name, ErrContainerNotFound)
		}
		return nil, fmt.Errorf("head bucket %q: %w", name, err)
	}
	return &s3Bucket{client: c.client, bucket: name}, nil
}

type s3Bucket struct {
	client S3API
	bucket string
}

func (b *s3Bucket) PutObject(ctx context.Context, key string, metadata map[string]string, sourcePath string) error {
	f, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open %q: %w", sourcePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %q: %w", sourcePath, err)
	}

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType(sourcePath)),
		Metadata:      metadata,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}
