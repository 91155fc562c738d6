package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubS3(t *testing.T) {
	t.Helper()
	origLoad, origNew, origPut, origPresign := loadDefaultAWSConfig, newS3ClientFromConfig, putObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, putObject, presignGetObject = origLoad, origNew, origPut, origPresign
	})
}

func testS3Config() S3Config {
	return S3Config{
		AccessKey: "minioadmin", SecretKey: "minioadmin", Bucket: "uploads", Region: "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000", PresignTTL: time.Hour,
	}
}

func TestNewS3_AppliesOptions(t *testing.T) {
	stubS3(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	s, err := NewS3(context.Background(), testS3Config())
	require.NoError(t, err)
	assert.Equal(t, "aws-s3", s.Name())
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3_ConfigError(t *testing.T) {
	stubS3(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3(context.Background(), testS3Config())
	assert.EqualError(t, err, "no config")
}

func TestS3_Put(t *testing.T) {
	stubS3(t)

	var gotKey, gotType string
	var gotBody string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		gotKey = aws.ToString(in.Key)
		gotType = aws.ToString(in.ContentType)
		b, _ := io.ReadAll(in.Body)
		gotBody = string(b)
		return nil
	}
	presignGetObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "http://minio/uploads/" + aws.ToString(in.Key) + "?sig", Method: http.MethodGet}, nil
	}

	s := &S3{client: &s3.Client{}, cfg: testS3Config()}
	url, err := s.Put(context.Background(), "avatar_1_x.png", strings.NewReader("img"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://minio/uploads/avatar_1_x.png?sig", url)
	assert.Equal(t, "avatar_1_x.png", gotKey)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "img", gotBody)
}

func TestS3_PutErrors(t *testing.T) {
	stubS3(t)
	s := &S3{client: &s3.Client{}, cfg: testS3Config()}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error { return errors.New("denied") }
	_, err := s.Put(context.Background(), "k", strings.NewReader(""), 0, "")
	assert.EqualError(t, err, "denied")

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error { return nil }
	presignGetObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign failed")
	}
	_, err = s.Put(context.Background(), "k", strings.NewReader(""), 0, "")
	assert.EqualError(t, err, "presign failed")
}
