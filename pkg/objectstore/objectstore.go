// Package objectstore wraps an S3-compatible client for presigning
// snapshot upload/download URLs. It is a thin configuration layer over
// the AWS SDK's own SigV4 signer, not a hand-rolled signature scheme.
package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	// DefaultRegion matches the region placeholder used by S3-compatible
	// storage backends that do not implement region partitioning.
	DefaultRegion = "default"
	// SignatureVersion is always SigV4; the SDK's default signer already
	// implements it, so there is nothing to configure here.
	SignatureVersion = "AWS4-HMAC-SHA256"
)

// Config describes how to reach an S3-compatible endpoint.
type Config struct {
	EndpointUrl string
	AccessKey   string
	SecretKey   string
	Region      string
}

// Client presigns GET/PUT URLs for snapshot objects in a bucket.
type Client struct {
	presignClient *s3.PresignClient
}

// NewClient builds a Client from static credentials and a custom
// endpoint. Returns (nil, nil) when no endpoint is configured: callers
// treat a nil Client as "object-store mirroring disabled".
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.EndpointUrl == "" {
		return nil, nil
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.EndpointUrl)
		o.UsePathStyle = true
	})

	return &Client{presignClient: s3.NewPresignClient(s3Client)}, nil
}

// PresignDownload returns a time-limited GET URL for an object.
func (c *Client) PresignDownload(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	req, err := c.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign download for %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

// PresignUpload returns a time-limited PUT URL for an object.
func (c *Client) PresignUpload(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	req, err := c.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign upload for %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}
