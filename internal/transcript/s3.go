package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/lewisedginton/safe_local_human/pkg/logger"
	"github.com/lewisedginton/safe_local_human/pkg/prefixed_uuid"
)

// ObjectStore is the subset of S3 the transcript sink needs.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// AWSObjectStore implements ObjectStore with the AWS SDK v2.
type AWSObjectStore struct {
	client *s3.Client
}

// NewAWSObjectStore wraps an S3 client.
func NewAWSObjectStore(client *s3.Client) *AWSObjectStore {
	return &AWSObjectStore{client: client}
}

// PutObject uploads data as a JSON object.
func (c *AWSObjectStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s to bucket %s: %w", key, bucket, err)
	}
	return nil
}

// GetObject downloads an object.
func (c *AWSObjectStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s from bucket %s: %w", key, bucket, err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

// HeadBucket checks that the bucket exists and is reachable with the loaded credentials.
func (c *AWSObjectStore) HeadBucket(ctx context.Context, bucket string) error {
	if _, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("failed to reach bucket %s: %w", bucket, err)
	}
	return nil
}

// S3Sink writes each episode to <prefix>/<episode-id>.json.
type S3Sink struct {
	store  ObjectStore
	bucket string
	prefix string
	log    logger.Logger
}

// NewS3Sink creates an S3 sink.
func NewS3Sink(store ObjectStore, bucket, prefix string, log logger.Logger) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required when using S3 transcripts")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &S3Sink{
		store:  store,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		log:    log,
	}, nil
}

// Key returns the object key for an episode id.
func (s *S3Sink) Key(episodeID string) string {
	if s.prefix == "" {
		return episodeID + ".json"
	}
	return path.Join(s.prefix, episodeID+".json")
}

func (s *S3Sink) Save(ctx context.Context, ep *Episode) error {
	data, err := json.MarshalIndent(ep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode episode %s: %w", ep.ID, err)
	}

	key := s.Key(ep.ID)
	if err := s.store.PutObject(ctx, s.bucket, key, data); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			s.log.Error("S3 rejected transcript",
				logger.StringField("key", key),
				logger.StringField("code", apiErr.ErrorCode()),
				logger.StringField("fault", apiErr.ErrorFault().String()))
		}
		return err
	}
	s.log.Debug("Saved transcript", logger.StringField("bucket", s.bucket), logger.StringField("key", key))
	return nil
}

// Load reads an episode back. episodeID must be an episode id as produced by NewEpisode.
func (s *S3Sink) Load(ctx context.Context, episodeID string) (*Episode, error) {
	if _, err := prefixed_uuid.ParseWithPrefix(EpisodeIDPrefix, episodeID); err != nil {
		return nil, err
	}
	data, err := s.store.GetObject(ctx, s.bucket, s.Key(episodeID))
	if err != nil {
		return nil, err
	}
	var ep Episode
	if err := json.Unmarshal(data, &ep); err != nil {
		return nil, fmt.Errorf("decode episode %s: %w", episodeID, err)
	}
	return &ep, nil
}

// Ping checks the bucket when the store supports it.
func (s *S3Sink) Ping(ctx context.Context) error {
	hb, ok := s.store.(interface {
		HeadBucket(ctx context.Context, bucket string) error
	})
	if !ok {
		return nil
	}
	return hb.HeadBucket(ctx, s.bucket)
}

func (s *S3Sink) Close() error { return nil }
