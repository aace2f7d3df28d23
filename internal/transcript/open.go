package transcript

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

// Options selects and configures a sink.
type Options struct {
	Backend Backend

	Dir string

	S3Bucket  string
	S3Prefix  string
	S3Region  string
	S3Profile string

	DatabaseURL string
	Migrate     bool
}

// Open builds the sink for the configured backend.
func Open(ctx context.Context, opts Options, log logger.Logger) (Sink, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	switch opts.Backend {
	case BackendNone, "":
		return Discard{}, nil

	case BackendFile:
		sink, err := NewFileSink(opts.Dir)
		if err != nil {
			return nil, err
		}
		log.Info("Using file transcripts", logger.StringField("path", sink.Path()))
		return sink, nil

	case BackendS3:
		log.Info("Using S3 transcripts",
			logger.StringField("bucket", opts.S3Bucket),
			logger.StringField("prefix", opts.S3Prefix),
			logger.StringField("region", opts.S3Region))

		if opts.S3Bucket == "" {
			return nil, fmt.Errorf("S3 bucket is required when using S3 transcripts")
		}

		configOptions := []func(*awsconfig.LoadOptions) error{}
		if opts.S3Profile != "" {
			configOptions = append(configOptions, awsconfig.WithSharedConfigProfile(opts.S3Profile))
		}
		if opts.S3Region != "" {
			configOptions = append(configOptions, awsconfig.WithRegion(opts.S3Region))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return NewS3Sink(NewAWSObjectStore(s3.NewFromConfig(awsCfg)), opts.S3Bucket, opts.S3Prefix, log)

	case BackendPostgres:
		log.Info("Using postgres transcripts")
		return NewPostgresSink(ctx, opts.DatabaseURL, opts.Migrate, log)
	}
	return nil, fmt.Errorf("unsupported transcript backend: %s", opts.Backend)
}
