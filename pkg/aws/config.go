package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// LoadAWSConfig loads the default AWS config. When AWS_ENDPOINT (or one of the
// service specific AWS_SNS_ENDPOINT, AWS_SQS_ENDPOINT, AWS_S3_ENDPOINT,
// AWS_DYNAMODB_ENDPOINT) is set, every client is pointed at that URL so the
// service can run against LocalStack. Against a custom endpoint without
// AWS_ACCESS_KEY_ID, static "test" credentials are used.
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if os.Getenv("AWS_REGION") == "" && os.Getenv("AWS_DEFAULT_REGION") == "" {
		opts = append(opts, config.WithRegion("us-east-1"))
	}

	endpoint := firstEnv("AWS_ENDPOINT", "AWS_SNS_ENDPOINT", "AWS_SQS_ENDPOINT", "AWS_S3_ENDPOINT", "AWS_DYNAMODB_ENDPOINT")
	if endpoint != "" && os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}

	if endpoint == "" {
		return cfg, nil
	}

	signingRegion := cfg.Region
	resolver := sdkaws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (sdkaws.Endpoint, error) {
		sr := signingRegion
		if sr == "" {
			sr = region
		}
		return sdkaws.Endpoint{
			URL:               endpoint,
			SigningRegion:     sr,
			HostnameImmutable: true,
		}, nil
	})
	cfg.EndpointResolverWithOptions = resolver

	return cfg, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
