package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// LocalStack accepts any key pair.
const localstackKey = "test"

// LoadAWSConfig loads the default credential chain. When AWS_ENDPOINT is set
// (LocalStack) the returned endpoint is non-empty and callers pass it to the
// client constructors in this package. Without explicit keys a LocalStack
// endpoint gets static test credentials.
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, string, error) {
	endpoint := os.Getenv("AWS_ENDPOINT")

	var opts []func(*config.LoadOptions) error
	if region := os.Getenv("AWS_REGION"); region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if endpoint != "" && os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(localstackKey, localstackKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, "", fmt.Errorf("failed to load aws config: %w", err)
	}
	return cfg, endpoint, nil
}
