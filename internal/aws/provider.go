package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

const (
	credentialCheckTimeout = 3 * time.Second
	catalogCacheTTL        = 7 * 24 * time.Hour
)

var (
	ErrAWSCredentials      = errors.New("AWS credentials not found; set AWS_PROFILE, run 'aws sso login', or configure ~/.aws/credentials")
	ErrUnknownInstanceType = errors.New("unknown instance type")
)

// HostCatalog resolves EC2 instance type names to hardware specs.
type HostCatalog interface {
	InstanceTypes(ctx context.Context, names []string) ([]InstanceType, error)
	Region() string
}

// ec2API is a minimal interface for the EC2 calls we need.
type ec2API interface {
	DescribeInstanceTypes(ctx context.Context, params *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error)
}

// EC2Catalog implements HostCatalog with the EC2 DescribeInstanceTypes API.
type EC2Catalog struct {
	client ec2API
	region string
	cache  *FileCache
}

// NewEC2Catalog creates a catalog using the default AWS SDK config chain.
// IMDS (EC2 metadata) is disabled to avoid long timeouts when running locally.
func NewEC2Catalog(ctx context.Context, region string, cacheDir string) (*EC2Catalog, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithEC2IMDSClientEnableState(imds.ClientDisabled),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAWSCredentials, err)
	}

	// Verify credentials are available before making any API calls
	credCtx, cancel := context.WithTimeout(ctx, credentialCheckTimeout)
	defer cancel()
	if _, err := cfg.Credentials.Retrieve(credCtx); err != nil {
		return nil, ErrAWSCredentials
	}

	return newEC2Catalog(ec2.NewFromConfig(cfg), cfg.Region, cacheDir), nil
}

func newEC2Catalog(client ec2API, region, cacheDir string) *EC2Catalog {
	var cache *FileCache
	if cacheDir != "" {
		cache = NewFileCache(cacheDir)
	}
	return &EC2Catalog{client: client, region: region, cache: cache}
}

// Region returns the AWS region.
func (c *EC2Catalog) Region() string {
	return c.region
}
