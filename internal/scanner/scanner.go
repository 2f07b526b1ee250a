// Package scanner enumerates AWS resources per region and summarizes them by
// category. Each category scan is independent: a failure (for example a
// missing permission) is recorded inline on that category's summary and never
// aborts the sibling categories or the region.
package scanner

import (
	"context"
	"log/slog"

	"pillarscan/internal/api"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Resource category names used as keys in RegionResult.Categories.
const (
	CategoryEC2        = "ec2"
	CategoryS3         = "s3"
	CategoryRDS        = "rds"
	CategoryLambda     = "lambda"
	CategoryVPC        = "vpc"
	CategoryIAM        = "iam"
	CategoryCloudWatch = "cloudwatch"
)

// defaultRegions is the documented fallback used when region enumeration
// itself fails.
var defaultRegions = []string{"us-east-1", "ap-south-1"}

// Scanner scans one AWS account. Clients are constructed per call from the
// injected config; there is no shared package-level client state.
type Scanner struct {
	homeRegion string
	logger     *slog.Logger

	// client factories, replaceable in tests
	newEC2        func(region string) ec2API
	newS3         func(region string) s3API
	newRDS        func(region string) rdsAPI
	newLambda     func(region string) lambdaAPI
	newIAM        func(region string) iamAPI
	newCloudWatch func(region string) cloudwatchAPI
	newSTS        func(region string) stsAPI
}

// BuildConfig constructs an aws.Config from static access keys. The region is
// a default only; every client factory overrides it per call.
func BuildConfig(ctx context.Context, accessKey, secretKey, region string) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
}

// New creates a scanner over the given config. Global-scope categories
// (object storage, identity) are evaluated only in homeRegion to avoid
// duplicate counting across regions.
func New(cfg aws.Config, homeRegion string, log *slog.Logger) *Scanner {
	return &Scanner{
		homeRegion: homeRegion,
		logger:     log,
		newEC2: func(region string) ec2API {
			return ec2.NewFromConfig(cfg, func(o *ec2.Options) { o.Region = region })
		},
		newS3: func(region string) s3API {
			return s3.NewFromConfig(cfg, func(o *s3.Options) { o.Region = region })
		},
		newRDS: func(region string) rdsAPI {
			return rds.NewFromConfig(cfg, func(o *rds.Options) { o.Region = region })
		},
		newLambda: func(region string) lambdaAPI {
			return lambda.NewFromConfig(cfg, func(o *lambda.Options) { o.Region = region })
		},
		newIAM: func(region string) iamAPI {
			return iam.NewFromConfig(cfg, func(o *iam.Options) { o.Region = region })
		},
		newCloudWatch: func(region string) cloudwatchAPI {
			return cloudwatch.NewFromConfig(cfg, func(o *cloudwatch.Options) { o.Region = region })
		},
		newSTS: func(region string) stsAPI {
			return sts.NewFromConfig(cfg, func(o *sts.Options) { o.Region = region })
		},
	}
}

// ValidateCredentials verifies the credentials resolve to a real identity and
// returns the account ID.
func (s *Scanner) ValidateCredentials(ctx context.Context) (string, error) {
	out, err := s.newSTS(s.homeRegion).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.Account), nil
}

// ListRegions enumerates all regions enabled for the account. When the
// enumeration call itself fails it falls back to a fixed default list rather
// than failing the scan.
func (s *Scanner) ListRegions(ctx context.Context) ([]string, error) {
	out, err := s.newEC2(s.homeRegion).DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		s.logger.Warn("region enumeration failed, using default region list",
			"error", err.Error(), "defaults", defaultRegions)
		return defaultRegions, nil
	}

	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		regions = append(regions, aws.ToString(r.RegionName))
	}
	return regions, nil
}

// ScanRegion acquires independent summaries for every resource category in
// one region. It never fails as a whole: category errors are recorded inline.
func (s *Scanner) ScanRegion(ctx context.Context, region string) api.RegionResult {
	s.logger.Info("scanning region", "region", region)

	categories := map[string]api.CategorySummary{
		CategoryEC2:        s.scanEC2(ctx, region),
		CategoryRDS:        s.scanRDS(ctx, region),
		CategoryLambda:     s.scanLambda(ctx, region),
		CategoryVPC:        s.scanVPC(ctx, region),
		CategoryCloudWatch: s.scanCloudWatch(ctx, region),
	}

	// Global-scope categories are counted once, in the home region.
	if region == s.homeRegion {
		categories[CategoryS3] = s.scanS3(ctx, region)
		categories[CategoryIAM] = s.scanIAM(ctx, region)
	}

	return api.RegionResult{
		Region:     region,
		Categories: categories,
	}
}
