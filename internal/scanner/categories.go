package scanner

import (
	"context"

	"pillarscan/internal/api"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// failedCategory records a category-level failure inline. The error stays on
// the summary; it never propagates.
func (s *Scanner) failedCategory(region, category string, err error) api.CategorySummary {
	s.logger.Error("category scan failed",
		"region", region, "category", category, "error", err.Error())
	return api.CategorySummary{Count: 0, Error: err.Error()}
}

func (s *Scanner) scanEC2(ctx context.Context, region string) api.CategorySummary {
	out, err := s.newEC2(region).DescribeInstances(ctx, &ec2.DescribeInstancesInput{})
	if err != nil {
		return s.failedCategory(region, CategoryEC2, err)
	}

	var count, running, public, unmonitored int
	for _, reservation := range out.Reservations {
		for _, instance := range reservation.Instances {
			count++
			if instance.State != nil && instance.State.Name == ec2types.InstanceStateNameRunning {
				running++
			}
			if instance.PublicIpAddress != nil {
				public++
			}
			if instance.Monitoring == nil || instance.Monitoring.State != ec2types.MonitoringStateEnabled {
				unmonitored++
			}
		}
	}

	return api.CategorySummary{
		Count: count,
		Details: map[string]int{
			"running":     running,
			"public":      public,
			"unmonitored": unmonitored,
		},
	}
}

func (s *Scanner) scanS3(ctx context.Context, region string) api.CategorySummary {
	client := s.newS3(region)
	out, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return s.failedCategory(region, CategoryS3, err)
	}

	var encrypted, versioned int
	for _, bucket := range out.Buckets {
		name := aws.ToString(bucket.Name)

		// Per-bucket probes are best effort: an access error counts the
		// bucket as unencrypted/unversioned rather than failing the category.
		if _, encErr := client.GetBucketEncryption(ctx, &s3.GetBucketEncryptionInput{Bucket: aws.String(name)}); encErr == nil {
			encrypted++
		}
		if ver, verErr := client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{Bucket: aws.String(name)}); verErr == nil {
			if ver.Status == s3types.BucketVersioningStatusEnabled {
				versioned++
			}
		}
	}

	return api.CategorySummary{
		Count: len(out.Buckets),
		Details: map[string]int{
			"encrypted": encrypted,
			"versioned": versioned,
		},
	}
}

func (s *Scanner) scanRDS(ctx context.Context, region string) api.CategorySummary {
	out, err := s.newRDS(region).DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{})
	if err != nil {
		return s.failedCategory(region, CategoryRDS, err)
	}

	var multiAZ, encrypted int
	for _, db := range out.DBInstances {
		if aws.ToBool(db.MultiAZ) {
			multiAZ++
		}
		if aws.ToBool(db.StorageEncrypted) {
			encrypted++
		}
	}

	return api.CategorySummary{
		Count: len(out.DBInstances),
		Details: map[string]int{
			"multi_az":  multiAZ,
			"encrypted": encrypted,
		},
	}
}

func (s *Scanner) scanLambda(ctx context.Context, region string) api.CategorySummary {
	out, err := s.newLambda(region).ListFunctions(ctx, &lambda.ListFunctionsInput{})
	if err != nil {
		return s.failedCategory(region, CategoryLambda, err)
	}
	return api.CategorySummary{Count: len(out.Functions)}
}

func (s *Scanner) scanVPC(ctx context.Context, region string) api.CategorySummary {
	client := s.newEC2(region)

	vpcs, err := client.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{})
	if err != nil {
		return s.failedCategory(region, CategoryVPC, err)
	}
	groups, err := client.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{})
	if err != nil {
		return s.failedCategory(region, CategoryVPC, err)
	}

	return api.CategorySummary{
		Count: len(vpcs.Vpcs),
		Details: map[string]int{
			"security_groups": len(groups.SecurityGroups),
		},
	}
}

func (s *Scanner) scanIAM(ctx context.Context, region string) api.CategorySummary {
	client := s.newIAM(region)

	users, err := client.ListUsers(ctx, &iam.ListUsersInput{})
	if err != nil {
		return s.failedCategory(region, CategoryIAM, err)
	}
	roles, err := client.ListRoles(ctx, &iam.ListRolesInput{})
	if err != nil {
		return s.failedCategory(region, CategoryIAM, err)
	}

	return api.CategorySummary{
		Count: len(users.Users) + len(roles.Roles),
		Details: map[string]int{
			"users": len(users.Users),
			"roles": len(roles.Roles),
		},
	}
}

func (s *Scanner) scanCloudWatch(ctx context.Context, region string) api.CategorySummary {
	out, err := s.newCloudWatch(region).DescribeAlarms(ctx, &cloudwatch.DescribeAlarmsInput{})
	if err != nil {
		return s.failedCategory(region, CategoryCloudWatch, err)
	}
	return api.CategorySummary{Count: len(out.MetricAlarms)}
}
