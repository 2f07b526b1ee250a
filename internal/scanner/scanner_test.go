package scanner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func emptyFakes() (*fakeEC2, *fakeS3, *fakeRDS, *fakeLambda, *fakeIAM, *fakeCloudWatch, *fakeSTS) {
	return &fakeEC2{}, &fakeS3{}, &fakeRDS{}, &fakeLambda{}, &fakeIAM{}, &fakeCloudWatch{}, &fakeSTS{}
}

func TestValidateCredentials(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	st.getCallerIdentityFunc = func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
		return &sts.GetCallerIdentityOutput{Account: aws.String("123456789012")}, nil
	}
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	account, err := s.ValidateCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "123456789012", account)
}

func TestValidateCredentialsRejected(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	st.getCallerIdentityFunc = func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
		return nil, errors.New("InvalidClientTokenId")
	}
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	_, err := s.ValidateCredentials(context.Background())
	require.Error(t, err)
}

func TestListRegions(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	e.describeRegionsFunc = func(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
		return &ec2.DescribeRegionsOutput{Regions: []ec2types.Region{
			{RegionName: aws.String("us-east-1")},
			{RegionName: aws.String("eu-west-1")},
			{RegionName: aws.String("ap-southeast-1")},
		}}, nil
	}
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	regions, err := s.ListRegions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1", "eu-west-1", "ap-southeast-1"}, regions)
}

func TestListRegionsFallback(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	e.describeRegionsFunc = func(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
		return nil, errors.New("UnauthorizedOperation")
	}
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	regions, err := s.ListRegions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1", "ap-south-1"}, regions)
}

func TestScanRegionHomeIncludesGlobalCategories(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	result := s.ScanRegion(context.Background(), "us-east-1")

	assert.Equal(t, "us-east-1", result.Region)
	for _, category := range []string{CategoryEC2, CategoryS3, CategoryRDS, CategoryLambda, CategoryVPC, CategoryIAM, CategoryCloudWatch} {
		assert.Contains(t, result.Categories, category)
	}
}

func TestScanRegionNonHomeSkipsGlobalCategories(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	result := s.ScanRegion(context.Background(), "eu-west-1")

	assert.NotContains(t, result.Categories, CategoryS3)
	assert.NotContains(t, result.Categories, CategoryIAM)
	assert.Contains(t, result.Categories, CategoryEC2)
	assert.Contains(t, result.Categories, CategoryCloudWatch)
}

func TestScanRegionCategoryFailureIsIsolated(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	e.describeInstancesFunc = func(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
		return nil, errors.New("AccessDenied")
	}
	l.listFunctionsFunc = func(ctx context.Context, params *lambda.ListFunctionsInput, optFns ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error) {
		return &lambda.ListFunctionsOutput{Functions: []lambdatypes.FunctionConfiguration{{}, {}}}, nil
	}
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	result := s.ScanRegion(context.Background(), "eu-west-1")

	ec2Summary := result.Categories[CategoryEC2]
	assert.Equal(t, "AccessDenied", ec2Summary.Error)
	assert.Zero(t, ec2Summary.Count)

	lambdaSummary := result.Categories[CategoryLambda]
	assert.Empty(t, lambdaSummary.Error)
	assert.Equal(t, 2, lambdaSummary.Count)
}

func TestScanEC2Details(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	e.describeInstancesFunc = func(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
		return &ec2.DescribeInstancesOutput{Reservations: []ec2types.Reservation{{
			Instances: []ec2types.Instance{
				{
					State:           &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
					PublicIpAddress: aws.String("203.0.113.10"),
					Monitoring:      &ec2types.Monitoring{State: ec2types.MonitoringStateEnabled},
				},
				{
					State:      &ec2types.InstanceState{Name: ec2types.InstanceStateNameStopped},
					Monitoring: &ec2types.Monitoring{State: ec2types.MonitoringStateDisabled},
				},
				{
					State: &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
				},
			},
		}}}, nil
	}
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	summary := s.scanEC2(context.Background(), "us-east-1")

	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 2, summary.Details["running"])
	assert.Equal(t, 1, summary.Details["public"])
	assert.Equal(t, 2, summary.Details["unmonitored"])
}

func TestScanS3BestEffortProbes(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	s3c.listBucketsFunc = func(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
		return &s3.ListBucketsOutput{Buckets: []s3types.Bucket{
			{Name: aws.String("plain")},
			{Name: aws.String("hardened")},
		}}, nil
	}
	s3c.getBucketEncryptionFunc = func(ctx context.Context, params *s3.GetBucketEncryptionInput, optFns ...func(*s3.Options)) (*s3.GetBucketEncryptionOutput, error) {
		if aws.ToString(params.Bucket) == "hardened" {
			return &s3.GetBucketEncryptionOutput{}, nil
		}
		return nil, errors.New("ServerSideEncryptionConfigurationNotFoundError")
	}
	s3c.getBucketVersioningFunc = func(ctx context.Context, params *s3.GetBucketVersioningInput, optFns ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error) {
		if aws.ToString(params.Bucket) == "hardened" {
			return &s3.GetBucketVersioningOutput{Status: s3types.BucketVersioningStatusEnabled}, nil
		}
		return &s3.GetBucketVersioningOutput{}, nil
	}
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	summary := s.scanS3(context.Background(), "us-east-1")

	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, 1, summary.Details["encrypted"])
	assert.Equal(t, 1, summary.Details["versioned"])
	assert.Empty(t, summary.Error)
}

func TestScanRDSDetails(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	r.describeDBInstancesFunc = func(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
		return &rds.DescribeDBInstancesOutput{DBInstances: []rdstypes.DBInstance{
			{MultiAZ: aws.Bool(true), StorageEncrypted: aws.Bool(true)},
			{MultiAZ: aws.Bool(false), StorageEncrypted: aws.Bool(true)},
		}}, nil
	}
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	summary := s.scanRDS(context.Background(), "us-east-1")

	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, 1, summary.Details["multi_az"])
	assert.Equal(t, 2, summary.Details["encrypted"])
}

func TestScanVPCDetails(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	e.describeVpcsFunc = func(ctx context.Context, params *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
		return &ec2.DescribeVpcsOutput{Vpcs: []ec2types.Vpc{{}, {}}}, nil
	}
	e.describeSecurityGroupsFunc = func(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
		return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: []ec2types.SecurityGroup{{}, {}, {}}}, nil
	}
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	summary := s.scanVPC(context.Background(), "us-east-1")

	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, 3, summary.Details["security_groups"])
}

func TestScanIAMDetails(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	i.listUsersFunc = func(ctx context.Context, params *iam.ListUsersInput, optFns ...func(*iam.Options)) (*iam.ListUsersOutput, error) {
		return &iam.ListUsersOutput{Users: []iamtypes.User{{}, {}}}, nil
	}
	i.listRolesFunc = func(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error) {
		return &iam.ListRolesOutput{Roles: []iamtypes.Role{{}, {}, {}}}, nil
	}
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	summary := s.scanIAM(context.Background(), "us-east-1")

	assert.Equal(t, 5, summary.Count)
	assert.Equal(t, 2, summary.Details["users"])
	assert.Equal(t, 3, summary.Details["roles"])
}

func TestScanCloudWatch(t *testing.T) {
	e, s3c, r, l, i, cw, st := emptyFakes()
	cw.describeAlarmsFunc = func(ctx context.Context, params *cloudwatch.DescribeAlarmsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.DescribeAlarmsOutput, error) {
		return &cloudwatch.DescribeAlarmsOutput{MetricAlarms: []cwtypes.MetricAlarm{{}, {}, {}, {}}}, nil
	}
	s := newTestScanner("us-east-1", e, s3c, r, l, i, cw, st)

	summary := s.scanCloudWatch(context.Background(), "us-east-1")

	assert.Equal(t, 4, summary.Count)
}
