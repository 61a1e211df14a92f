package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	AccessKeySecret string
}

// NewDriverS3 builds the one S3 client the process shares. Without static
// credentials the default AWS chain (env, shared config, instance role) is used.
func NewDriverS3(ctx context.Context, s3Config S3Config) (Driver, error) {
	optionFuncs := []func(*s3.Options){
		func(o *s3.Options) {
			if s3Config.Endpoint != "" {
				o.BaseEndpoint = aws.String(s3Config.Endpoint)
				o.UsePathStyle = true
			}
		},
	}

	if s3Config.AccessKeyID != "" {
		region := s3Config.Region
		if region == "" {
			region = "auto"
		}

		return newDriverS3(s3.New(
			s3.Options{
				Region: region,
				Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
					return aws.Credentials{
						AccessKeyID:     s3Config.AccessKeyID,
						SecretAccessKey: s3Config.AccessKeySecret,
					}, nil
				}),
			},
			optionFuncs...,
		)), nil
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{}
	if s3Config.Region != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(s3Config.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newDriverS3(s3.NewFromConfig(cfg, optionFuncs...)), nil
}

func newDriverS3(client *s3.Client) *driverS3 {
	return &driverS3{
		client:   client,
		presign:  s3.NewPresignClient(client),
		uploader: manager.NewUploader(client),
	}
}

type driverS3 struct {
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
}

func (driver *driverS3) PreSignedUploadURL(ctx context.Context, bucket string, key string, expiration time.Duration) (string, error) {
	request, err := driver.presign.PresignPutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(expiration),
	)
	if err != nil {
		return "", err
	}

	return request.URL, nil
}

func (driver *driverS3) Get(ctx context.Context, bucket string, key string) (Object, error) {
	result, err := driver.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return Object{}, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
		}

		return Object{}, err
	}

	return Object{
		ObjectInfo: ObjectInfo{
			Key:          key,
			Size:         aws.ToInt64(result.ContentLength),
			LastModified: aws.ToTime(result.LastModified),
		},
		ContentType: aws.ToString(result.ContentType),
		Body:        result.Body,
	}, nil
}

func (driver *driverS3) Put(
	ctx context.Context,
	bucket string,
	key string,
	payload io.Reader,
	size int64,
	options PutOptions,
) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   payload,
	}

	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if options.ContentType != "" {
		input.ContentType = aws.String(options.ContentType)
	}

	if options.PublicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := driver.uploader.Upload(ctx, input); err != nil {
		return err
	}

	return nil
}

func (driver *driverS3) Delete(ctx context.Context, bucket string, key string) error {
	if _, err := driver.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		// S3 answers 204 for missing keys, some compatible stores answer 404
		if isS3NotFound(err) {
			return nil
		}

		return err
	}

	return nil
}

func (driver *driverS3) IsReady(ctx context.Context, bucket string) error {
	if _, err := driver.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	}); err != nil {
		return err
	}

	return nil
}

func (driver *driverS3) Exists(ctx context.Context, bucket string, key string) (bool, error) {
	if _, err := driver.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isS3NotFound(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (driver *driverS3) List(ctx context.Context, bucket string, prefix string) ([]ObjectInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(driver.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	objects := []ObjectInfo{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		for _, object := range page.Contents {
			objects = append(objects, ObjectInfo{
				Key:          aws.ToString(object.Key),
				Size:         aws.ToInt64(object.Size),
				LastModified: aws.ToTime(object.LastModified),
			})
		}
	}

	return objects, nil
}

func (driver *driverS3) PublicLink(ctx context.Context, bucket string, key string) (string, error) {
	options := driver.client.Options()
	if options.UsePathStyle && options.BaseEndpoint != nil {
		return strings.TrimRight(*options.BaseEndpoint, "/") + "/" + url.PathEscape(bucket) + "/" + escapeKey(key), nil
	}

	endpoint, err := options.EndpointResolverV2.ResolveEndpoint(ctx, s3.EndpointParameters{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Region: aws.String(options.Region),
	})
	if err != nil {
		return "", err
	}

	return endpoint.URI.String() + "/" + escapeKey(key), nil
}

func isS3NotFound(err error) bool {
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return false
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var responseError *smithyhttp.ResponseError
	if errors.As(err, &responseError) {
		return responseError.HTTPStatusCode() == 404
	}

	return false
}
