package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/docfoundry/knowflow/internal/config"
)

// S3Store mirrors working directories as objects keyed
// {document_uid}/{input|output|metadata.json...} in a single bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(ctx context.Context, env *config.Env) (*S3Store, error) {
	if env.AwsAccessKey == "" || env.AwsSecretKey == "" {
		return nil, fmt.Errorf("AWS credentials not set")
	}
	if env.AwsRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}
	if env.BucketName == "" {
		return nil, fmt.Errorf("S3 bucket name not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(env.AwsRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(env.AwsAccessKey, env.AwsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	log.Println("content: connected to AWS S3")
	return &S3Store{client: s3.NewFromConfig(awsCfg), bucket: env.BucketName}, nil
}

func (s *S3Store) Save(ctx context.Context, documentUID, dir string) error {
	saveCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	// Replace-if-exists: remove the previous generation under the UID prefix.
	if err := s.deletePrefix(saveCtx, documentUID+"/"); err != nil {
		return fmt.Errorf("clean previous content for %s: %w", documentUID, err)
	}

	uploader := manager.NewUploader(s.client)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		key, err := relKey(dir, path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = uploader.Upload(saveCtx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(documentUID + "/" + key),
			Body:   f,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("s3 save content %s: %w", documentUID, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, documentUID string) error {
	delCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := s.deletePrefix(delCtx, documentUID+"/"); err != nil {
		return fmt.Errorf("s3 delete content %s: %w", documentUID, err)
	}
	return nil
}

func (s *S3Store) GetRawStream(ctx context.Context, documentUID string) (io.ReadCloser, string, error) {
	keys, err := s.listPrefix(ctx, documentUID+"/input/")
	if err != nil {
		return nil, "", fmt.Errorf("s3 list input for %s: %w", documentUID, err)
	}
	if len(keys) == 0 {
		return nil, "", ErrNotFound
	}
	sort.Strings(keys)
	key := keys[0]

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("s3 get %s: %w", key, err)
	}
	return resp.Body, filepath.Base(key), nil
}

func (s *S3Store) GetMarkdown(ctx context.Context, documentUID string) (string, error) {
	key := documentUID + "/output/output.md"
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) || strings.Contains(err.Error(), "NotFound") {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read markdown body: %w", err)
	}
	return string(body), nil
}

// relKey converts a path inside the working directory into the object key
// suffix, normalized to forward slashes.
func relKey(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(rel, string(filepath.Separator), "/"), nil
}

func (s *S3Store) listPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (s *S3Store) deletePrefix(ctx context.Context, prefix string) error {
	keys, err := s.listPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}
