package chatprofile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/docfoundry/knowflow/internal/config"
	"github.com/docfoundry/knowflow/internal/models"
)

// MinioStore keeps profile bundles as objects under
// {profile_id}/profile.json and {profile_id}/files/{document_id}.md.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(ctx context.Context, env *config.Env) (*MinioStore, error) {
	endpoint := strings.TrimSpace(env.MinioEndpoint)
	accessKey := strings.TrimSpace(env.MinioAccessKey)
	secretKey := strings.TrimSpace(env.MinioSecretKey)
	bucket := strings.TrimSpace(env.MinioBucket)
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, fmt.Errorf("minio chat profile backend requires MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: env.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(checkCtx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(checkCtx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	log.Printf("chatprofile: connected to MinIO bucket %q", bucket)
	return &MinioStore{client: client, bucket: bucket}, nil
}

func (s *MinioStore) SaveProfile(ctx context.Context, profile models.ChatProfile, documents map[string]string) error {
	if profile.ID == "" {
		return fmt.Errorf("chat profile must have an id")
	}
	if err := s.removePrefix(ctx, profile.ID+"/"); err != nil {
		return fmt.Errorf("clean profile %s: %w", profile.ID, err)
	}

	raw, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}
	if err := s.put(ctx, profile.ID+"/profile.json", raw, "application/json"); err != nil {
		return fmt.Errorf("write profile descriptor %s: %w", profile.ID, err)
	}
	for docID, markdown := range documents {
		key := profile.ID + "/files/" + docID + ".md"
		if err := s.put(ctx, key, []byte(markdown), "text/markdown"); err != nil {
			return fmt.Errorf("write profile document %s/%s: %w", profile.ID, docID, err)
		}
	}
	return nil
}

func (s *MinioStore) DeleteProfile(ctx context.Context, profileID string) error {
	if _, err := s.GetProfile(ctx, profileID); err != nil {
		return err
	}
	return s.removePrefix(ctx, profileID+"/")
}

func (s *MinioStore) GetProfile(ctx context.Context, profileID string) (models.ChatProfile, error) {
	raw, err := s.get(ctx, profileID+"/profile.json")
	if err != nil {
		return models.ChatProfile{}, err
	}
	var profile models.ChatProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return models.ChatProfile{}, fmt.Errorf("decode profile %s: %w", profileID, err)
	}
	return profile, nil
}

func (s *MinioStore) ListProfiles(ctx context.Context) ([]models.ChatProfile, error) {
	var out []models.ChatProfile
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list profiles: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, "/profile.json") {
			continue
		}
		raw, err := s.get(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		var profile models.ChatProfile
		if err := json.Unmarshal(raw, &profile); err != nil {
			return nil, fmt.Errorf("decode %s: %w", obj.Key, err)
		}
		out = append(out, profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *MinioStore) GetDocument(ctx context.Context, profileID, documentID string) (string, error) {
	raw, err := s.get(ctx, profileID+"/files/"+documentID+".md")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *MinioStore) ListMarkdownFiles(ctx context.Context, profileID string) ([]NamedMarkdown, error) {
	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	out := make([]NamedMarkdown, 0, len(profile.Documents))
	for _, doc := range profile.Documents {
		markdown, err := s.GetDocument(ctx, profileID, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("list profile %s: document %s: %w", profileID, doc.ID, err)
		}
		out = append(out, NamedMarkdown{
			DocumentID:   doc.ID,
			DocumentName: doc.DocumentName,
			Markdown:     markdown,
		})
	}
	return out, nil
}

func (s *MinioStore) put(ctx context.Context, key string, data []byte, contentType string) error {
	putCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.client.PutObject(putCtx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (s *MinioStore) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return raw, nil
}

func (s *MinioStore) removePrefix(ctx context.Context, prefix string) error {
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return obj.Err
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", obj.Key, err)
		}
	}
	return nil
}

var _ Store = (*MinioStore)(nil)
