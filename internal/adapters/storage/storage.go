package storage

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"checkinflow/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// LocalConfig holds configuration for the local directory provider.
type LocalConfig struct {
	Dir string
	// BaseURL is the public origin serving /files/.
	BaseURL string
}

// S3Config holds configuration for AWS S3.
type S3Config struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	Bucket             string
	Endpoint           string
	InsecureSkipVerify bool
}

// Config holds configuration for creating a file storage.
type Config struct {
	Provider string
	Local    LocalConfig
	S3       S3Config
}

// NewFileStorage creates a storage from config. Provider "s3" uses AWS S3; "local" or unknown writes to a directory.
func NewFileStorage(config Config) (domain.FileStorage, error) {
	switch config.Provider {
	case "s3":
		s3Config := config.S3
		if s3Config.Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires a bucket name")
		}
		if s3Config.InsecureSkipVerify {
			log.Printf("[STORAGE] WARNING: TLS certificate verification is disabled for S3. Use only in development.")
		}
		httpClient := &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: s3Config.InsecureSkipVerify,
					MinVersion:         tls.VersionTLS12,
				},
			},
		}
		awsCfg := aws.Config{
			Region: s3Config.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					s3Config.AccessKeyID,
					s3Config.SecretAccessKey,
					"",
				),
			),
			HTTPClient: httpClient,
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if s3Config.Endpoint != "" {
				o.BaseEndpoint = aws.String(s3Config.Endpoint)
				o.UsePathStyle = true
			}
		})
		return &s3Storage{
			client:   client,
			bucket:   s3Config.Bucket,
			region:   s3Config.Region,
			endpoint: strings.TrimRight(s3Config.Endpoint, "/"),
		}, nil
	case "local":
		return newLocalStorage(config.Local)
	default:
		log.Printf("[STORAGE] Unknown storage provider %q, using local", config.Provider)
		return newLocalStorage(config.Local)
	}
}

type s3Storage struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

func (s *s3Storage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

type localStorage struct {
	dir     string
	baseURL string
}

func newLocalStorage(config LocalConfig) (*localStorage, error) {
	dir := config.Dir
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &localStorage{dir: dir, baseURL: strings.TrimRight(config.BaseURL, "/")}, nil
}

func (s *localStorage) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	clean := filepath.Clean("/" + key)
	path := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return s.baseURL + "/files" + filepath.ToSlash(clean), nil
}
