package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	cfg "github.com/mchavez27/melipanel/configs"
)

// StorageService uploads gallery images to the R2 bucket serving the
// dashboard CDN.
type StorageService interface {
	UploadImage(ctx context.Context, file []byte) (string, error)
}

type storageService struct {
	config cfg.Config
}

func NewStorageService(config cfg.Config) StorageService {
	return &storageService{config: config}
}

func (s *storageService) client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.config.R2.AccessKey, s.config.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", s.config.R2.AccountID))
	}), nil
}

// UploadImage sniffs the file type, stores the image under a random key and
// returns its public URL.
func (s *storageService) UploadImage(ctx context.Context, file []byte) (string, error) {
	kind, err := filetype.Match(file)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	if !filetype.IsImage(file) {
		err = errors.New("file is not an image")
		slog.Info(err.Error())
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	key := fmt.Sprintf("images/%s.%s", id, kind.Extension)

	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(kind.MIME.Value),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return strings.TrimRight(s.config.R2.PublicURL, "/") + "/" + key, nil
}
