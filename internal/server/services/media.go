package services

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/server/auth"
	sc "github.com/dmitrijs2005/turismap/internal/server/config"
	"github.com/google/uuid"
)

// MediaKeyPrefix is the root of every object key handed out.
const MediaKeyPrefix = "media/"

var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

type presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// MediaService hands out presigned URLs so clients move image bytes
// straight to object storage.
type MediaService struct {
	presigner presigner
	bucket    string
	validity  time.Duration
	now       func() time.Time
}

func NewMediaService(ctx context.Context, cfg *sc.Config) (*MediaService, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	validity := cfg.PresignValidityDuration
	if validity <= 0 {
		validity = 15 * time.Minute
	}
	return &MediaService{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.S3Bucket,
		validity:  validity,
		now:       time.Now,
	}, nil
}

// storageKey files uploads under the owner and the upload date.
func (s *MediaService) storageKey(userID, contentType string) string {
	d := s.now().UTC()
	ext := ""
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		ext = exts[0]
	}
	return fmt.Sprintf("%s%s/%04d/%02d/%02d/%s%s", MediaKeyPrefix, userID, d.Year(), d.Month(), d.Day(), uuid.NewString(), ext)
}

// PresignPut returns a fresh object key and a URL the caller can PUT the
// object to.
func (s *MediaService) PresignPut(ctx context.Context, caller auth.Identity, contentType string) (string, string, error) {
	if caller.UserID == "" {
		return "", "", common.ErrUnauthorized
	}

	key := s.storageKey(caller.UserID, contentType)
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := s.presigner.PresignPutObject(ctx, in, s3.WithPresignExpires(s.validity))
	if err != nil {
		return "", "", fmt.Errorf("presign put: %w", err)
	}
	return key, req.URL, nil
}

// PresignGet returns a download URL for a key issued by PresignPut.
func (s *MediaService) PresignGet(ctx context.Context, caller auth.Identity, key string) (string, error) {
	if caller.UserID == "" {
		return "", common.ErrUnauthorized
	}
	if !validMediaKey(key) {
		return "", fmt.Errorf("%w: bad media key %q", common.ErrValidation, key)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.validity))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

func validMediaKey(key string) bool {
	if !strings.HasPrefix(key, MediaKeyPrefix) {
		return false
	}
	return path.Clean(key) == key
}
