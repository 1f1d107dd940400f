package s3storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"course-share/internal/config"
	"course-share/internal/domain"
)

const folderSeparator = "/"

// S3Storage шлюз к S3-совместимому бэкенду. Папка представляется
// префиксом ключа с завершающим "/" и нулевым объектом-маркером;
// id папки и id файла — это их ключи, для вызывающего кода они
// непрозрачные строки.
type S3Storage struct {
	client    *s3.Client
	bucket    string
	accountID string
}

func NewS3Storage(ctx context.Context, cfg config.StorageConfig) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to build backend config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		// path-style нужен для MinIO и подобных endpoint-ов.
		o.UsePathStyle = true
	})

	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		accountID: cfg.AccountID,
	}, nil
}

// CheckAccess проверка доступности бэкенда при старте. Заодно сверяет
// владельца бакета с настроенным account id.
func (s *S3Storage) CheckAccess(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket:              aws.String(s.bucket),
		ExpectedBucketOwner: aws.String(s.accountID),
	})
	if err != nil {
		return fmt.Errorf("bucket '%s' is not accessible: %w", s.bucket, domain.ErrBackend)
	}
	return nil
}

// FindOrCreateFolder ищет дочернюю папку по точному имени, при
// отсутствии создаёт. Идемпотентна; одновременные вызовы могут
// создать маркер дважды, что для объектного хранилища безвредно
// (одинаковый ключ), а используется она только при старте.
func (s *S3Storage) FindOrCreateFolder(ctx context.Context, parentID, name string) (string, error) {
	folderID := folderKey(parentID, name)

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(folderID),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("folder lookup for '%s' failed: %w", name, domain.ErrBackend)
	}

	if out.KeyCount != nil && *out.KeyCount > 0 {
		return folderID, nil
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(folderID),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return "", fmt.Errorf("could not create folder '%s': %w", name, domain.ErrBackend)
	}

	logrus.WithFields(logrus.Fields{
		"folder":    name,
		"folder_id": folderID,
	}).Info("Created folder")

	return folderID, nil
}

// listObjects прямые потомки папки, в родном порядке бэкенда
// (лексикографическом), маркер самой папки исключается.
func (s *S3Storage) listObjects(ctx context.Context, folderID string) ([]types.Object, error) {
	var objects []types.Object
	var continuation *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(folderID),
			Delimiter:         aws.String(folderSeparator),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("listing '%s' failed: %w", folderID, domain.ErrBackend)
		}

		for _, obj := range out.Contents {
			if obj.Key == nil || *obj.Key == folderID {
				continue
			}
			objects = append(objects, obj)
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		continuation = out.NextContinuationToken
	}

	return objects, nil
}

// ListFiles список файлов папки в порядке, обратном родному порядку
// бэкенда: новые имена оказываются сверху.
func (s *S3Storage) ListFiles(ctx context.Context, folderID string) ([]domain.RemoteFile, error) {
	objects, err := s.listObjects(ctx, folderID)
	if err != nil {
		return nil, err
	}

	files := make([]domain.RemoteFile, 0, len(objects))
	for i := len(objects) - 1; i >= 0; i-- {
		files = append(files, domain.RemoteFile{
			ID:   *objects[i].Key,
			Name: path.Base(*objects[i].Key),
		})
	}

	return files, nil
}

func (s *S3Storage) ListRecentFiles(ctx context.Context, folderID string, since time.Time) ([]domain.RecentFile, error) {
	objects, err := s.listObjects(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var files []domain.RecentFile
	for _, obj := range objects {
		if obj.LastModified == nil || obj.LastModified.Before(since) {
			continue
		}
		files = append(files, domain.RecentFile{
			ID:       *obj.Key,
			Name:     path.Base(*obj.Key),
			Modified: *obj.LastModified,
		})
	}

	return files, nil
}

func (s *S3Storage) UploadContent(ctx context.Context, folderID, name string, data []byte) (string, error) {
	fileID := folderID + name

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fileID),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(domain.MIMEZip),
	})
	if err != nil {
		return "", fmt.Errorf("put of '%s' failed: %w", name, domain.ErrUpload)
	}

	return fileID, nil
}

func (s *S3Storage) DownloadContent(ctx context.Context, fileID string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("no file with id '%s': %w", fileID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get of '%s' failed: %w", fileID, domain.ErrBackend)
	}
	defer func() {
		if closeErr := out.Body.Close(); closeErr != nil {
			logrus.Warnf("Failed to close object body for %s: %v", fileID, closeErr)
		}
	}()

	data, readErr := io.ReadAll(out.Body)
	if readErr != nil {
		return nil, fmt.Errorf("reading '%s' failed: %w", fileID, domain.ErrBackend)
	}

	return data, nil
}

// UpdateContent замена содержимого по месту: ключ (и значит id файла)
// сохраняется.
func (s *S3Storage) UpdateContent(ctx context.Context, fileID string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fileID),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(domain.MIMEZip),
	})
	if err != nil {
		return fmt.Errorf("update of '%s' failed: %w", fileID, domain.ErrBackend)
	}
	return nil
}

// DeleteFile мягкая ошибка: неудача логируется и возвращается false,
// наверх исключение не поднимается.
func (s *S3Storage) DeleteFile(ctx context.Context, fileID string) bool {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		logrus.Errorf("Failed to delete %s: %v", fileID, err)
		return false
	}
	return true
}

func (s *S3Storage) GetMetadata(ctx context.Context, fileID string) (domain.FileMetadata, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		if isNotFound(err) {
			return domain.FileMetadata{}, fmt.Errorf("no file with id '%s': %w", fileID, domain.ErrNotFound)
		}
		return domain.FileMetadata{}, fmt.Errorf("head of '%s' failed: %w", fileID, domain.ErrBackend)
	}

	meta := domain.FileMetadata{
		Name:     path.Base(fileID),
		ParentID: parentFolderID(fileID),
	}
	if out.LastModified != nil {
		meta.Modified = *out.LastModified
	}

	return meta, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

func folderKey(parentID, name string) string {
	parent := parentID
	if parent != "" && !strings.HasSuffix(parent, folderSeparator) {
		parent += folderSeparator
	}
	return parent + name + folderSeparator
}

func parentFolderID(fileID string) string {
	idx := strings.LastIndex(fileID, folderSeparator)
	if idx < 0 {
		return ""
	}
	return fileID[:idx+1]
}
