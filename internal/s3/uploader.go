// Package s3 загружает зеркалированное аудио в Amazon S3
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// Config содержит настройки для S3
type Config struct {
	Region     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	BucketName string
}

// Object описывает загружаемый объект
type Object struct {
	ContentType string
	Metadata    map[string]string
}

// Uploader обертка для S3 uploader
type Uploader struct {
	s3Uploader s3manageriface.UploaderAPI
	s3Client   s3iface.S3API
	config     *Config
}

// NewUploader создает новый S3 uploader
func NewUploader(config *Config) (*Uploader, error) {
	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
	}

	// Без ключей используется стандартная цепочка учетных данных AWS
	if config.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, "")
	}

	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AWS сессии: %w", err)
	}

	return newUploader(config, s3manager.NewUploader(sess), s3.New(sess)), nil
}

func newUploader(config *Config, uploader s3manageriface.UploaderAPI, client s3iface.S3API) *Uploader {
	return &Uploader{
		s3Uploader: uploader,
		s3Client:   client,
		config:     config,
	}
}

// UploadFile загружает данные из reader в S3 под ключом key
func (u *Uploader) UploadFile(ctx context.Context, reader io.Reader, key string, object Object) (string, error) {
	input := &s3manager.UploadInput{
		Bucket: aws.String(u.config.BucketName),
		Key:    aws.String(key),
		Body:   reader,
	}
	if object.ContentType != "" {
		input.ContentType = aws.String(object.ContentType)
	}
	if len(object.Metadata) > 0 {
		input.Metadata = encodeMetadata(object.Metadata)
	}

	if _, err := u.s3Uploader.UploadWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("ошибка загрузки: %w", err)
	}

	return u.URL(key), nil
}

// Exists проверяет, есть ли объект с ключом key
func (u *Uploader) Exists(ctx context.Context, key string) (bool, error) {
	_, err := u.s3Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.config.BucketName),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("ошибка проверки объекта в S3: %w", err)
}

// URL возвращает адрес объекта
func (u *Uploader) URL(key string) string {
	if u.config.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(u.config.Endpoint, "/"), u.config.BucketName, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.config.BucketName, u.config.Region, key)
}

// encodeMetadata кодирует не-ASCII значения по RFC 2047: S3 хранит
// пользовательские метаданные в заголовках
func encodeMetadata(metadata map[string]string) map[string]*string {
	encoded := make(map[string]*string, len(metadata))
	for k, v := range metadata {
		encoded[k] = aws.String(mime.QEncoding.Encode("utf-8", v))
	}
	return encoded
}
