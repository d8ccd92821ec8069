package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// mockUploader мок для S3 uploader
type mockUploader struct {
	s3manageriface.UploaderAPI
	uploadFunc func(input *s3manager.UploadInput) (*s3manager.UploadOutput, error)
}

func (m *mockUploader) UploadWithContext(_ aws.Context, input *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return m.uploadFunc(input)
}

// mockClient мок для S3 клиента
type mockClient struct {
	s3iface.S3API
	headErr error
}

func (m *mockClient) HeadObjectWithContext(_ aws.Context, _ *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	if m.headErr != nil {
		return nil, m.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func testConfig() *Config {
	return &Config{
		Region:     "us-east-1",
		Endpoint:   "https://storage.example.com/",
		BucketName: "radio-audio",
	}
}

func TestUploadFile(t *testing.T) {
	var got *s3manager.UploadInput
	var body string
	up := &mockUploader{uploadFunc: func(input *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
		got = input
		data, _ := io.ReadAll(input.Body)
		body = string(data)
		return &s3manager.UploadOutput{}, nil
	}}

	u := newUploader(testConfig(), up, &mockClient{})
	url, err := u.UploadFile(context.Background(), strings.NewReader("audio"), "dQw4w9WgXcQ.mp3", Object{
		ContentType: "audio/mp4",
		Metadata:    map[string]string{"title": "Quantum Dreams", "channel": "Синт Лаб"},
	})
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}

	if url != "https://storage.example.com/radio-audio/dQw4w9WgXcQ.mp3" {
		t.Errorf("Неожиданный URL: %s", url)
	}
	if aws.StringValue(got.Bucket) != "radio-audio" || aws.StringValue(got.Key) != "dQw4w9WgXcQ.mp3" {
		t.Errorf("Неверные bucket/key: %s/%s", aws.StringValue(got.Bucket), aws.StringValue(got.Key))
	}
	if aws.StringValue(got.ContentType) != "audio/mp4" {
		t.Errorf("Неверный Content-Type: %s", aws.StringValue(got.ContentType))
	}
	if body != "audio" {
		t.Errorf("Неверное содержимое: %s", body)
	}
	if v := aws.StringValue(got.Metadata["title"]); v != "Quantum Dreams" {
		t.Errorf("ASCII значения не должны кодироваться: %s", v)
	}
	if v := aws.StringValue(got.Metadata["channel"]); !strings.HasPrefix(v, "=?utf-8?q?") {
		t.Errorf("Не-ASCII значения должны кодироваться по RFC 2047: %s", v)
	}
}

func TestUploadFileError(t *testing.T) {
	up := &mockUploader{uploadFunc: func(*s3manager.UploadInput) (*s3manager.UploadOutput, error) {
		return nil, awserr.New("AccessDenied", "denied", nil)
	}}

	u := newUploader(testConfig(), up, &mockClient{})
	_, err := u.UploadFile(context.Background(), strings.NewReader("audio"), "key.mp3", Object{})
	if err == nil || !strings.Contains(err.Error(), "ошибка загрузки") {
		t.Errorf("Ожидалась ошибка загрузки, получено: %v", err)
	}
}

func TestExists(t *testing.T) {
	client := &mockClient{}
	u := newUploader(testConfig(), &mockUploader{}, client)

	ok, err := u.Exists(context.Background(), "dQw4w9WgXcQ.mp3")
	if err != nil || !ok {
		t.Errorf("Объект должен существовать: ok=%v err=%v", ok, err)
	}

	client.headErr = awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), 404, "req-1")
	ok, err = u.Exists(context.Background(), "dQw4w9WgXcQ.mp3")
	if err != nil || ok {
		t.Errorf("404 означает отсутствие объекта: ok=%v err=%v", ok, err)
	}

	client.headErr = awserr.NewRequestFailure(awserr.New("Forbidden", "Forbidden", nil), 403, "req-2")
	if _, err := u.Exists(context.Background(), "dQw4w9WgXcQ.mp3"); err == nil {
		t.Error("Ошибка доступа должна возвращаться")
	}
}

func TestURLWithoutEndpoint(t *testing.T) {
	u := newUploader(&Config{Region: "eu-west-1", BucketName: "radio"}, &mockUploader{}, &mockClient{})
	if got := u.URL("a.mp3"); got != "https://radio.s3.eu-west-1.amazonaws.com/a.mp3" {
		t.Errorf("Неожиданный URL: %s", got)
	}
}

func TestNewUploader(t *testing.T) {
	u, err := NewUploader(testConfig())
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if u.s3Uploader == nil || u.s3Client == nil {
		t.Error("Клиенты S3 должны быть созданы")
	}
}
