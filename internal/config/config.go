// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath - путь к файлу конфигурации по умолчанию
const DefaultPath = "~/.quantum-radio.yaml"

// Переменные окружения, переопределяющие значения из файла
const (
	EnvAPIURL   = "RADIO_API_URL"
	EnvEngine   = "RADIO_ENGINE"
	EnvLogLevel = "RADIO_LOG_LEVEL"
)

// Движки воспроизведения
const (
	EngineMpv    = "mpv"
	EngineStream = "stream"
)

// LogConfig настройки логирования
type LogConfig struct {
	Write bool   `yaml:"write"`
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir"`
}

// Config структура для хранения конфигурации приложения
type Config struct {
	APIBaseURL     string        `yaml:"api_base_url" validate:"required,url"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`
	PageSize       int           `yaml:"page_size" validate:"min=1,max=500"`
	Volume         float64       `yaml:"volume" validate:"gte=0,lte=1"`

	Engine       string `yaml:"engine" validate:"oneof=mpv stream"`
	MpvPath      string `yaml:"mpv_path" validate:"required_if=Engine mpv"`
	AudioBaseURL string `yaml:"audio_base_url" validate:"omitempty,url"`

	CacheDir    string        `yaml:"cache_dir"`
	CacheTTL    time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	DownloadDir string        `yaml:"download_dir"`

	AwsBucketName string `yaml:"aws_bucket_name"`
	AwsAccessKey  string `yaml:"aws_access_key"`
	AwsSecretKey  string `yaml:"aws_secret_key"`
	AwsRegion     string `yaml:"aws_region"`
	AwsEndpoint   string `yaml:"aws_endpoint"`

	Log LogConfig `yaml:"log"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		APIBaseURL:     "http://localhost:8000/api",
		RequestTimeout: 15 * time.Second,
		PageSize:       24,
		Volume:         1,
		Engine:         EngineMpv,
		MpvPath:        "mpv",
		CacheDir:       "~/.cache/quantum-radio",
		CacheTTL:       24 * time.Hour,
		DownloadDir:    "~/Downloads",
		Log: LogConfig{
			Level: "info",
			Dir:   "~/.cache/quantum-radio/logs",
		},
	}
}

// S3Enabled сообщает, настроено ли зеркалирование аудио в S3
func (c *Config) S3Enabled() bool {
	return c.AwsBucketName != "" && c.AwsRegion != ""
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл не является ошибкой: используются значения по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	config := Default()

	data, err := os.ReadFile(expandHome(filePath, home))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
	}

	applyEnv(config)

	// Раскрываем тильду в путях
	config.CacheDir = expandHome(config.CacheDir, home)
	config.DownloadDir = expandHome(config.DownloadDir, home)
	config.Log.Dir = expandHome(config.Log.Dir, home)
	config.APIBaseURL = strings.TrimRight(config.APIBaseURL, "/")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv переопределяет значения из переменных окружения
func applyEnv(config *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		config.APIBaseURL = v
	}
	if v := os.Getenv(EnvEngine); v != "" {
		config.Engine = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Log.Level = v
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate проверяет корректность значений конфигурации
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("ошибка проверки конфигурации: %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, describeField(fe))
	}
	return fmt.Errorf("некорректная конфигурация: %s", strings.Join(messages, "; "))
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s: обязательное поле", fe.Field())
	case "url":
		return fmt.Sprintf("%s: ожидается URL, получено %q", fe.Field(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: допустимые значения: %s", fe.Field(), fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s: значение должно быть не меньше %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s: значение должно быть не больше %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s: не прошло проверку %s", fe.Field(), fe.Tag())
	}
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~") {
		return home + strings.TrimPrefix(path, "~")
	}
	return path
}
