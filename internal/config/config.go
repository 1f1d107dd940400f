package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port          int   `yaml:"port"`
	MaxUploadSize int64 `yaml:"max_upload_size"`
}

type StaticConfig struct {
	Path string `yaml:"path"`
}

type PendingConfig struct {
	Dir            string      `yaml:"dir"`
	DirPermissions os.FileMode `yaml:"dir_permissions"`
}

// StorageConfig параметры S3-совместимого бэкенда. Секреты не хранятся
// в yaml, только в переменных окружения, все обязательные.
type StorageConfig struct {
	AccountID    string `yaml:"-"`
	AccessKey    string `yaml:"-"`
	SecretKey    string `yaml:"-"`
	Endpoint     string `yaml:"-"`
	Region       string `yaml:"-"`
	Bucket       string `yaml:"-"`
	RootFolderID string `yaml:"-"`
}

type AdminConfig struct {
	Password string `yaml:"-"`
}

type Messages struct {
	TemplateError       string `yaml:"template_error"`
	RenderError         string `yaml:"render_error"`
	InternalError       string `yaml:"internal_error"`
	SemesterNotFound    string `yaml:"semester_not_found"`
	InvalidFileParam    string `yaml:"invalid_file_param"`
	RetentionExpired    string `yaml:"retention_expired"`
	RetentionWindowNote string `yaml:"retention_window_note"`
}

type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Static   StaticConfig  `yaml:"static"`
	Pending  PendingConfig `yaml:"pending"`
	Messages Messages      `yaml:"messages"`
	Storage  StorageConfig `yaml:"-"`
	Admin    AdminConfig   `yaml:"-"`
}

func LoadConfig(filename string) *Config {
	cfg, err := LoadConfigWithError(filename)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func LoadConfigWithError(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	// абсолютные пути для стабильности, независимо от рабочего каталога.
	paths := map[string]*string{
		"static path": &cfg.Static.Path,
		"pending dir": &cfg.Pending.Dir,
	}

	for name, path := range paths {
		absPath, absErr := filepath.Abs(*path)
		if absErr != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", name, absErr)
		}
		*path = absPath
	}

	if envErr := loadEnv(&cfg); envErr != nil {
		return nil, envErr
	}

	if validationErr := validateConfig(&cfg); validationErr != nil {
		return nil, validationErr
	}

	return &cfg, nil
}

// loadEnv читает обязательные переменные окружения: реквизиты бэкенда,
// пароль администратора и корневую папку. Отсутствие любой из них — фатально.
func loadEnv(cfg *Config) error {
	required := map[string]*string{
		"S3_ACCOUNT_ID":  &cfg.Storage.AccountID,
		"S3_ACCESS_KEY":  &cfg.Storage.AccessKey,
		"S3_SECRET_KEY":  &cfg.Storage.SecretKey,
		"S3_ENDPOINT":    &cfg.Storage.Endpoint,
		"S3_REGION":      &cfg.Storage.Region,
		"S3_BUCKET":      &cfg.Storage.Bucket,
		"ROOT_FOLDER_ID": &cfg.Storage.RootFolderID,
		"ADMIN_PASSWD":   &cfg.Admin.Password,
	}

	for name, dst := range required {
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			return validationError{field: name, msg: "environment variable is required"}
		}
		*dst = value
	}

	return nil
}

type validationError struct {
	field string
	msg   string
}

func (e validationError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.msg)
}

func validateConfig(cfg *Config) error {
	type validator func() error

	validators := []validator{
		func() error { return validateRequiredString("static.path", cfg.Static.Path) },
		func() error { return validateRequiredString("pending.dir", cfg.Pending.Dir) },
		func() error { return validatePort(cfg.Server.Port) },
		func() error { return validatePositiveInt64("server.max_upload_size", cfg.Server.MaxUploadSize) },
	}

	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}

	return nil
}

func validateRequiredString(field, value string) error {
	if value == "" {
		return validationError{field: field, msg: "is required"}
	}
	return nil
}

func validatePositiveInt64(field string, value int64) error {
	if value <= 0 {
		return validationError{field: field, msg: "must be greater than 0"}
	}
	return nil
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return validationError{
			field: "server.port",
			msg:   fmt.Sprintf("must be between 1 and 65535, got %d", port),
		}
	}
	return nil
}
