package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  port: 8080
  max_upload_size: 53477376
static:
  path: ./static
pending:
  dir: ./pending_uploads
  dir_permissions: 0o755
messages:
  internal_error: "Internal server error"
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("S3_ACCOUNT_ID", "acct-1")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")
	t.Setenv("S3_ENDPOINT", "http://127.0.0.1:9000")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("S3_BUCKET", "courses")
	t.Setenv("ROOT_FOLDER_ID", "courses-root/")
	t.Setenv("ADMIN_PASSWD", "hunter2")
}

func TestLoadConfigWithError(t *testing.T) {
	t.Run("valid config and environment", func(t *testing.T) {
		setRequiredEnv(t)
		cfg, err := LoadConfigWithError(writeConfigFile(t, validYAML))
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, int64(53477376), cfg.Server.MaxUploadSize)
		assert.True(t, filepath.IsAbs(cfg.Static.Path))
		assert.True(t, filepath.IsAbs(cfg.Pending.Dir))
		assert.Equal(t, "hunter2", cfg.Admin.Password)
		assert.Equal(t, "courses-root/", cfg.Storage.RootFolderID)
		assert.Equal(t, "Internal server error", cfg.Messages.InternalError)
	})

	t.Run("missing config file", func(t *testing.T) {
		setRequiredEnv(t)
		_, err := LoadConfigWithError(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		setRequiredEnv(t)
		_, err := LoadConfigWithError(writeConfigFile(t, "server: ["))
		assert.Error(t, err)
	})

	t.Run("every backend variable is mandatory", func(t *testing.T) {
		vars := []string{
			"S3_ACCOUNT_ID", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_ENDPOINT",
			"S3_REGION", "S3_BUCKET", "ROOT_FOLDER_ID", "ADMIN_PASSWD",
		}

		for _, name := range vars {
			t.Run(name, func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv(name, "")

				_, err := LoadConfigWithError(writeConfigFile(t, validYAML))
				require.Error(t, err)
				assert.Contains(t, err.Error(), name)
			})
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		setRequiredEnv(t)
		bad := `
server:
  port: 70000
  max_upload_size: 1024
static:
  path: ./static
pending:
  dir: ./pending
`
		_, err := LoadConfigWithError(writeConfigFile(t, bad))
		assert.ErrorContains(t, err, "server.port")
	})

	t.Run("upload size must be positive", func(t *testing.T) {
		setRequiredEnv(t)
		bad := `
server:
  port: 8080
  max_upload_size: 0
static:
  path: ./static
pending:
  dir: ./pending
`
		_, err := LoadConfigWithError(writeConfigFile(t, bad))
		assert.ErrorContains(t, err, "server.max_upload_size")
	})
}
