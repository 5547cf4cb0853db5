package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "gym_app", cfg.Database.Name)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 5*time.Minute, cfg.Booking.HoldTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, int64(5<<20), cfg.S3.MaxUploadBytes)
	assert.False(t, cfg.S3.Enabled())
	assert.False(t, cfg.Mail.Enabled())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
database:
  name: gym_test
booking:
  hold_ttl: 2m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_NAME", "gym_env")
	t.Setenv("S3_BUCKET_NAME", "images")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "gym_env", cfg.Database.Name, "env wins over file")
	assert.Equal(t, 2*time.Minute, cfg.Booking.HoldTTL)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.True(t, cfg.S3.Enabled())
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MAIL_API_KEY=re_123\nMAIL_FROM=gym@example.com\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("MAIL_API_KEY")
		os.Unsetenv("MAIL_FROM")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Mail.Enabled())
}
