package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(values map[string]string) lookupFunc {
	return func(key string) string { return values[key] }
}

func TestParseDevelopmentDefaults(t *testing.T) {
	cfg, err := parse(lookup(nil))
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, defaultDevJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"admin"}, cfg.AdminUsernames)
	assert.Equal(t, int64(64<<10), cfg.WSMaxMessageBytes)
	assert.Equal(t, 256, cfg.WSSendBuffer)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestParseProductionRequiresSecrets(t *testing.T) {
	_, err := parse(lookup(map[string]string{"ENVIRONMENT": "production"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	_, err = parse(lookup(map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "s"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestParseValues(t *testing.T) {
	cfg, err := parse(lookup(map[string]string{
		"PORT":            "9000",
		"ALLOWED_ORIGINS": "https://a.example, https://b.example,",
		"ADMIN_USERNAMES": "root,ops",
		"JWT_TTL":         "2h",
		"POW_DIFFICULTY":  "3",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsAdminUsername("ops"))
	assert.False(t, cfg.IsAdminUsername("admin"))
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 3, cfg.PowDifficulty)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	for key, value := range map[string]string{
		"PORT":                 "80",
		"JWT_TTL":              "soon",
		"POW_DIFFICULTY":       "12",
		"WS_MAX_MESSAGE_BYTES": "0",
		"WS_SEND_BUFFER":       "x",
	} {
		_, err := parse(lookup(map[string]string{key: value}))
		assert.Error(t, err, key)
	}
}

func TestLoadConfigReadsYAMLDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relaychat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: \"9100\"\nADMIN_USERNAMES: boss\n"), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ADMIN_USERNAMES", "chief")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, []string{"chief"}, cfg.AdminUsernames, "environment wins over file")
}
