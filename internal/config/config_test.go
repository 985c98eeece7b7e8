package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty working directory with no BTG_* overrides
func isolate(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, key := range []string{"BTG_API_URL", "BTG_LOG_LEVEL", "BTG_LOG_FORMAT", "BTG_CREDENTIAL_STORE", "BTG_CREDENTIALS_PATH", "BTG_REQUEST_TIMEOUT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return t.TempDir()
}

func TestManager_LoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := NewManagerWithPath(dir).Load()

	require.NoError(t, err)
	assert.Equal(t, &Config{
		APIURL:          DefaultAPIURL,
		LogLevel:        "warn",
		LogFormat:       "console",
		CredentialStore: StoreFile,
		CredentialsPath: filepath.Join(dir, CredentialsFileName),
		RequestTimeout:  30 * time.Second,
	}, cfg)
}

func TestManager_LoadConfigFile(t *testing.T) {
	dir := isolate(t)
	yaml := "api_url: http://localhost:8000/\nlog_level: debug\ncredential_store: keyring\nrequest_timeout: 5s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600))

	cfg, err := NewManagerWithPath(dir).Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, StoreKeyring, cfg.CredentialStore)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestManager_EnvironmentOverridesFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api_url: http://localhost:8000\n"), 0600))
	t.Setenv("BTG_API_URL", "http://staging.example.com")
	t.Setenv("BTG_CREDENTIAL_STORE", "memory")

	cfg, err := NewManagerWithPath(dir).Load()

	require.NoError(t, err)
	assert.Equal(t, "http://staging.example.com", cfg.APIURL)
	assert.Equal(t, StoreMemory, cfg.CredentialStore)
}

func TestManager_LoadDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("BTG_LOG_FORMAT=json\n"), 0600))

	cfg, err := NewManagerWithPath(dir).Load()

	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestManager_LoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown store", yaml: "credential_store: vault\n"},
		{name: "zero timeout", yaml: "request_timeout: 0s\n"},
		{name: "malformed yaml", yaml: "api_url: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.yaml), 0600))

			_, err := NewManagerWithPath(dir).Load()
			assert.Error(t, err)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHome("~/.btg/credentials.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".btg", "credentials.json"), got)

	got, err = expandHome("/tmp/credentials.json")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/credentials.json", got)
}
