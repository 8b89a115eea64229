package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/nicauth/internal/form"
	"github.com/specialistvlad/nicauth/internal/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, tokenstore.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, tokenstore.DefaultKey, cfg.TokenKey)
	assert.Equal(t, form.IdentityEmail, cfg.Registration.Identity)
	assert.False(t, cfg.Registration.CollectNIC)
	assert.Zero(t, cfg.Timeout)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.BaseURL = "ftp://example.com"
	cfg.Timeout = -time.Second
	cfg.Storage.Backend = "s3"
	cfg.TokenKey = ""
	cfg.Registration.Identity = "phone"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"base URL", "timeout", "storage backend", "token key", "registration identity"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_NoSources(t *testing.T) {
	cfg, err := Load(context.Background(), Sources{LookupEnv: envMap(nil)})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "nicauth.hcl", `
server {
  base_url = "https://auth.example.com"
  timeout  = "5s"
}

storage {
  backend    = "redis"
  redis_addr = "localhost:6379"
  redis_db   = 2
  key        = "session"
}

registration {
  identity    = "username"
  collect_nic = true
}
`)

	cfg, err := Load(context.Background(), Sources{File: path, LookupEnv: envMap(nil)})
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, tokenstore.BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "localhost:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 2, cfg.Storage.RedisDB)
	assert.Equal(t, "session", cfg.TokenKey)
	assert.Equal(t, form.IdentityUsername, cfg.Registration.Identity)
	assert.True(t, cfg.Registration.CollectNIC)
}

func TestLoad_FileEnvFunction(t *testing.T) {
	path := writeFile(t, "nicauth.hcl", `
server {
  base_url = env("AUTH_HOST", "http://fallback:9000")
}
storage {
  path = env("STORE_FILE")
}
`)

	t.Run("set", func(t *testing.T) {
		cfg, err := Load(context.Background(), Sources{
			File:      path,
			LookupEnv: envMap(map[string]string{"AUTH_HOST": "http://from-env:8080", "STORE_FILE": "/tmp/x.json"}),
		})
		require.NoError(t, err)
		assert.Equal(t, "http://from-env:8080", cfg.BaseURL)
		assert.Equal(t, "/tmp/x.json", cfg.Storage.Path)
	})

	t.Run("unset falls back", func(t *testing.T) {
		cfg, err := Load(context.Background(), Sources{File: path, LookupEnv: envMap(nil)})
		require.NoError(t, err)
		assert.Equal(t, "http://fallback:9000", cfg.BaseURL)
		assert.Equal(t, "", cfg.Storage.Path)
	})
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.hcl")

	_, err := Load(context.Background(), Sources{File: missing, LookupEnv: envMap(nil)})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := Load(context.Background(), Sources{File: missing, FileOptional: true, LookupEnv: envMap(nil)})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestLoad_BadFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "syntax", content: `server {`, wantErr: "failed to parse HCL file"},
		{name: "unknown attribute", content: "server {\n  port = 1\n}\n", wantErr: "failed to decode HCL file"},
		{name: "bad timeout", content: "server {\n  timeout = \"soon\"\n}\n", wantErr: "server.timeout"},
		{name: "bad identity", content: "registration {\n  identity = \"phone\"\n}\n", wantErr: "registration identity"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "bad.hcl", tc.content)
			_, err := Load(context.Background(), Sources{File: path, LookupEnv: envMap(nil)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "nicauth.hcl", "server {\n  base_url = \"http://file:1\"\n}\n")

	cfg, err := Load(context.Background(), Sources{
		File: path,
		LookupEnv: envMap(map[string]string{
			EnvServer:           "http://env:2",
			EnvTimeout:          "750ms",
			EnvStorage:          "memory",
			EnvStoragePath:      "/tmp/tokens.json",
			EnvRedisAddr:        "redis:6379",
			EnvTokenKey:         "jwt",
			EnvRegisterIdentity: "username",
			EnvRegisterNIC:      "true",
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://env:2", cfg.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
	assert.Equal(t, tokenstore.BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/tokens.json", cfg.Storage.Path)
	assert.Equal(t, "redis:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, "jwt", cfg.TokenKey)
	assert.Equal(t, form.IdentityUsername, cfg.Registration.Identity)
	assert.True(t, cfg.Registration.CollectNIC)
}

func TestLoad_EmptyEnvIsIgnored(t *testing.T) {
	cfg, err := Load(context.Background(), Sources{LookupEnv: envMap(map[string]string{EnvServer: ""})})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestLoad_BadEnv(t *testing.T) {
	_, err := Load(context.Background(), Sources{LookupEnv: envMap(map[string]string{EnvRegisterNIC: "maybe"})})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvRegisterNIC)

	_, err = Load(context.Background(), Sources{LookupEnv: envMap(map[string]string{EnvTimeout: "later"})})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvTimeout)
}

func TestLoad_EnvFile(t *testing.T) {
	const key = "NICAUTH_TEST_DOTENV_SERVER"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	envFile := writeFile(t, ".env", key+"=http://dotenv:7000\n")
	cfgFile := writeFile(t, "nicauth.hcl", "server {\n  base_url = env(\""+key+"\")\n}\n")

	cfg, err := Load(context.Background(), Sources{File: cfgFile, EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv:7000", cfg.BaseURL)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(context.Background(), Sources{
		EnvFile:   filepath.Join(t.TempDir(), ".env"),
		LookupEnv: envMap(nil),
	})
	require.NoError(t, err)
}

func TestLoad_OverridesWin(t *testing.T) {
	server := "http://flag:3"
	timeout := 2 * time.Second
	backend := "memory"
	identity := "username"
	collect := true

	cfg, err := Load(context.Background(), Sources{
		LookupEnv: envMap(map[string]string{EnvServer: "http://env:2", EnvStorage: "redis"}),
		Overrides: Overrides{
			BaseURL:    &server,
			Timeout:    &timeout,
			Storage:    &backend,
			Identity:   &identity,
			CollectNIC: &collect,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "http://flag:3", cfg.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, tokenstore.BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, form.IdentityUsername, cfg.Registration.Identity)
	assert.True(t, cfg.Registration.CollectNIC)
}

func TestLoad_OverridesAreValidated(t *testing.T) {
	bad := "nope"
	_, err := Load(context.Background(), Sources{
		LookupEnv: envMap(nil),
		Overrides: Overrides{Storage: &bad},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage backend")
}
