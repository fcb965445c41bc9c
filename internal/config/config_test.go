package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("BASIC_PASS", "secret")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "data.json", cfg.Storage.DataFile)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "master", cfg.Storage.GitHub.Branch)
}

func TestFromEnvRequiresPassword(t *testing.T) {
	t.Setenv("BASIC_PASS", "")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "BASIC_PASS")
}

func TestFromEnvParsesLists(t *testing.T) {
	t.Setenv("BASIC_PASS", "secret")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TIMEZONE", "Europe/Paris")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "Europe/Paris", cfg.Location.String())
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}, "TIMEZONE"},
		{"backend", map[string]string{"STORAGE_BACKEND": "floppy"}, "STORAGE_BACKEND"},
		{"postgres", map[string]string{"STORAGE_BACKEND": "postgres", "DATABASE_URL": ""}, "DATABASE_URL"},
		{"github", map[string]string{"STORAGE_BACKEND": "github", "GITHUB_TOKEN": ""}, "GITHUB_TOKEN"},
		{"redis", map[string]string{"STORAGE_BACKEND": "redis", "REDIS_ADDR": ""}, "REDIS_ADDR"},
		{"redis db", map[string]string{"REDIS_DB": "one"}, "REDIS_DB"},
		{"retention", map[string]string{"STORAGE_BACKEND": "sqlite", "REVISION_RETENTION": "-1"}, "REVISION_RETENTION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BASIC_PASS", "secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := FromEnv()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestFromEnvGitHubBackend(t *testing.T) {
	t.Setenv("BASIC_PASS", "secret")
	t.Setenv("STORAGE_BACKEND", "GitHub")
	t.Setenv("GITHUB_TOKEN", "token")
	t.Setenv("GITHUB_OWNER", "club")
	t.Setenv("GITHUB_REPO", "klask-data")
	t.Setenv("GITHUB_API_URL", "http://github.local/")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, BackendGitHub, cfg.Storage.Backend)
	assert.Equal(t, "http://github.local", cfg.Storage.GitHub.BaseURL)
}
