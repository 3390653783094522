package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"resumescan/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	strings map[string]string
	err     error
}

func (f fakeSecrets) GetStringSecret(path, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.strings[path+"#"+key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	return v, nil
}

func (f fakeSecrets) GetStringSliceSecret(path, key string) ([]string, error) {
	v, err := f.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	if v == "" {
		return []string{}, nil
	}
	return splitAndTrim(v), nil
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseKVv2(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		secret, err := parseKVv2(map[string]any{
			"data":     map[string]any{"api_key": "abc"},
			"metadata": map[string]any{"version": "3"},
		}, "p")
		require.NoError(t, err)
		assert.Equal(t, int64(3), secret.Version)
		assert.Equal(t, "abc", secret.Data["api_key"])
	})

	t.Run("missing data", func(t *testing.T) {
		_, err := parseKVv2(map[string]any{"metadata": map[string]any{"version": 1}}, "p")
		assert.ErrorContains(t, err, "missing 'data' field")
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := parseKVv2(map[string]any{"data": map[string]any{}, "metadata": map[string]any{}}, "p")
		assert.ErrorContains(t, err, "missing 'version' field")
	})
}

func TestApplyGeminiKeyToConfig(t *testing.T) {
	config := &Config{AI: AIConfig{Judge: OperationAIConfig{APIKey: "judge-key"}}}

	applyGeminiKeyToConfig(config, "vault-key")

	assert.Equal(t, "vault-key", config.AI.APIKey)
	assert.Equal(t, "vault-key", config.AI.Keywords.APIKey)
	assert.Equal(t, "vault-key", config.AI.Suggest.APIKey)
	assert.Equal(t, "judge-key", config.AI.Judge.APIKey) // existing keys are kept
}

func TestApplySecrets(t *testing.T) {
	logger := errors.NewNopLogger()

	t.Run("all secrets applied", func(t *testing.T) {
		config := &Config{Vault: VaultConfig{Secrets: VaultSecrets{
			APIKeys:     "secret/data/api",
			GeminiKey:   "secret/data/gemini",
			DatabaseURL: "secret/data/db",
		}}}
		client := fakeSecrets{strings: map[string]string{
			"secret/data/api#keys":       "k1, k2 ,k3",
			"secret/data/gemini#api_key": "gem",
			"secret/data/db#url":         "postgres://u:p@db/resumescan",
		}}

		require.NoError(t, applySecrets(client, config, logger))
		assert.Equal(t, []string{"k1", "k2", "k3"}, config.Server.APIKeys)
		assert.Equal(t, "gem", config.AI.APIKey)
		assert.Equal(t, "postgres://u:p@db/resumescan", config.Database.URL)
	})

	t.Run("empty paths are skipped", func(t *testing.T) {
		config := &Config{Database: DatabaseConfig{URL: "postgres://local"}}
		require.NoError(t, applySecrets(fakeSecrets{err: fmt.Errorf("should not be called")}, config, logger))
		assert.Equal(t, "postgres://local", config.Database.URL)
	})

	t.Run("read failure is returned", func(t *testing.T) {
		config := &Config{Vault: VaultConfig{Secrets: VaultSecrets{DatabaseURL: "secret/data/db"}}}
		err := applySecrets(fakeSecrets{err: fmt.Errorf("permission denied")}, config, logger)
		assert.ErrorContains(t, err, "failed to load database URL from vault")
	})
}

func TestResolveVaultToken(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token\n"), 0600))

	tests := []struct {
		name        string
		config      VaultConfig
		expected    string
		expectError bool
	}{
		{name: "inline token wins", config: VaultConfig{Token: "inline", TokenFile: tokenFile}, expected: "inline"},
		{name: "token file trimmed", config: VaultConfig{TokenFile: tokenFile}, expected: "file-token"},
		{name: "missing file", config: VaultConfig{TokenFile: filepath.Join(t.TempDir(), "nope")}, expectError: true},
		{name: "no token", config: VaultConfig{}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := resolveVaultToken(tt.config)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, token)
		})
	}
}

func TestNewVaultClientDisabled(t *testing.T) {
	client, err := NewVaultClient(VaultConfig{Enabled: false}, nil)
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****6789", maskSecret("abcdef123456789"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}
