package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileProvider reads secrets from files in a single directory, one value per
// file. This matches how Kubernetes mounts secrets into a pod, so the same
// provider covers both plain file mounts and K8s secret volumes.
type FileProvider struct {
	secretsPath string
}

// NewFileProvider creates a provider over the given directory, for example
// "/var/secrets".
func NewFileProvider(secretsPath string) *FileProvider {
	return &FileProvider{
		secretsPath: secretsPath,
	}
}

// GetSecret reads the file named after the key. Key names map to mount-style
// file names: DB_PASSWORD is read from db-password. A missing file is an
// empty value, not an error.
func (f *FileProvider) GetSecret(ctx context.Context, key string) (string, error) {
	if f.secretsPath == "" {
		return "", fmt.Errorf("secrets path not configured")
	}

	name := strings.ToLower(strings.ReplaceAll(key, "_", "-"))
	data, err := os.ReadFile(filepath.Join(f.secretsPath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read secret file %s: %w", name, err)
	}

	// Mounted secrets commonly carry a trailing newline
	return strings.TrimSpace(string(data)), nil
}

// Name returns the provider name
func (f *FileProvider) Name() string {
	return "file"
}

// IsAvailable checks if the secrets directory exists
func (f *FileProvider) IsAvailable(ctx context.Context) bool {
	if f.secretsPath == "" {
		return false
	}

	info, err := os.Stat(f.secretsPath)
	if err != nil {
		return false
	}

	return info.IsDir()
}
