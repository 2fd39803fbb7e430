package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// AutoCacheDir as source.cache_dir selects the per-user cache directory.
const AutoCacheDir = "auto"

func userCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	if base == "" {
		return "", errors.New("user cache directory not found")
	}
	return filepath.Join(base, "wildmons"), nil
}

// CacheDir resolves source.cache_dir. An empty value disables the disk cache.
func (c *Config) CacheDir() (string, error) {
	dir := strings.TrimSpace(c.Source.CacheDir)
	if !strings.EqualFold(dir, AutoCacheDir) {
		return dir, nil
	}
	return userCacheDir()
}
