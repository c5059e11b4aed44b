package config

import (
	"os"
	"path/filepath"
)

// configExtensions are the config formats viper reads, in lookup order
var configExtensions = []string{"yml", "yaml", "json", "toml"}

// FindLocalConfig finds local config file by walking up directories
func FindLocalConfig(dir string) string {
	return findUp(dir, func(dir string) string {
		for _, ext := range configExtensions {
			path := filepath.Join(dir, "."+AppName+"."+ext)

			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		return ""
	})
}

// FindEnvFile finds the nearest .env file by walking up directories
func FindEnvFile(dir string) string {
	return findUp(dir, func(dir string) string {
		path := filepath.Join(dir, ".env")

		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}

		return ""
	})
}

// FindGlobalConfig returns the first config.<ext> in dir, or ""
func FindGlobalConfig(dir string) string {
	if dir == "" {
		return ""
	}

	for _, ext := range configExtensions {
		path := filepath.Join(dir, "config."+ext)

		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func findUp(dir string, match func(string) string) string {
	for {
		if path := match(dir); path != "" {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}
