package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/imi-tools/imirun/internal/errors"
	"github.com/spf13/viper"
)

// SettingsFileName is the default settings file name.
const SettingsFileName = "settings.yml"

// Load reads settings from the specified path.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Settings file not found",
				"Create a settings.yml next to where you run imirun, or point at one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read settings file",
			"Check the file exists and is valid YAML")
	}

	return parseSettings(v, path)
}

// Find locates the settings file using the search order:
// 1. Explicit path (from --config flag)
// 2. settings.yml in current directory
// 3. settings.yml in parent directories (stops at git root or home)
//
// Returns the path to the settings file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified settings file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access settings file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	local := filepath.Join(cwd, SettingsFileName)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && parent == home {
			break
		}
		dir = parent

		candidate := filepath.Join(dir, SettingsFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		// Stop at git root
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
	}

	return "", nil
}

// parseSettings converts viper config to a Settings struct with defaults merged in.
func parseSettings(v *viper.Viper, path string) (*Settings, error) {
	cfg := DefaultSettings()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid settings format",
			"Check the YAML syntax in "+path)
	}

	// Local paths get tilde expansion; remote paths keep ~ for the remote shell.
	cfg.Paths.SSHKey = ExpandTilde(cfg.Paths.SSHKey)
	cfg.Paths.LocalData = ExpandTilde(cfg.Paths.LocalData)
	cfg.Registry = ExpandTilde(cfg.Registry)

	return cfg, nil
}

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Does not support ~username syntax - just ~ for the current user.
// Use this for LOCAL paths only. Remote paths should keep ~ for the remote shell.
func ExpandTilde(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}

	return path
}
