package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config file locations.
const (
	// GlobalConfigDir is the directory under $XDG_CONFIG_HOME.
	GlobalConfigDir = "walletshell"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// ProjectConfigDir holds the shell's state and its local config.
	ProjectConfigDir = ".walletshell"
	// ProjectConfigFile is the project-local config file name.
	ProjectConfigFile = "config.yaml"
)

// LoadConfig builds the effective configuration. Later layers win:
//  1. Default()
//  2. $XDG_CONFIG_HOME/walletshell/config.yaml
//  3. .walletshell/config.yaml in the working directory or a parent
//  4. the file named by the "config" key (--config or WALLETSHELL_CONFIG)
//  5. WALLETSHELL_* environment variables and bound flags, through v
//
// The result is validated.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := Default()

	defaults, err := structToMap(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	if err := v.MergeConfigMap(defaults); err != nil {
		return nil, fmt.Errorf("merge defaults: %w", err)
	}

	files, err := configFiles(v.GetString("config"))
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		if err := mergeFile(v, path); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg, viperDecodeHook()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// configFiles lists the config files to merge, lowest precedence first. An
// explicit file must exist; the others are optional.
func configFiles(explicit string) ([]string, error) {
	var files []string
	if p := globalConfigPath(); p != "" {
		files = append(files, p)
	}
	if p := projectConfigPath(); p != "" {
		files = append(files, p)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		files = append(files, explicit)
	}
	return files, nil
}

// globalConfigPath returns the global config file path if it exists.
func globalConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return existing(filepath.Join(dir, GlobalConfigDir, GlobalConfigFile))
}

// projectConfigPath returns the nearest .walletshell/config.yaml, searching
// from the working directory up to the repository or filesystem root.
func projectConfigPath() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if p := existing(filepath.Join(dir, ProjectConfigDir, ProjectConfigFile)); p != "" {
			return p
		}
		if existing(filepath.Join(dir, ".git")) != "" {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func existing(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// mergeFile reads one config file and merges it over v. The format follows
// the file extension.
func mergeFile(v *viper.Viper, path string) error {
	fv := viper.New()
	fv.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		fv.SetConfigType("yaml")
	}
	if err := fv.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := v.MergeConfigMap(fv.AllSettings()); err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	return nil
}

// viperDecodeHook decodes duration strings and comma-separated lists.
func viperDecodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

// structToMap flattens cfg into the nested map viper merges, with
// durations as strings so they round-trip through the decode hook.
func structToMap(cfg *Config) (map[string]any, error) {
	result := make(map[string]any)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		Result:     &result,
		DecodeHook: durationToStringHook(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(cfg); err != nil {
		return nil, err
	}
	return result, nil
}

func durationToStringHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data any) (any, error) {
		if from != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return data.(time.Duration).String(), nil
	}
}
