package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rendis/diagramir/internal/validation"
	"github.com/spf13/viper"
)

// Config holds all diagramir CLI configuration.
// Priority: flags > DIAGRAMIR_* env vars > diagramir.yaml > defaults.
type Config struct {
	LogLevel      string            `mapstructure:"log_level"`
	LogFormat     string            `mapstructure:"log_format"`
	PreviewBinDir string            `mapstructure:"preview_bin_dir"`
	EdgeDropRules []validation.Rule `mapstructure:"edge_drop_rules"`
}

const (
	keyLogLevel      = "log_level"
	keyLogFormat     = "log_format"
	keyPreviewBinDir = "preview_bin_dir"
	keyEdgeDropRules = "edge_drop_rules"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "text")
	v.SetDefault(keyPreviewBinDir, filepath.Join(diagramirDir(), "bin"))
	v.SetDefault(keyEdgeDropRules, []validation.Rule{})
}

func diagramirDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".diagramir"
	}
	return filepath.Join(home, ".diagramir")
}

// loadConfig reads cfgFile, or diagramir.yaml from the working directory or
// ~/.diagramir when cfgFile is empty. A missing default file is not an error.
func loadConfig(v *viper.Viper, cfgFile string) (Config, error) {
	setDefaults(v)

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(diagramirDir())
		v.SetConfigName("diagramir")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DIAGRAMIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
