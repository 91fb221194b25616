// Package config resolves the final-form home directory, the registry
// roots underneath it, and the runtime configuration for the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration for a processing run.
type Config struct {
	InstrumentRegistryPath string `mapstructure:"instrumentRegistryPath"`
	BindingRegistryPath    string `mapstructure:"bindingRegistryPath"`
	Format                 string `mapstructure:"format"`
	Output                 string `mapstructure:"output"`
	Quiet                  bool   `mapstructure:"quiet"`
	Verbose                bool   `mapstructure:"verbose"`
}

// GlobalConfig is the optional config.yaml in the final-form home
// directory. It only carries defaults; flags and env vars win.
type GlobalConfig struct {
	DefaultMeasureRegistryPath     string `yaml:"default_measure_registry_path"`
	DefaultFormBindingRegistryPath string `yaml:"default_form_binding_registry_path"`
}

// Home returns the final-form home directory. Default is
// ~/.config/final-form; FINAL_FORM_HOME overrides it.
func Home() string {
	if home := os.Getenv("FINAL_FORM_HOME"); home != "" {
		return expandHome(home)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "final-form")
	}
	return filepath.Join(userHome, ".config", "final-form")
}

// RegistryRoot returns <home>/registry.
func RegistryRoot() string {
	return filepath.Join(Home(), "registry")
}

// DefaultMeasureRegistryPath returns the default instrument registry root.
func DefaultMeasureRegistryPath() string {
	return filepath.Join(RegistryRoot(), "measure-registry")
}

// DefaultBindingRegistryPath returns the default form binding registry root.
func DefaultBindingRegistryPath() string {
	return filepath.Join(RegistryRoot(), "form-binding-registry")
}

// GlobalConfigPath returns <home>/config.yaml.
func GlobalConfigPath() string {
	return filepath.Join(Home(), "config.yaml")
}

// LoadGlobal reads the global config.yaml if present. A missing or
// unreadable file yields an empty config, never an error: the global file
// is purely advisory.
func LoadGlobal() GlobalConfig {
	data, err := os.ReadFile(GlobalConfigPath())
	if err != nil {
		return GlobalConfig{}
	}
	var global GlobalConfig
	if err := yaml.Unmarshal(data, &global); err != nil {
		return GlobalConfig{}
	}
	return global
}

// Load assembles the runtime configuration from defaults, the global
// config file, a local rc file, and FINAL_FORM_* environment variables.
func Load() (*Config, error) {
	global := LoadGlobal()

	v := viper.New()
	instrumentDefault := global.DefaultMeasureRegistryPath
	if instrumentDefault == "" {
		instrumentDefault = DefaultMeasureRegistryPath()
	}
	bindingDefault := global.DefaultFormBindingRegistryPath
	if bindingDefault == "" {
		bindingDefault = DefaultBindingRegistryPath()
	}
	v.SetDefault("instrumentRegistryPath", instrumentDefault)
	v.SetDefault("bindingRegistryPath", bindingDefault)
	v.SetDefault("format", "console")
	v.SetDefault("quiet", false)
	v.SetDefault("verbose", false)

	// Local rc file overrides the global defaults.
	for _, path := range []string{".finalformrc.json", ".finalformrc.yaml", ".finalformrc.yml"} {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
			break
		}
	}

	v.SetEnvPrefix("FINAL_FORM")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.InstrumentRegistryPath = expandHome(cfg.InstrumentRegistryPath)
	cfg.BindingRegistryPath = expandHome(cfg.BindingRegistryPath)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Format != "console" && cfg.Format != "json" {
		return fmt.Errorf("invalid format: %s. Must be 'console' or 'json'", cfg.Format)
	}
	if cfg.Quiet && cfg.Verbose {
		return fmt.Errorf("quiet and verbose are mutually exclusive")
	}
	return nil
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" || len(path) > 1 && path[0] == '~' && os.IsPathSeparator(path[1]) {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(userHome, path[1:])
	}
	return path
}
