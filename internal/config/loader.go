package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/TheMichaelB/credvault/internal/models"
)

// EnvPrefix is prepended to every environment override, e.g. CREDVAULT_GATE_SECRET.
const EnvPrefix = "CREDVAULT"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	overrides  map[string]interface{}
}

// NewLoader creates a config loader. An empty path searches the default locations.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		overrides:  make(map[string]interface{}),
	}
}

// Set overrides a key (dotted, e.g. "log.level") above file and environment values.
func (l *Loader) Set(key string, value interface{}) {
	l.overrides[key] = value
}

// Load reads configuration from defaults, file, environment and overrides,
// in increasing priority.
func (l *Loader) Load() (*Config, error) {
	v := newViper()

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	} else {
		v.SetConfigName("credvault")
		for _, dir := range defaultDirs() {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("load config file %s: %w", v.ConfigFileUsed(), err)
			}
		}
	}

	for key, value := range l.overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Vault.DefaultCipher = strings.ToUpper(cfg.Vault.DefaultCipher)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.ResolveSecret(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}

	return &cfg, nil
}

// newViper returns a viper instance primed with defaults and env bindings.
// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("gate.secret", d.Gate.Secret)
	v.SetDefault("gate.secret_file", d.Gate.SecretFile)
	v.SetDefault("gate.totp_secret", d.Gate.TOTPSecret)
	v.SetDefault("vault.scheme", d.Vault.Scheme)
	v.SetDefault("vault.default_cipher", d.Vault.DefaultCipher)
	v.SetDefault("vault.kdf", d.Vault.KDF)
	v.SetDefault("vault.iterations", d.Vault.Iterations)
	v.SetDefault("storage.format", d.Storage.Format)
	v.SetDefault("storage.keep_backup", d.Storage.KeepBackup)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.color", d.Log.Color)
}

// defaultDirs returns default config file locations.
func defaultDirs() []string {
	dirs := []string{"."}

	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(homeDir, ".config", "credvault"),
			filepath.Join(homeDir, ".credvault"),
		)
	}

	return dirs
}

// SaveExample writes an example config file. The format follows the file
// extension (yaml, json or toml). Environment values are not written out.
func SaveExample(path string) error {
	v := viper.New()
	setDefaults(v)
	v.Set("gate.secret_file", "~/.config/credvault/gate.secret")

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("chmod file: %w", err)
	}

	return nil
}
