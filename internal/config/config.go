package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	// Gating secret that unlocks plaintext disclosure
	Gate GateConfig `json:"gate" mapstructure:"gate"`

	// Key derivation and sealing
	Vault VaultConfig `json:"vault" mapstructure:"vault"`

	// Vault file format
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`
}

// GateConfig carries the injected gating secret. Exactly one source is used:
// Secret wins over SecretFile. TOTPSecret, when set, adds an authenticator
// code to the decrypt gate.
type GateConfig struct {
	Secret     string `json:"secret,omitempty" mapstructure:"secret"`
	SecretFile string `json:"secret_file,omitempty" mapstructure:"secret_file"`
	TOTPSecret string `json:"totp_secret,omitempty" mapstructure:"totp_secret"`
}

// VaultConfig for sealing behavior.
type VaultConfig struct {
	Scheme        string `json:"scheme" mapstructure:"scheme"`                 // legacy, sealed
	DefaultCipher string `json:"default_cipher" mapstructure:"default_cipher"` // AES, DES
	KDF           string `json:"kdf" mapstructure:"kdf"`                       // pbkdf2, scrypt (sealed only)
	Iterations    int    `json:"iterations" mapstructure:"iterations"`         // pbkdf2 work factor
}

// StorageConfig for vault files.
type StorageConfig struct {
	Format     string `json:"format" mapstructure:"format"`           // lines, json, sqlite
	KeepBackup bool   `json:"keep_backup" mapstructure:"keep_backup"` // json format only
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file" mapstructure:"file"`     // Log file path (empty = stderr)
	Color  bool   `json:"color" mapstructure:"color"`   // Enable colored output
}

// DefaultConfig returns config with sensible defaults. The gating secret has
// no default and must be supplied at startup.
func DefaultConfig() *Config {
	return &Config{
		Vault: VaultConfig{
			Scheme:        "legacy",
			DefaultCipher: "AES",
			KDF:           "pbkdf2",
			Iterations:    100000,
		},
		Storage: StorageConfig{
			Format:     "lines",
			KeepBackup: true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			File:   "",
			Color:  true,
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Gate.Secret == "" {
		return errors.New("gate.secret is required (set CREDVAULT_GATE_SECRET or gate.secret_file)")
	}

	validSchemes := map[string]bool{"legacy": true, "sealed": true}
	if !validSchemes[c.Vault.Scheme] {
		return fmt.Errorf("invalid vault scheme: %s", c.Vault.Scheme)
	}

	validCiphers := map[string]bool{"AES": true, "DES": true}
	if !validCiphers[strings.ToUpper(c.Vault.DefaultCipher)] {
		return fmt.Errorf("invalid default cipher: %s", c.Vault.DefaultCipher)
	}

	validKDFs := map[string]bool{"pbkdf2": true, "scrypt": true}
	if !validKDFs[c.Vault.KDF] {
		return fmt.Errorf("invalid kdf: %s", c.Vault.KDF)
	}

	if c.Vault.KDF == "pbkdf2" && c.Vault.Iterations < 1000 {
		return errors.New("vault.iterations must be at least 1000")
	}

	validFormats := map[string]bool{"lines": true, "json": true, "sqlite": true}
	if !validFormats[c.Storage.Format] {
		return fmt.Errorf("invalid storage format: %s", c.Storage.Format)
	}

	if c.Storage.Format == "lines" && c.Vault.Scheme == "sealed" {
		return errors.New("sealed scheme needs a json or sqlite storage format")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// ResolveSecret loads Gate.Secret from Gate.SecretFile when no inline secret
// is set. A single trailing newline is stripped.
func (c *Config) ResolveSecret() error {
	if c.Gate.Secret != "" || c.Gate.SecretFile == "" {
		return nil
	}

	path := c.Gate.SecretFile
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, rest)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read gate secret file: %w", err)
	}

	secret := strings.TrimSuffix(string(data), "\n")
	c.Gate.Secret = strings.TrimSuffix(secret, "\r")
	return nil
}

// EnsureDirectories creates the log file directory if one is configured.
func (c *Config) EnsureDirectories() error {
	if c.Log.File == "" {
		return nil
	}

	dir := filepath.Dir(c.Log.File)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	return nil
}
