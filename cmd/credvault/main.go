package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/credvault/internal/config"
	"github.com/TheMichaelB/credvault/internal/events"
	"github.com/TheMichaelB/credvault/internal/models"
	"github.com/TheMichaelB/credvault/internal/services/totp"
	"github.com/TheMichaelB/credvault/internal/services/vault"
	"github.com/TheMichaelB/credvault/internal/storage"
)

// Set with -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

var (
	cfgFile    string
	jsonOutput bool
	verbose    bool

	cfg    *config.Config
	logger *events.Logger

	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// skipConfig marks commands that run without a loaded configuration.
const skipConfig = "skip-config"

var rootCmd = &cobra.Command{
	Use:   "credvault",
	Short: "Encrypted local credential vault",
	Long: `credvault encrypts username/password pairs into a local vault file and
reads them back. Plaintext is only shown after the master password is given.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file (default: ./credvault.yaml, ~/.config/credvault/credvault.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			printError("Error: %v", err)
		}
		os.Exit(1)
	}
}

// setup loads configuration and the logger before any command that needs them.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}

	loader := config.NewLoader(cfgFile)
	if verbose {
		loader.Set("log.level", "debug")
	}
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		loader.Set("storage.format", f.Value.String())
	} else if len(args) > 0 {
		// The path extension decides the format, so validate against it.
		if format, ok := storage.FormatFromExt(args[0]); ok {
			loader.Set("storage.format", string(format))
		}
	}
	if f := cmd.Flags().Lookup("scheme"); f != nil && f.Changed {
		loader.Set("vault.scheme", f.Value.String())
	}

	var err error
	cfg, err = loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	logger.WithField("version", version).Debug("Configuration loaded")
	return nil
}

// newVaultService builds the service from the loaded configuration.
func newVaultService() (*vault.Service, error) {
	gate, err := vault.NewGate(cfg.Gate.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}

	if cfg.Gate.TOTPSecret != "" {
		verifier, err := totp.NewVerifier(cfg.Gate.TOTPSecret)
		if err != nil {
			return nil, fmt.Errorf("%w: gate.totp_secret: %v", models.ErrInvalidConfig, err)
		}
		gate.WithTOTP(verifier)
	}

	scheme, err := models.ParseScheme(cfg.Vault.Scheme)
	if err != nil {
		return nil, err
	}

	format, err := storage.ParseFormat(cfg.Storage.Format)
	if err != nil {
		return nil, err
	}

	return vault.NewService(gate, vault.Options{
		Scheme:     scheme,
		Format:     format,
		KeepBackup: cfg.Storage.KeepBackup,
		KDF:        cfg.Vault.KDF,
		Iterations: cfg.Vault.Iterations,
	}, logger), nil
}

// cipherOrDefault returns the --cipher flag value, or the configured default.
func cipherOrDefault(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Vault.DefaultCipher
}
