package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	credsfile "github.com/TheMichaelB/credvault/internal/creds"
	"github.com/TheMichaelB/credvault/internal/models"
	"github.com/TheMichaelB/credvault/internal/services/vault"
)

var saveCmd = &cobra.Command{
	Use:   "save <path>",
	Short: "Encrypt credentials into a vault file",
	Long: `Save prompts for the password of every --user, encrypts them under the
master password and writes the vault to <path>, replacing its contents.

Passwords are read without echo from a terminal, or one per line from stdin.
With --from the credentials are read from a JSON file first; --user entries
are prompted for and appended after them.`,
	Example: `  credvault save vault.txt --cipher AES --user alice --user bob
  credvault save vault.db --from credentials.json
  printf 'hunter2\n' | credvault save vault.json --user alice --scheme sealed`,
	Args: cobra.ExactArgs(1),
	RunE: runSave,
}

var (
	saveCipher string
	saveUsers  []string
	saveFormat string
	saveScheme string
	saveFrom   string
)

func init() {
	rootCmd.AddCommand(saveCmd)

	saveCmd.Flags().StringVarP(&saveCipher, "cipher", "c", "",
		"Cipher: AES or DES (default from config)")
	saveCmd.Flags().StringArrayVarP(&saveUsers, "user", "u", nil,
		"Username to store (repeatable, required)")
	saveCmd.Flags().StringVar(&saveFormat, "format", "",
		"Storage format: lines, json or sqlite (default from config or file extension)")
	saveCmd.Flags().StringVar(&saveScheme, "scheme", "",
		"Sealing scheme: legacy or sealed (default from config)")
	saveCmd.Flags().StringVar(&saveFrom, "from", "",
		"JSON file with credentials to import")
}

func runSave(cmd *cobra.Command, args []string) error {
	path := args[0]

	if len(saveUsers) == 0 && saveFrom == "" {
		return fmt.Errorf("%w: pass --user or --from", models.ErrNoCredentials)
	}

	svc, err := newVaultService()
	if err != nil {
		return err
	}

	var creds []models.Credential
	if saveFrom != "" {
		if creds, err = credsfile.LoadFromFile(saveFrom); err != nil {
			return fmt.Errorf("load %s: %w", saveFrom, err)
		}
		logger.WithField("count", len(creds)).Debug("Loaded credentials file")
	}

	p := newPrompter(stdin, stderr)
	for _, user := range saveUsers {
		password, err := p.password(fmt.Sprintf("Password for %s: ", user))
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		creds = append(creds, models.Credential{Username: user, Password: password})
	}

	if len(creds) == 0 {
		return fmt.Errorf("%w: %s is empty", models.ErrNoCredentials, saveFrom)
	}

	// Set up signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			printWarning("\nSave interrupted, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	result, err := svc.Save(ctx, vault.SaveRequest{
		Credentials: creds,
		Cipher:      cipherOrDefault(saveCipher),
		Path:        path,
	})

	if jsonOutput {
		printJSON(result)
		if err != nil {
			return reported(err)
		}
		return nil
	}

	if err != nil {
		printError("Failed to save credentials: %s", result.Reason)
		return reported(err)
	}

	printSuccess("Saved %d credential(s) to %s", result.Records, result.Path)
	if verbose {
		printInfo("Format: %s, scheme: %s", result.Format, result.Scheme)
	}
	return nil
}
