package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/credvault/internal/models"
	"github.com/TheMichaelB/credvault/internal/services/vault"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <path>",
	Short: "List a vault and optionally decrypt it",
	Long: `Retrieve lists every username with its encrypted password. With --decrypt
it then asks for the master password and shows the plaintext passwords.`,
	Example: `  credvault retrieve vault.txt --cipher AES
  credvault retrieve vault.txt --cipher AES --decrypt`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

var (
	retrieveCipher  string
	retrieveDecrypt bool
	retrieveFormat  string
)

func init() {
	rootCmd.AddCommand(retrieveCmd)

	retrieveCmd.Flags().StringVarP(&retrieveCipher, "cipher", "c", "",
		"Cipher: AES or DES (default from config)")
	retrieveCmd.Flags().BoolVarP(&retrieveDecrypt, "decrypt", "d", false,
		"Prompt for the master password and show plaintext")
	retrieveCmd.Flags().StringVar(&retrieveFormat, "format", "",
		"Storage format: lines, json or sqlite (default from config or file extension)")
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := cmd.Context()

	svc, err := newVaultService()
	if err != nil {
		return err
	}

	req := vault.RetrieveRequest{
		Cipher: cipherOrDefault(retrieveCipher),
		Path:   path,
	}

	result, err := svc.Retrieve(ctx, req)
	if err != nil {
		return reportRetrieve(result, err)
	}

	if !jsonOutput {
		if len(result.Encrypted) == 0 {
			printWarning("No credentials found in %s", path)
		}
		for _, r := range result.Encrypted {
			fmt.Fprintf(stdout, "Username: %s | Encrypted Password: %s\n", r.Username, r.Secret)
		}
	}

	if !retrieveDecrypt {
		if jsonOutput {
			printJSON(result)
		}
		return nil
	}

	p := newPrompter(stdin, stderr)
	candidate, err := p.password("Master password: ")
	if err != nil {
		return fmt.Errorf("read master password: %w", err)
	}

	req.Unlock = true
	req.Candidate = candidate

	if svc.RequiresCode() {
		if req.Code, err = p.password("Authenticator code: "); err != nil {
			return fmt.Errorf("read authenticator code: %w", err)
		}
	}
	result, err = svc.Retrieve(ctx, req)
	if err != nil {
		return reportRetrieve(result, err)
	}

	if jsonOutput {
		printJSON(result)
		return nil
	}

	for _, e := range result.Decrypted {
		if e.Err != nil {
			printWarning("%s: <%s>", e.Username, e.Reason)
			continue
		}
		fmt.Fprintf(stdout, "%s: %s\n", e.Username, e.Password)
	}

	if result.Failures > 0 {
		printWarning("%d of %d record(s) could not be decrypted", result.Failures, len(result.Decrypted))
	}
	return nil
}

func reportRetrieve(result *vault.RetrieveResult, err error) error {
	if jsonOutput {
		printJSON(result)
		return reported(err)
	}

	if errors.Is(err, models.ErrGatingDenied) {
		printError("Incorrect master password!")
	} else {
		printError("Failed to retrieve credentials: %s", result.Reason)
	}
	return reported(err)
}
