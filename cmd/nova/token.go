package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/silverland/nova/internal/auth"
	"github.com/silverland/nova/internal/config"
)

func newTokenCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a JWT access token for the chat API",
		Long:  "Prompts for the admin API key and prints a bearer token, the same exchange POST /auth/token performs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nova.yaml", "path to Nova config file")
	return cmd
}

func runToken(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.AdminKey == "" || cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.admin_key and auth.jwt_secret must be configured")
	}

	key, err := readSecret(cmd, "Admin API key: ")
	if err != nil {
		return err
	}
	if key != cfg.Auth.AdminKey {
		return fmt.Errorf("invalid api key")
	}

	expiry := time.Duration(cfg.Auth.TokenExpiryHours) * time.Hour
	token, err := auth.CreateToken(cfg.Auth.JWTSecret, expiry)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

// readSecret prompts without echo on a terminal, and falls back to plain
// line reading when stdin is piped (tests, scripts).
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("reading key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil && line == "" {
		return "", fmt.Errorf("reading key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
