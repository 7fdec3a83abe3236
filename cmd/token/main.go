package main

import (
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"printdesk/internal/auth"
	"printdesk/internal/config"
)

var (
	userID   string
	username string
	ttl      time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token signed with JWT_SECRET",
	Long: `token signs an HS256 bearer token accepted by the printdesk API.

It reads JWT_SECRET and JWT_ISSUER from the environment (or .env) and is meant
for local development and smoke tests against a running server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.Auth.Secret == "" {
			return fmt.Errorf("JWT_SECRET is not set")
		}

		token, err := auth.NewTokenService(cfg.Auth).Issue(userID, username, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&userID, "user", "u", "", "user id placed in the token subject (required)")
	rootCmd.Flags().StringVar(&username, "name", "", "optional username claim")
	rootCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = rootCmd.MarkFlagRequired("user")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
