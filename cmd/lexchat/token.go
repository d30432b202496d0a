package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexhub/lexchat/internal/profile"
	"github.com/lexhub/lexchat/server/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the configured JWT secret",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, _ := cmd.Flags().GetString("user")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		instanceProfile := &profile.Profile{}
		instanceProfile.FromEnv()
		secret := instanceProfile.JWTSecret
		if secret == "" {
			secret = "lexchat-insecure-dev-secret"
		}

		token, err := auth.IssueToken(secret, userID, ttl)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user", "dev", "user identifier to embed in the token")
	tokenCmd.Flags().Duration("ttl", 7*24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
