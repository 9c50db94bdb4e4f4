/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/tieubaoca/studytool-be/config"
	"github.com/tieubaoca/studytool-be/utils"
)

// issueTokenCmd represents the issue-token command
var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Print a signed bearer token for a user ID",
	Run: func(cmd *cobra.Command, args []string) {
		userID, _ := cmd.Flags().GetString("user")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if userID == "" {
			log.Fatal("--user is required")
		}

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if ttl == 0 {
			ttl = cfg.Auth.TokenTTL
		}
		token, err := utils.GenerateUserToken(cfg.Auth.JWTSecret, userID, ttl)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(issueTokenCmd)
	issueTokenCmd.Flags().StringP("user", "u", "", "User ID to put in the token subject")
	issueTokenCmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to auth.token_ttl)")
}
