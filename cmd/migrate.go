/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the metadata schema and indexes",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		// loadApp migrates gorm schemas and ensures mongo indexes on open.
		a, err := loadApp(ctx, false)
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		defer a.Close(context.Background())
		a.log.Info("Migration complete", "database", a.cfg.Database.Driver)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
