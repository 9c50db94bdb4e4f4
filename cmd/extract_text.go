/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tieubaoca/studytool-be/types"
)

// extractTextCmd represents the extract-text command
var extractTextCmd = &cobra.Command{
	Use:   "extract-text",
	Short: "Store a local document for a user and print its extracted text",
	Long: `Uploads a PDF, TXT or MD file into the configured store on behalf of a
user, then prints the text the generation endpoints would see. The file stays
stored unless --keep=false is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		filePath, _ := cmd.Flags().GetString("file")
		userID, _ := cmd.Flags().GetString("user")
		keep, _ := cmd.Flags().GetBool("keep")
		if filePath == "" || userID == "" {
			log.Fatal("--file and --user are required")
		}

		ctx := types.WithPrincipal(context.Background(), types.Principal{UserID: userID})
		a, err := loadApp(ctx, false)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer a.Close(context.Background())

		f, err := os.Open(filePath)
		if err != nil {
			log.Fatalf("Failed to open file: %v", err)
		}
		defer f.Close()

		stored, err := a.files.Store(ctx, filepath.Base(filePath), f)
		if err != nil {
			log.Fatalf("Failed to store file: %v", err)
		}
		a.log.Info("Stored document", "user_id", userID, "storage_name", stored.StoredFilename, "size", stored.FileSize)

		text, err := a.files.ExtractText(ctx, stored.StoredFilename)
		if err != nil {
			log.Printf("Failed to extract text: %v", err)
		} else {
			fmt.Println(text)
		}

		if !keep {
			if err := a.files.Delete(ctx, stored.StoredFilename); err != nil {
				log.Printf("Failed to delete stored file: %v", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(extractTextCmd)
	extractTextCmd.Flags().StringP("file", "f", "", "Path to the file to upload")
	extractTextCmd.Flags().StringP("user", "u", "", "User ID owning the stored file")
	extractTextCmd.Flags().Bool("keep", true, "Keep the file stored after extraction")
}
