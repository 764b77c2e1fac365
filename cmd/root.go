package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var captureDir string

var rootCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "A face-recognition attendance kiosk",
	Long: `ClassGate Kiosk is an attendance terminal that connects a webcam to a
remote face-recognition service. It serves a browser UI for registering
teachers and recognizing faces, and ships CLI commands for headless
capture, recognition, and service maintenance.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
