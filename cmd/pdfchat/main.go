package main

import (
	"fmt"
	"os"

	"github.com/liliang-cn/pdfchat/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pdfchat",
	Short: "Chat with a PDF through a document Q&A backend",
	Long: `pdfchat uploads a PDF to a document Q&A backend and lets you ask
questions about it, either from the terminal (pdfchat chat) or through the
browser-facing HTTP API (pdfchat serve).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.AddCommand(serveCmd, chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
