package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbreukel/BacpacCompatFixer/internal/server"
)

var (
	servePort      int
	serveUploadDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for scanning and fixing archives, including multipart upload of archives.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveUploadDir, "upload-dir", "", "Staging directory for uploaded archives (default: system temp dir)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := server.Config{
		Port:        servePort,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		UploadDir:   serveUploadDir,
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
