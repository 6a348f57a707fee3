// Package main provides the entry point for the bacpacfix CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bacpacfix",
	Short: "Make SQL Server archives importable on Azure SQL Database",
	Long:  "bacpacfix strips AlwaysOn and In-Memory OLTP (XTP) references from the model of a .bacpac/.dacpac archive and reseals its checksum so the archive imports cleanly.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
