package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/credential-mapper/internal/config"
	"github.com/jonathan/credential-mapper/internal/server"
)

var (
	servePort        int
	serveDatabaseURL string
	serveDataDir     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mapping session API server",
	Long: `Start an HTTP server that builds mapping sessions, lists the output fields they
still need and accepts values for them.

Schemas for requests that name only an output format come from the config file's
schemas entry. Files named in requests are resolved under --data-dir and may not
escape it. With --db-url (or DATABASE_URL) every session change is stored.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", ".", "Directory that request file names are resolved under")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := fileConfig
	overrideString(cmd.Flags(), "db-url", &cfg.DatabaseURL, serveDatabaseURL)
	overrideString(cmd.Flags(), "data-dir", &cfg.DataDir, serveDataDir)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	srv, err := newServer(cfg, servePort)
	if err != nil {
		return err
	}
	return srv.Start()
}

// newServer builds the API server from the merged CLI configuration
func newServer(cfg config.Config, port int) (*server.Server, error) {
	srv, err := server.New(server.Config{
		Port:        port,
		DatabaseURL: cfg.DatabaseURL,
		DataDir:     cfg.DataDir,
		Defaults:    cfg,
		Verifier:    verifierOptions(cfg),
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	return srv, nil
}
