package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/agritag/internal/client"
	"github.com/alfredjeanlab/agritag/internal/config"
	"github.com/alfredjeanlab/agritag/internal/logging"
	"github.com/alfredjeanlab/agritag/internal/ui"
)

var (
	transport  string
	httpURL    string
	authToken  string
	jsonOutput bool

	agtClient client.Client
)

func defaultHTTPURL() string {
	if s := os.Getenv("AGRI_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

func defaultTransport() string {
	if s := os.Getenv("AGRI_TRANSPORT"); s != "" {
		return s
	}
	return "local"
}

var rootCmd = &cobra.Command{
	Use:          "agt <command>",
	Short:        "Tag and manage agricultural map features",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch transport {
		case "http":
			agtClient = client.NewHTTPClient(httpURL, authToken)
		case "local":
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel, cfg.LogFormat)
			rt, err := openRuntime(context.Background(), cfg, logger)
			if err != nil {
				return err
			}
			agtClient = client.NewLocalClient(rt.ws, rt.Close)
		default:
			return fmt.Errorf("unknown transport %q (must be local or http)", transport)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if agtClient != nil {
			agtClient.Close()
		}
	},
}

// noClient replaces the root PersistentPreRunE for commands that manage
// their own resources.
func noClient(cmd *cobra.Command, args []string) error { return nil }

func init() {
	rootCmd.PersistentFlags().StringVar(&transport, "transport", defaultTransport(), "where features live: local (open storage directly) or http")
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("AGRI_AUTH_TOKEN"), "bearer token for the HTTP server")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "features", Title: "Features:"},
		&cobra.Group{ID: "interchange", Title: "Interchange:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Features
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(drawCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)

	// Interchange
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(vocabCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	ui.Configure()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
