package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/numberdesk/numberdesk/internal/number_service/provider"
	"github.com/numberdesk/numberdesk/internal/number_service/registry"
	"github.com/numberdesk/numberdesk/internal/platform/config"
	"github.com/numberdesk/numberdesk/internal/platform/logger"
)

var (
	flagOrg      string
	flagProvider string

	rootCmd = &cobra.Command{
		Use:   "numberctl",
		Short: "Manage telephony phone numbers and endpoints",
		Long: `numberctl talks directly to the configured telephony providers:
list available numbers, check availability, and register numbers as endpoints.

Credentials come from the environment (one <ORG>_TOKEN variable per
organization, optionally via a .env file).`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagOrg, "org", "", "organization name (as configured in the registry)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "provider name within the organization")

	rootCmd.AddCommand(orgsCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(createCmd)
}

// toolkit bundles everything a subcommand needs.
type toolkit struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *registry.Registry
	client   provider.Client
}

func newToolkit() (*toolkit, error) {
	config.LoadDotEnv()

	cfg, err := config.Load("numberctl")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.New(cfg.LogLevel)
	validate := validator.New()

	reg, err := registry.Load(cfg.RegistryPath, validate)
	if err != nil {
		return nil, err
	}

	creds := registry.NewEnvCredentialResolver()
	client := provider.NewHTTPClient(appLogger, reg, creds, &http.Client{Timeout: cfg.ProviderTimeout()})
	return &toolkit{cfg: cfg, logger: appLogger, registry: reg, client: client}, nil
}

// requireTarget enforces that --org and --provider were given.
func requireTarget() error {
	if flagOrg == "" || flagProvider == "" {
		return fmt.Errorf("both --org and --provider are required")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
