package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	v1 "certverify/verification-backend/api/v1"
	"certverify/verification-backend/internal/config"
	"certverify/verification-backend/internal/database"
	"certverify/verification-backend/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "certctl",
	Short: "certctl - operator tool for the certificate verification backend",
	Long: `certctl runs maintenance tasks against the verification database:
schema migration, admin bootstrap, verified record import and
verification of uploaded certificates outside the HTTP API.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.json", "path to the JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// env is what every subcommand needs: configuration, a logger and open connections
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	conns  *database.Connections
}

func (e *env) Close() {
	_ = e.conns.Close()
	_ = e.logger.Sync()
}

func openEnv() (*env, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	conns, err := database.Connect(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, conns: conns}, nil
}

// openAPI migrates the schema and builds the full service graph
func openAPI(ctx context.Context) (*env, *v1.API, error) {
	e, err := openEnv()
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(e.conns.Gorm, v1.Models()...); err != nil {
		e.Close()
		return nil, nil, err
	}
	api, err := v1.Setup(ctx, e.cfg, e.conns, e.logger)
	if err != nil {
		e.Close()
		return nil, nil, err
	}
	return e, api, nil
}
