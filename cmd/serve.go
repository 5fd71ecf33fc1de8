package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ErikPlachta/sheetpipe/pkg/service"
	"github.com/creasty/defaults"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	serveCfgFile string
)

//nolint:gochecknoglobals // Cobra commands are typically global
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sheetpipe service",
	Long:  `The serve command starts the retrieval pipeline, the materialization writer and the HTTP API.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveCfgFile, "config", "config.yaml", "config file (default is config.yaml)")
}

func loadServiceConfigFromFile(file string) (*service.Config, error) {
	if file == "" {
		file = "config.yaml"
	}

	config := &service.Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(file) //nolint:gosec // User-provided config file path
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	// Load configuration
	config, err := loadServiceConfigFromFile(serveCfgFile)
	if err != nil {
		return err
	}

	// Setup logger
	level, err := logrus.ParseLevel(config.Logging)
	if err != nil {
		return err
	}
	log := logrus.New()
	log.SetLevel(level)

	log.Info("Configuration loaded")

	// Create and start the application
	app := service.NewApplication(config, log)
	if err := app.Start(); err != nil {
		return err
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	return app.Stop()
}
