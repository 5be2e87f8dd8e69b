package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"healthwatch/internal/config"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long:  "Load and validate the configuration file: format, required fields, ranges, thresholds and the service registry.",
	Run:   runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	configPath := GetConfigFile()

	// Load validates internally
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration invalid: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("configuration valid: %s\n", configPath)
	fmt.Printf("  thresholds: %d\n", len(cfg.Thresholds))
	fmt.Printf("  services:   %d (%d probed)\n", len(cfg.HealthCheck.Services), config.CountProbedServices(cfg.HealthCheck.Services))
}
