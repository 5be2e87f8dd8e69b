package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"healthwatch/internal/config"
	"healthwatch/internal/model"
	"healthwatch/internal/report"
)

// Command flags
var (
	outputDir    string   // Output directory for reports
	formats      []string // Output formats (excel, html)
	htmlTemplate string   // Custom HTML template (optional)
	checkTimeout time.Duration
	failOnStatus string // exit non-zero at or above this overall status
)

// checkCmd represents the check command.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one sampling and probing pass and write a health report",
	Long: `Sample host metrics once, probe every configured service once,
evaluate thresholds and write the result as Excel and/or HTML.

Examples:
  healthwatch check -c config.yaml
  healthwatch check -c config.yaml -f html -o ./out
  healthwatch check -c config.yaml --fail-on critical`,
	RunE:         runCheck,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "output formats (excel,html), comma separated")
	checkCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	checkCmd.Flags().StringVar(&htmlTemplate, "html-template", "", "custom HTML template path")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", time.Minute, "overall timeout of the check")
	checkCmd.Flags().StringVar(&failOnStatus, "fail-on", "", "exit with status 2 when overall status is at least this (degraded, critical)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	tz, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		return fmt.Errorf("invalid report timezone %q: %w", cfg.Report.Timezone, err)
	}

	a := newApp(cfg, logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	if _, _, err := a.monitor.Snapshot(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	summary := a.aggregator.Summary()
	result := &model.HealthReport{
		GeneratedAt: summary.GeneratedAt,
		Version:     Version,
		Summary:     summary,
		Alerts:      a.alerts.List(model.AlertFilter{}),
		History:     a.history.History(0),
		Thresholds:  cfg.Thresholds,
	}

	dir := resolveOutputDir(cfg)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	registry := report.NewRegistry(tz, htmlTemplate)
	filename := generateFilename(cfg.Report.FilenameTemplate, result.GeneratedAt.In(tz))
	var failed []string
	for _, format := range resolveFormats(cfg) {
		writer, err := registry.Get(format)
		if err != nil {
			return err
		}
		outputPath := filepath.Join(dir, filename+report.FileExtension(format))
		if err := writer.Write(result, outputPath); err != nil {
			logger.Error().Err(err).Str("format", format).Msg("failed to write report")
			failed = append(failed, format)
			continue
		}
		logger.Info().Str("format", format).Str("path", outputPath).Msg("report written")
	}

	printSummary(result)

	if len(failed) > 0 {
		return fmt.Errorf("failed to write reports: %s", strings.Join(failed, ", "))
	}
	if exceedsStatus(summary.OverallStatus, failOnStatus) {
		return &exitError{
			code: exitStatusThreshold,
			err:  fmt.Errorf("overall status %s is at or above --fail-on %s", summary.OverallStatus, failOnStatus),
		}
	}
	return nil
}

// printSummary prints the check result summary.
func printSummary(r *model.HealthReport) {
	s := r.Summary
	fmt.Printf("overall status: %s\n", s.OverallStatus)
	if s.Metrics != nil {
		fmt.Printf("  cpu %.1f%%  memory %.1f%%  disk %.1f%%\n", s.Metrics.CPUUsage, s.Metrics.MemoryUsage, s.Metrics.DiskUsage)
	}
	for _, svc := range r.SortedServices() {
		line := fmt.Sprintf("  %-20s %s", svc.Name, svc.Status)
		if svc.ErrorMessage != nil {
			line += " (" + *svc.ErrorMessage + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("alerts: %d unresolved (%d total)\n", s.AlertCounts.Unresolved(), s.AlertCounts.Total)
}

// resolveFormats determines the output formats to use.
// Command line flags take precedence over config file.
func resolveFormats(cfg *config.Config) []string {
	if len(formats) > 0 {
		return formats
	}
	if len(cfg.Report.Formats) > 0 {
		return cfg.Report.Formats
	}
	return []string{"excel", "html"}
}

// resolveOutputDir determines the output directory to use.
// Command line flags take precedence over config file.
func resolveOutputDir(cfg *config.Config) string {
	if outputDir != "" {
		return outputDir
	}
	if cfg.Report.OutputDir != "" {
		return cfg.Report.OutputDir
	}
	return "./reports"
}

// generateFilename creates a filename from the template.
// Supports {{.Date}} and {{.Time}} placeholders.
func generateFilename(template string, at time.Time) string {
	if template == "" {
		template = "health_report_{{.Date}}"
	}

	date := at.Format("2006-01-02")
	clock := at.Format("150405")

	r := strings.NewReplacer(
		"{{.Date}}", date, "{{ .Date }}", date,
		"{{.Time}}", clock, "{{ .Time }}", clock,
	)
	return r.Replace(template)
}

var statusRank = map[model.OverallStatus]int{
	model.OverallHealthy:  0,
	model.OverallDegraded: 1,
	model.OverallCritical: 2,
}

// exceedsStatus reports whether status is at or above the --fail-on level.
func exceedsStatus(status model.OverallStatus, failOn string) bool {
	limit, ok := statusRank[model.OverallStatus(strings.ToLower(failOn))]
	if !ok || limit == 0 {
		return false
	}
	return statusRank[status] >= limit
}
