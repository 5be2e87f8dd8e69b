// Package report provides health report export. It defines the ReportWriter
// interface and a registry of the Excel and HTML implementations.
package report

import (
	"healthwatch/internal/model"
)

// ReportWriter writes a health report in one output format.
type ReportWriter interface {
	// Write renders the report to outputPath. The format's file extension is
	// appended when missing.
	Write(report *model.HealthReport, outputPath string) error

	// Format returns the format identifier, e.g. "excel" or "html".
	Format() string
}
