// Package excel writes health reports as .xlsx workbooks.
package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"healthwatch/internal/model"
)

const (
	sheetSummary  = "Summary"
	sheetServices = "Services"
	sheetAlerts   = "Alerts"
	sheetHistory  = "Metrics"

	defaultSheet = "Sheet1"

	// Colors for conditional formatting (RGB without #)
	colorWarningBg  = "FFEB9C"
	colorWarningFg  = "9C6500"
	colorCriticalBg = "FFC7CE"
	colorCriticalFg = "9C0006"
	colorHeaderBg   = "4472C4"
	colorHeaderFg   = "FFFFFF"
	colorNormalBg   = "C6EFCE"
	colorNormalFg   = "006100"

	defaultColWidth = 15.0
	wideColWidth    = 25.0

	timeLayout = "2006-01-02 15:04:05"
)

// Writer implements report.ReportWriter for Excel format.
type Writer struct {
	timezone *time.Location
}

// NewWriter creates a new Excel report writer. A nil timezone means UTC.
func NewWriter(timezone *time.Location) *Writer {
	if timezone == nil {
		timezone = time.UTC
	}
	return &Writer{timezone: timezone}
}

// Format returns the format identifier for this writer.
func (w *Writer) Format() string {
	return "excel"
}

// styles holds the cell styles shared by all sheets.
type styles struct {
	header   int
	normal   int
	warning  int
	critical int
}

// Write generates an Excel workbook from the report.
func (w *Writer) Write(report *model.HealthReport, outputPath string) error {
	if report == nil {
		return fmt.Errorf("health report is nil")
	}

	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}

	f := excelize.NewFile()
	defer f.Close()

	st, err := w.createStyles(f)
	if err != nil {
		return fmt.Errorf("failed to create styles: %w", err)
	}

	if err := w.createSummarySheet(f, report, st); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := w.createServicesSheet(f, report, st); err != nil {
		return fmt.Errorf("failed to create services sheet: %w", err)
	}
	if err := w.createAlertsSheet(f, report, st); err != nil {
		return fmt.Errorf("failed to create alerts sheet: %w", err)
	}
	if err := w.createHistorySheet(f, report, st); err != nil {
		return fmt.Errorf("failed to create metrics sheet: %w", err)
	}

	// Sheet1 only exists on a fresh workbook
	_ = f.DeleteSheet(defaultSheet)

	idx, _ := f.GetSheetIndex(sheetSummary)
	f.SetActiveSheet(idx)

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func (w *Writer) createStyles(f *excelize.File) (*styles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: colorHeaderFg},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{colorHeaderBg}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	normal, err := fillStyle(f, colorNormalBg, colorNormalFg)
	if err != nil {
		return nil, err
	}
	warning, err := fillStyle(f, colorWarningBg, colorWarningFg)
	if err != nil {
		return nil, err
	}
	critical, err := fillStyle(f, colorCriticalBg, colorCriticalFg)
	if err != nil {
		return nil, err
	}
	return &styles{header: header, normal: normal, warning: warning, critical: critical}, nil
}

func fillStyle(f *excelize.File, bg, fg string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: fg},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{bg}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

// createSummarySheet writes the overall status, alert counts and latest sample.
func (w *Writer) createSummarySheet(f *excelize.File, report *model.HealthReport, st *styles) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}
	f.SetColWidth(sheetSummary, "A", "A", wideColWidth)
	f.SetColWidth(sheetSummary, "B", "B", wideColWidth)

	s := report.Summary
	rows := []struct {
		label string
		value interface{}
	}{
		{"Generated At", report.GeneratedAt.In(w.timezone).Format(timeLayout)},
		{"Overall Status", string(s.OverallStatus)},
		{"Uptime", s.Uptime.Round(time.Second).String()},
		{"Services", len(s.Services)},
		{"Alerts Total", s.AlertCounts.Total},
		{"Alerts Open", s.AlertCounts.Open},
		{"Alerts Acknowledged", s.AlertCounts.Acknowledged},
		{"Alerts Resolved", s.AlertCounts.Resolved},
	}
	if report.Version != "" {
		rows = append(rows, struct {
			label string
			value interface{}
		}{"Version", report.Version})
	}
	if m := s.Metrics; m != nil {
		rows = append(rows, []struct {
			label string
			value interface{}
		}{
			{"CPU Usage (%)", round1(m.CPUUsage)},
			{"Memory Usage (%)", round1(m.MemoryUsage)},
			{"Disk Usage (%)", round1(m.DiskUsage)},
			{"Active Connections", m.ActiveConnections},
			{"Response Time (ms)", round1(m.ResponseTimeMs)},
			{"Error Rate (%)", round1(m.ErrorRate)},
		}...)
	}

	for i, item := range rows {
		row := i + 1
		f.SetCellValue(sheetSummary, cell("A", row), item.label)
		f.SetCellValue(sheetSummary, cell("B", row), item.value)
		f.SetCellStyle(sheetSummary, cell("A", row), cell("A", row), st.header)
	}

	statusRow := 2
	f.SetCellStyle(sheetSummary, cell("B", statusRow), cell("B", statusRow), overallStyle(s.OverallStatus, st))
	return nil
}

// createServicesSheet writes one row per service, sorted by name.
func (w *Writer) createServicesSheet(f *excelize.File, report *model.HealthReport, st *styles) error {
	if _, err := f.NewSheet(sheetServices); err != nil {
		return err
	}
	headers := []string{"Service", "Status", "Last Check", "Response Time (ms)", "Error"}
	if err := w.writeHeader(f, sheetServices, headers, st); err != nil {
		return err
	}

	for i, svc := range report.SortedServices() {
		row := i + 2
		f.SetCellValue(sheetServices, cell("A", row), svc.Name)
		f.SetCellValue(sheetServices, cell("B", row), string(svc.Status))
		f.SetCellStyle(sheetServices, cell("B", row), cell("B", row), serviceStyle(svc.Status, st))
		if !svc.LastCheck.IsZero() {
			f.SetCellValue(sheetServices, cell("C", row), svc.LastCheck.In(w.timezone).Format(timeLayout))
		}
		if svc.ResponseTimeMs != nil {
			f.SetCellValue(sheetServices, cell("D", row), round1(*svc.ResponseTimeMs))
		}
		if svc.ErrorMessage != nil {
			f.SetCellValue(sheetServices, cell("E", row), *svc.ErrorMessage)
		}
	}
	f.SetColWidth(sheetServices, "E", "E", 40)
	return nil
}

// createAlertsSheet writes the alerts, oldest first.
func (w *Writer) createAlertsSheet(f *excelize.File, report *model.HealthReport, st *styles) error {
	if _, err := f.NewSheet(sheetAlerts); err != nil {
		return err
	}
	headers := []string{"ID", "Type", "Severity", "State", "Created At", "Message", "Acknowledged By", "Resolved By"}
	if err := w.writeHeader(f, sheetAlerts, headers, st); err != nil {
		return err
	}

	for i, a := range report.Alerts {
		row := i + 2
		f.SetCellValue(sheetAlerts, cell("A", row), a.ID)
		f.SetCellValue(sheetAlerts, cell("B", row), a.Type)
		f.SetCellValue(sheetAlerts, cell("C", row), string(a.Severity))
		f.SetCellStyle(sheetAlerts, cell("C", row), cell("C", row), severityStyle(a.Severity, st))
		f.SetCellValue(sheetAlerts, cell("D", row), string(a.State))
		f.SetCellValue(sheetAlerts, cell("E", row), a.CreatedAt.In(w.timezone).Format(timeLayout))
		f.SetCellValue(sheetAlerts, cell("F", row), a.Message)
		if a.Acknowledgement != nil {
			f.SetCellValue(sheetAlerts, cell("G", row), a.Acknowledgement.UserID)
		}
		if a.Resolution != nil {
			f.SetCellValue(sheetAlerts, cell("H", row), a.Resolution.ResolvedBy)
		}
	}
	f.SetColWidth(sheetAlerts, "A", "A", 38)
	f.SetColWidth(sheetAlerts, "F", "F", 50)
	return nil
}

// createHistorySheet writes the recorded samples, oldest first. Values above
// their configured threshold are highlighted.
func (w *Writer) createHistorySheet(f *excelize.File, report *model.HealthReport, st *styles) error {
	if _, err := f.NewSheet(sheetHistory); err != nil {
		return err
	}
	columns := []string{
		model.MetricCPUUsage, model.MetricMemoryUsage, model.MetricDiskUsage,
		model.MetricActiveConnections, model.MetricResponseTimeMs, model.MetricErrorRate,
		model.MetricProcessCount, model.MetricThreadCount, model.MetricOpenFDs,
	}
	headers := append([]string{"timestamp"}, columns...)
	if err := w.writeHeader(f, sheetHistory, headers, st); err != nil {
		return err
	}

	for i, sample := range report.History {
		row := i + 2
		f.SetCellValue(sheetHistory, cell("A", row), sample.Timestamp.In(w.timezone).Format(timeLayout))
		for j, name := range columns {
			col := columnName(j + 1)
			value, _ := sample.Value(name)
			f.SetCellValue(sheetHistory, cell(col, row), round1(value))
			if limit, ok := report.Thresholds[name]; ok && value > limit {
				f.SetCellStyle(sheetHistory, cell(col, row), cell(col, row), st.warning)
			}
		}
	}
	f.SetColWidth(sheetHistory, "A", "A", wideColWidth)
	return nil
}

func (w *Writer) writeHeader(f *excelize.File, sheet string, headers []string, st *styles) error {
	for i, h := range headers {
		col := columnName(i)
		if err := f.SetCellValue(sheet, cell(col, 1), h); err != nil {
			return err
		}
		f.SetColWidth(sheet, col, col, defaultColWidth)
	}
	last := columnName(len(headers) - 1)
	return f.SetCellStyle(sheet, "A1", cell(last, 1), st.header)
}

func overallStyle(status model.OverallStatus, st *styles) int {
	switch status {
	case model.OverallCritical:
		return st.critical
	case model.OverallDegraded:
		return st.warning
	default:
		return st.normal
	}
}

func serviceStyle(status model.ServiceState, st *styles) int {
	switch status {
	case model.ServiceStateDown:
		return st.critical
	case model.ServiceStateDegraded, model.ServiceStateMock:
		return st.warning
	default:
		return st.normal
	}
}

func severityStyle(sev model.AlertSeverity, st *styles) int {
	switch sev {
	case model.AlertSeverityCritical:
		return st.critical
	case model.AlertSeverityWarning:
		return st.warning
	default:
		return st.normal
	}
}

// columnName converts a 0-based column index to an Excel column name (A, B, ... Z, AA, ...).
func columnName(index int) string {
	name := ""
	for index >= 0 {
		name = string(rune('A'+index%26)) + name
		index = index/26 - 1
	}
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
