// Package html writes health reports as standalone HTML pages.
package html

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"healthwatch/internal/model"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

const timeLayout = "2006-01-02 15:04:05"

// Writer implements report.ReportWriter for HTML format.
type Writer struct {
	timezone     *time.Location
	templatePath string // User-defined template path (optional)
}

// TemplateData holds all data passed to the HTML template.
type TemplateData struct {
	Title         string
	GeneratedAt   string
	Version       string
	OverallStatus string
	OverallClass  string
	Uptime        string
	AlertCounts   model.AlertCounts
	Metrics       []*MetricData
	Services      []*ServiceData
	Alerts        []*AlertData
	HistoryCount  int
}

// MetricData is one row of the latest-sample table.
type MetricData struct {
	Name        string
	Value       string
	Threshold   string
	StatusClass string
}

// ServiceData is one row of the services table.
type ServiceData struct {
	Name         string
	Status       string
	StatusClass  string
	LastCheck    string
	ResponseTime string
	Error        string
}

// AlertData is one row of the alerts table.
type AlertData struct {
	ID         string
	Type       string
	Severity   string
	LevelClass string
	State      string
	CreatedAt  string
	Message    string
}

// NewWriter creates a new HTML report writer.
// A nil timezone means UTC. If templatePath is empty, the embedded default
// template is used.
func NewWriter(timezone *time.Location, templatePath string) *Writer {
	if timezone == nil {
		timezone = time.UTC
	}
	return &Writer{
		timezone:     timezone,
		templatePath: templatePath,
	}
}

// Format returns the format identifier for this writer.
func (w *Writer) Format() string {
	return "html"
}

// Write generates an HTML page from the report.
func (w *Writer) Write(report *model.HealthReport, outputPath string) error {
	if report == nil {
		return fmt.Errorf("health report is nil")
	}

	if !strings.HasSuffix(strings.ToLower(outputPath), ".html") {
		outputPath = outputPath + ".html"
	}

	tmpl, err := w.loadTemplate()
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	data := w.prepareTemplateData(report)

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// loadTemplate tries a user-defined template first, then falls back to the
// embedded default.
func (w *Writer) loadTemplate() (*template.Template, error) {
	funcMap := template.FuncMap{
		"upper": strings.ToUpper,
	}

	if w.templatePath != "" {
		if _, err := os.Stat(w.templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(w.templatePath)).Funcs(funcMap).ParseFiles(w.templatePath)
			if err != nil {
				return nil, fmt.Errorf("failed to parse user template: %w", err)
			}
			return tmpl, nil
		}
		// User template not found, fall through to default
	}

	tmpl, err := template.New("default.html").Funcs(funcMap).ParseFS(embeddedTemplates, "templates/default.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

// prepareTemplateData converts a HealthReport into TemplateData.
func (w *Writer) prepareTemplateData(report *model.HealthReport) *TemplateData {
	s := report.Summary
	data := &TemplateData{
		Title:         "System Health Report",
		GeneratedAt:   report.GeneratedAt.In(w.timezone).Format(timeLayout),
		Version:       report.Version,
		OverallStatus: string(s.OverallStatus),
		OverallClass:  overallClass(s.OverallStatus),
		Uptime:        s.Uptime.Round(time.Second).String(),
		AlertCounts:   s.AlertCounts,
		HistoryCount:  len(report.History),
	}

	if s.Metrics != nil {
		data.Metrics = w.convertMetrics(*s.Metrics, report.Thresholds)
	}
	for _, svc := range report.SortedServices() {
		data.Services = append(data.Services, w.convertService(svc))
	}
	data.Alerts = w.convertAlerts(report.Alerts)

	return data
}

func (w *Writer) convertMetrics(sample model.MetricSample, thresholds map[string]float64) []*MetricData {
	names := []string{
		model.MetricCPUUsage, model.MetricMemoryUsage, model.MetricDiskUsage,
		model.MetricActiveConnections, model.MetricResponseTimeMs, model.MetricErrorRate,
		model.MetricProcessCount, model.MetricThreadCount, model.MetricOpenFDs,
	}

	out := make([]*MetricData, 0, len(names))
	for _, name := range names {
		value, _ := sample.Value(name)
		md := &MetricData{
			Name:        name,
			Value:       fmt.Sprintf("%.1f", value),
			Threshold:   "-",
			StatusClass: "status-normal",
		}
		if limit, ok := thresholds[name]; ok {
			md.Threshold = fmt.Sprintf("%.1f", limit)
			if value > limit {
				md.StatusClass = "status-warning"
			}
		}
		out = append(out, md)
	}
	return out
}

func (w *Writer) convertService(svc model.ServiceStatus) *ServiceData {
	sd := &ServiceData{
		Name:         svc.Name,
		Status:       string(svc.Status),
		StatusClass:  serviceClass(svc.Status),
		LastCheck:    "-",
		ResponseTime: "-",
	}
	if !svc.LastCheck.IsZero() {
		sd.LastCheck = svc.LastCheck.In(w.timezone).Format(timeLayout)
	}
	if svc.ResponseTimeMs != nil {
		sd.ResponseTime = fmt.Sprintf("%.1f ms", *svc.ResponseTimeMs)
	}
	if svc.ErrorMessage != nil {
		sd.Error = *svc.ErrorMessage
	}
	return sd
}

func (w *Writer) convertAlerts(alerts []*model.Alert) []*AlertData {
	out := make([]*AlertData, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, &AlertData{
			ID:         a.ID,
			Type:       a.Type,
			Severity:   string(a.Severity),
			LevelClass: severityClass(a.Severity),
			State:      string(a.State),
			CreatedAt:  a.CreatedAt.In(w.timezone).Format(timeLayout),
			Message:    a.Message,
		})
	}
	return out
}

func overallClass(status model.OverallStatus) string {
	switch status {
	case model.OverallCritical:
		return "status-critical"
	case model.OverallDegraded:
		return "status-warning"
	default:
		return "status-normal"
	}
}

func serviceClass(status model.ServiceState) string {
	switch status {
	case model.ServiceStateDown:
		return "status-critical"
	case model.ServiceStateDegraded, model.ServiceStateMock:
		return "status-warning"
	case model.ServiceStateUnknown:
		return "status-unknown"
	default:
		return "status-normal"
	}
}

func severityClass(sev model.AlertSeverity) string {
	switch sev {
	case model.AlertSeverityCritical:
		return "alert-critical"
	case model.AlertSeverityWarning:
		return "alert-warning"
	default:
		return "alert-info"
	}
}
