package service

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"healthwatch/internal/model"
)

// Evaluate compares a sample against the configured limits and returns one
// open system alert per breached metric, in metric-name order. A metric
// breaches when its value is strictly greater than its limit.
//
// Evaluate is pure: the alerts carry no id and are stamped with the
// sample's timestamp, so identical inputs yield identical alerts. Unknown
// metric names are ignored.
func Evaluate(sample model.MetricSample, thresholds map[string]float64) []*model.Alert {
	names := make([]string, 0, len(thresholds))
	for name := range thresholds {
		names = append(names, name)
	}
	sort.Strings(names)

	var alerts []*model.Alert
	for _, name := range names {
		limit := thresholds[name]
		value, ok := sample.Value(name)
		if !ok || value <= limit {
			continue
		}

		alerts = append(alerts, &model.Alert{
			Type:      model.ThresholdAlertType(name),
			Severity:  breachSeverity(model.KnownMetrics[name]),
			Message:   fmt.Sprintf("%s is %s, exceeding threshold %s", name, formatValue(value), formatValue(limit)),
			CreatedAt: sample.Timestamp,
			State:     model.AlertStateOpen,
			Origin:    model.AlertOriginSystem,
			Source:    name,
			Value:     &value,
			Threshold: &limit,
		})
	}
	return alerts
}

// EvaluateServices returns one critical dependency-down alert for every
// service whose latest status is down, in service-name order.
func EvaluateServices(statuses map[string]model.ServiceStatus) []*model.Alert {
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	var alerts []*model.Alert
	for _, name := range names {
		st := statuses[name]
		if st.Status != model.ServiceStateDown {
			continue
		}

		reason := "probe failed"
		if st.ErrorMessage != nil && *st.ErrorMessage != "" {
			reason = *st.ErrorMessage
		}
		alerts = append(alerts, &model.Alert{
			Type:      model.AlertTypeServiceDown,
			Severity:  model.AlertSeverityCritical,
			Message:   fmt.Sprintf("service %s is down: %s", name, reason),
			CreatedAt: st.LastCheck,
			State:     model.AlertStateOpen,
			Origin:    model.AlertOriginSystem,
			Source:    name,
		})
	}
	return alerts
}

// formatValue prints v with the shortest exact representation, keeping one
// decimal on whole numbers (80 -> "80.0", 0.05 -> "0.05").
func formatValue(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// breachSeverity maps a metric category to the severity of its breach alert.
func breachSeverity(category model.MetricCategory) model.AlertSeverity {
	switch category {
	case model.MetricCategoryResource, model.MetricCategoryTraffic, model.MetricCategoryProcess:
		return model.AlertSeverityWarning
	default:
		return model.AlertSeverityInfo
	}
}
