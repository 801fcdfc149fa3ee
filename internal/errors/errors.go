// Package errors defines the error taxonomy of the navigation engine and
// helpers to collect errors reported through the application's error events.
package errors

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Report is one error reported through the application's error channel.
type Report struct {
	Event     string
	Page      string
	Err       error
	Timestamp time.Time
}

// Error implements the error interface
func (r *Report) Error() string {
	if r.Page != "" {
		return fmt.Sprintf("%s: page %s: %v", r.Event, r.Page, r.Err)
	}
	return fmt.Sprintf("%s: %v", r.Event, r.Err)
}

// Unwrap returns the reported error.
func (r *Report) Unwrap() error {
	return r.Err
}

// ErrorCollector collects reports and general errors
type ErrorCollector struct {
	reports []Report
	errors  []error
	mutex   sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		reports: make([]Report, 0),
		errors:  make([]error, 0),
	}
}

// Add adds a report to the collector
func (ec *ErrorCollector) Add(r Report) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	ec.reports = append(ec.reports, r)
}

// AddError adds a general error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetReports returns all collected reports
func (ec *ErrorCollector) GetReports() []Report {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	// Return a copy to avoid race conditions
	result := make([]Report, len(ec.reports))
	copy(result, ec.reports)
	return result
}

// GetAllErrors returns all collected errors (reports and general)
func (ec *ErrorCollector) GetAllErrors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	allErrors := make([]error, 0, len(ec.reports)+len(ec.errors))
	for i := range ec.reports {
		r := ec.reports[i]
		allErrors = append(allErrors, &r)
	}
	allErrors = append(allErrors, ec.errors...)

	return allErrors
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.reports) > 0 || len(ec.errors) > 0
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.reports = ec.reports[:0]
	ec.errors = ec.errors[:0]
}

// GetReportsByEvent returns reports emitted under one event name
func (ec *ErrorCollector) GetReportsByEvent(event string) []Report {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var matched []Report
	for _, r := range ec.reports {
		if r.Event == event {
			matched = append(matched, r)
		}
	}
	return matched
}

// GetReportsByPage returns reports for a specific page
func (ec *ErrorCollector) GetReportsByPage(page string) []Report {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var matched []Report
	for _, r := range ec.reports {
		if r.Page == page {
			matched = append(matched, r)
		}
	}
	return matched
}

// Summary renders one line per collected error.
func (ec *ErrorCollector) Summary() string {
	all := ec.GetAllErrors()
	if len(all) == 0 {
		return ""
	}

	lines := make([]string, 0, len(all))
	for _, err := range all {
		lines = append(lines, "  - "+err.Error())
	}
	return fmt.Sprintf("%d error(s):\n%s", len(all), strings.Join(lines, "\n"))
}
