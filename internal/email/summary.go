// Package email renders batch summary notifications shared by the senders.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"cartellino/internal/domain"
)

// Subject returns the notification subject for s.
func Subject(s *domain.BatchSummary) string {
	status := "completed"
	if s.Failed > 0 {
		status = fmt.Sprintf("completed with %d failures", s.Failed)
	}
	return fmt.Sprintf("Cartellino batch %s %s", s.StartedAt.UTC().Format("2006-01-02 15:04"), status)
}

// Text renders the plain text body for s.
func Text(s *domain.BatchSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Root folder: %s\n", s.RootID)
	fmt.Fprintf(&b, "Elapsed: %s\n", s.Elapsed.Round(time.Second))
	fmt.Fprintf(&b, "Queued: %d, cached: %d, succeeded: %d, failed: %d\n", s.Queued, s.Cached, s.Succeeded, s.Failed)

	if len(s.NeedsReview) > 0 {
		b.WriteString("\nNeeds review (worked hours do not match the monthly total):\n")
		for _, r := range s.NeedsReview {
			fmt.Fprintf(&b, "- %s: %s\n", r.Employee, r.FileName)
		}
	}
	if len(s.Failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, r := range s.Failures {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", r.Employee, r.FileName, r.Reason)
		}
	}
	return b.String()
}

var summaryTmpl = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 700px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Timesheet batch summary</h2>
  <p>Root folder <code>{{.RootID}}</code>, elapsed {{.Elapsed}}.</p>
  <table style="border-collapse: collapse;">
    <tr><td>Queued</td><td>{{.Queued}}</td></tr>
    <tr><td>Cached</td><td>{{.Cached}}</td></tr>
    <tr><td>Succeeded</td><td>{{.Succeeded}}</td></tr>
    <tr><td>Failed</td><td>{{.Failed}}</td></tr>
  </table>
  {{- if .NeedsReview}}
  <h3>Needs review</h3>
  <ul>{{range .NeedsReview}}<li>{{.Employee}}: {{.FileName}}</li>{{end}}</ul>
  {{- end}}
  {{- if .Failures}}
  <h3>Failures</h3>
  <ul>{{range .Failures}}<li>{{.Employee}}: {{.FileName}} ({{.Reason}})</li>{{end}}</ul>
  {{- end}}
</body>
</html>`))

// HTML renders the HTML body for s with all values escaped.
func HTML(s *domain.BatchSummary) (string, error) {
	view := struct {
		*domain.BatchSummary
		Elapsed string
	}{s, s.Elapsed.Round(time.Second).String()}

	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("rendering summary email: %w", err)
	}
	return buf.String(), nil
}
