package notify

import (
	"fmt"

	goslack "github.com/slack-go/slack"

	"github.com/miesc-dev/miesc/pkg/audit"
	"github.com/miesc-dev/miesc/pkg/finding"
)

const maxBlockTextLength = 2900

var stateEmoji = map[audit.State]string{
	audit.StateCompleted: ":white_check_mark:",
	audit.StateFailed:    ":x:",
	audit.StateCancelled: ":no_entry_sign:",
}

var stateLabel = map[audit.State]string{
	audit.StateCompleted: "Audit Complete",
	audit.StateFailed:    "Audit Failed",
	audit.StateCancelled: "Audit Cancelled",
}

var severityOrder = []finding.Severity{
	finding.SeverityCritical,
	finding.SeverityHigh,
	finding.SeverityMedium,
	finding.SeverityLow,
	finding.SeverityInfo,
}

func auditURL(auditID, dashboardURL string) string {
	if dashboardURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/audits/%s", dashboardURL, auditID)
}

// buildTerminalMessage renders report as Block Kit blocks: a headline with
// state emoji, a per-severity finding count, a partial_timeout warning when
// the audit hit its global deadline, and a button linking to the dashboard.
func buildTerminalMessage(report audit.Report, dashboardURL string) []goslack.Block {
	emoji := stateEmoji[report.State]
	if emoji == "" {
		emoji = ":question:"
	}
	label := stateLabel[report.State]
	if label == "" {
		label = "Audit " + string(report.State)
	}

	headline := fmt.Sprintf("%s *%s* — `%s`", emoji, label, report.AuditID)
	if report.PartialTimeout {
		headline += "\n:warning: partial results — global deadline reached"
	}
	if report.Error != "" {
		headline += fmt.Sprintf("\n*Error:*\n%s", truncateForSlack(report.Error))
	}

	var blocks []goslack.Block
	blocks = append(blocks, goslack.NewSectionBlock(
		goslack.NewTextBlockObject(goslack.MarkdownType, headline, false, false),
		nil, nil,
	))

	if summary := severitySummaryText(report.Findings); summary != "" {
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, summary, false, false),
			nil, nil,
		))
	}

	if url := auditURL(report.AuditID, dashboardURL); url != "" {
		btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Audit", false, false))
		btn.URL = url
		blocks = append(blocks, goslack.NewActionBlock("", btn))
	}

	return blocks
}

func severitySummaryText(findings []finding.CorrelatedFinding) string {
	counts := make(map[finding.Severity]int, len(severityOrder))
	for _, f := range findings {
		counts[f.SeverityFinal]++
	}

	text := "*Findings:*"
	found := false
	for _, sev := range severityOrder {
		if n := counts[sev]; n > 0 {
			text += fmt.Sprintf("  %s: %d", sev, n)
			found = true
		}
	}
	if !found {
		return ""
	}
	return text
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated — view full report in dashboard)_"
}
