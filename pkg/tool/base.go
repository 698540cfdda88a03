package tool

import "github.com/miesc-dev/miesc/pkg/finding"

// BaseAdapter carries the boilerplate common to the builtin adapters:
// static metadata and a Normalize that delegates to finding.Normalize with
// this adapter's own severity/taxonomy tables. Embed it and implement
// Availability/Analyze for the concrete tool.
type BaseAdapter struct {
	Meta     finding.Tool
	Severity finding.SeverityTable
	Taxonomy finding.TaxonomyTable
}

// Metadata implements Adapter.
func (b BaseAdapter) Metadata() finding.Tool { return b.Meta }

// Normalize implements Adapter using b's tables.
func (b BaseAdapter) Normalize(raw finding.RawFinding) (finding.Finding, error) {
	return finding.Normalize(raw, b.Meta.Layer, b.Severity, b.Taxonomy)
}
