// Package store implements the persisted state layout of spec.md §6.6: a
// per-audit directory tree written unconditionally whenever an output
// directory is configured, plus an optional Postgres sink that persists
// the bus event log for replay across process restarts. Generalized from
// the teacher's pkg/database, which separates "connection/health" from
// "schema" concerns — mirrored here as "file sink" vs "Postgres sink".
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/miesc-dev/miesc/pkg/finding"
)

// FileWriter writes one audit's plan, per-tool findings, correlated
// findings, and summary under <baseDir>/<audit_id>/, per spec.md §6.6's
// file layout. All files are UTF-8 JSON, field names stable across
// versions.
type FileWriter struct {
	baseDir string
	mu      sync.Mutex
}

// NewFileWriter returns a FileWriter rooted at baseDir. baseDir is created
// lazily, per audit, not at construction time.
func NewFileWriter(baseDir string) *FileWriter {
	return &FileWriter{baseDir: baseDir}
}

func (w *FileWriter) auditDir(auditID string) string {
	return filepath.Join(w.baseDir, auditID)
}

// WritePlan writes plan.json.
func (w *FileWriter) WritePlan(auditID string, plan any) error {
	return w.writeJSON(auditID, "plan.json", plan)
}

// WriteFinding writes one raw+normalized finding under
// findings/<tool_id>/<finding_id>.json.
func (w *FileWriter) WriteFinding(auditID, toolID string, f finding.Finding) error {
	dir := filepath.Join(w.auditDir(auditID), "findings", toolID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	name := f.ID
	if name == "" {
		name = fmt.Sprintf("%s-%d", f.SourceTool, f.ProducedAt.UnixNano())
	}
	return w.writeFile(filepath.Join(dir, name+".json"), f)
}

// WriteCorrelated writes correlated.json, the final CorrelatedFinding set
// at audit end.
func (w *FileWriter) WriteCorrelated(auditID string, findings []finding.CorrelatedFinding) error {
	return w.writeJSON(auditID, "correlated.json", findings)
}

// WriteSummary writes summary.json, the report returned by get_audit.
func (w *FileWriter) WriteSummary(auditID string, report any) error {
	return w.writeJSON(auditID, "summary.json", report)
}

func (w *FileWriter) writeJSON(auditID, name string, v any) error {
	dir := w.auditDir(auditID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	return w.writeFile(filepath.Join(dir, name), v)
}

func (w *FileWriter) writeFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", path, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return os.WriteFile(path, data, 0o644)
}
