package api

import (
	"context"
	"time"

	"github.com/miesc-dev/miesc/pkg/audit"
	"github.com/miesc-dev/miesc/pkg/bus"
	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/tool"
)

// fakeAdapter is a minimal tool.Adapter for exercising the server against a
// real Coordinator/Scheduler, mirroring pkg/audit's own test fake.
type fakeAdapter struct {
	meta  finding.Tool
	delay time.Duration
	raw   []finding.RawFinding
}

func (f fakeAdapter) Metadata() finding.Tool { return f.meta }
func (f fakeAdapter) Availability(context.Context) finding.Availability {
	return finding.AvailabilityAvailable
}
func (f fakeAdapter) Analyze(ctx context.Context, req tool.AnalyzeRequest) (tool.AnalyzeResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return tool.AnalyzeResult{}, ctx.Err()
		}
	}
	return tool.AnalyzeResult{Raw: f.raw}, nil
}
func (f fakeAdapter) Normalize(raw finding.RawFinding) (finding.Finding, error) {
	return finding.Normalize(raw, f.meta.Layer, nil, nil)
}

func sampleRaw(toolID string) []finding.RawFinding {
	return []finding.RawFinding{{
		SourceTool:        toolID,
		VulnerabilityType: "reentrancy",
		Location:          finding.Location{File: "A.sol", LineStart: 1},
	}}
}

// newTestServer builds a Server wired to one fake tool for handler/route
// tests that don't need to exercise the HTTP transport itself.
func newTestServer() (*Server, *tool.Registry, *bus.Bus) {
	reg := tool.NewRegistry()
	_ = reg.Register(fakeAdapter{meta: finding.Tool{ID: "t1", Layer: 1}, raw: sampleRaw("t1")})
	b := bus.New(0, 0, nil)
	coord := audit.New(reg, b, nil, nil, nil)
	s := NewServer(coord, reg, b, MetricsResult{})
	return s, reg, b
}
