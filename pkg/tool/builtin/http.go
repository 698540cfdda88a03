package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/miesc-dev/miesc/pkg/aocerrors"
	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/tool"
)

// HTTPParseFunc turns a sidecar's JSON response body into RawFindings.
type HTTPParseFunc func(body []byte) ([]finding.RawFinding, error)

// HTTPAdapter wraps an HTTP sidecar analyzer (spec.md §4.2) — the shape used
// by the AI-assisted, ML-classifier, and ensemble layers, which run as
// long-lived services rather than one-shot binaries (replacing the
// teacher's gRPC sidecar pattern, unreproducible here without generated
// stubs — see DESIGN.md).
type HTTPAdapter struct {
	tool.BaseAdapter
	BaseURL    string
	HealthPath string
	AnalyzeURL string
	Client     *http.Client
	Parse      HTTPParseFunc
}

func (a HTTPAdapter) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return http.DefaultClient
}

// Availability performs a GET against HealthPath.
func (a HTTPAdapter) Availability(ctx context.Context) finding.Availability {
	if a.BaseURL == "" {
		return finding.AvailabilityMisconfigured
	}
	probeCtx, cancel := context.WithTimeout(ctx, AvailabilityProbeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, a.BaseURL+a.HealthPath, nil)
	if err != nil {
		return finding.AvailabilityMisconfigured
	}
	resp, err := a.client().Do(req)
	if err != nil {
		return finding.AvailabilityExternalDown
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return finding.AvailabilityRequiresCredential
	}
	if resp.StatusCode >= 500 {
		return finding.AvailabilityExternalDown
	}
	return finding.AvailabilityAvailable
}

// Analyze POSTs the target path and profile to AnalyzeURL and parses the
// JSON response body.
func (a HTTPAdapter) Analyze(ctx context.Context, req tool.AnalyzeRequest) (tool.AnalyzeResult, error) {
	payload, err := json.Marshal(map[string]any{
		"audit_id":    req.AuditID,
		"target_path": req.TargetPath,
		"profile":     req.Profile,
		"options":     req.Options,
	})
	if err != nil {
		return tool.AnalyzeResult{}, aocerrors.New(aocerrors.KindInternal, fmt.Sprintf("%s.Analyze", a.Meta.ID), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+a.AnalyzeURL, bytes.NewReader(payload))
	if err != nil {
		return tool.AnalyzeResult{}, aocerrors.New(aocerrors.KindInternal, fmt.Sprintf("%s.Analyze", a.Meta.ID), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client().Do(httpReq)
	if err != nil {
		kind := aocerrors.KindToolFailedTransient
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = aocerrors.KindToolTimeout
		}
		return tool.AnalyzeResult{PartialTimeout: ctx.Err() != nil}, aocerrors.New(kind, fmt.Sprintf("%s.Analyze", a.Meta.ID), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tool.AnalyzeResult{}, aocerrors.New(aocerrors.KindToolFailedTransient, fmt.Sprintf("%s.Analyze", a.Meta.ID), err)
	}

	if resp.StatusCode >= 500 {
		return tool.AnalyzeResult{Stdout: string(body)}, aocerrors.Wrapf(aocerrors.KindToolFailedTransient, fmt.Sprintf("%s.Analyze", a.Meta.ID), "sidecar returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return tool.AnalyzeResult{Stdout: string(body)}, aocerrors.Wrapf(aocerrors.KindToolFailedPermanent, fmt.Sprintf("%s.Analyze", a.Meta.ID), "sidecar returned %d", resp.StatusCode)
	}

	raw, err := a.Parse(body)
	if err != nil {
		return tool.AnalyzeResult{Stdout: string(body)}, aocerrors.New(aocerrors.KindToolFailedPermanent, fmt.Sprintf("%s.Analyze", a.Meta.ID), err)
	}
	return tool.AnalyzeResult{Raw: raw, Stdout: string(body)}, nil
}
