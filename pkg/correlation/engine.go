// Package correlation implements the Correlation Engine (spec.md §4.6):
// fingerprinting, duplicate merging across tools, false-positive-prior
// discounting, cross-validation boosting, semantic-context adjustment, and
// final severity derivation.
package correlation

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/miesc-dev/miesc/pkg/finding"
)

// Cross-validation and confidence-bound constants (spec.md §4.6 step 4,
// "multiple independent tools agreeing raises confidence, but never
// unboundedly"). CrossValidationBoostFactor is applied once per distinct
// corroborating tool beyond the first; the confidence cap then tightens as
// more tools agree, since broad agreement across layers is stronger
// evidence than agreement within one layer.
const (
	CrossValidationBoostFactor = 0.25

	ConfidenceCapSingleWitness = 0.60
	ConfidenceCapTwoWitnesses  = 0.98
	ConfidenceCapThreeOrMore   = 0.99
	MinConfidence              = 0.01

	// PromotionConfidenceThreshold and DemotionConfidenceThreshold are
	// spec.md §4.6 step 6's exact severity-adjustment thresholds: promote
	// one level when witnesses span >=3 tools AND confidence_adjusted is at
	// least this high; demote one level whenever confidence_adjusted falls
	// below this low, regardless of witness count.
	PromotionConfidenceThreshold = 0.85
	DemotionConfidenceThreshold  = 0.30

	// HumanReviewLow and HumanReviewHigh bound the ambiguous confidence
	// band: a correlated finding whose adjusted confidence falls strictly
	// between them is flagged for human review rather than auto-accepted
	// or auto-discarded.
	HumanReviewLow  = 0.40
	HumanReviewHigh = 0.60
)

// defaultCrossValidationRequired is the CROSS_VALIDATION_REQUIRED set
// spec.md §4.6 step 4 names explicitly: vulnerability classes severe enough
// that a single tool's say-so is never enough to reach full confidence.
// Extendable per-deployment via WithCrossValidationRequired (spec.md §6.5's
// `correlation.cross_validation_required`).
var defaultCrossValidationRequired = []string{
	"reentrancy-eth",
	"arbitrary-send",
	"controlled-delegatecall",
	"self-destruct",
	"unprotected-upgrade",
}

// Engine correlates findings for a single audit. One Engine instance is
// scoped to one audit_id — mirroring the per-audit fingerprint index the
// scheduler and bus already partition by — so two concurrent audits never
// share locking or state.
type Engine struct {
	fpPriors   finding.FPPriorTable
	compliance finding.ComplianceTable
	semantic   SemanticAnalyzer

	crossValidationRequired map[string]bool
	singleWitnessCap        float64

	mu    sync.Mutex
	index map[string]*finding.CorrelatedFinding // fingerprint -> entry
}

// NewEngine constructs an Engine. semantic may be nil, in which case
// NoopSemanticAnalyzer is used.
func NewEngine(fpPriors finding.FPPriorTable, compliance finding.ComplianceTable, semantic SemanticAnalyzer) *Engine {
	if semantic == nil {
		semantic = NoopSemanticAnalyzer{}
	}
	required := make(map[string]bool, len(defaultCrossValidationRequired))
	for _, class := range defaultCrossValidationRequired {
		required[class] = true
	}
	return &Engine{
		fpPriors:                fpPriors,
		compliance:              compliance,
		semantic:                semantic,
		crossValidationRequired: required,
		singleWitnessCap:        ConfidenceCapSingleWitness,
		index:                   make(map[string]*finding.CorrelatedFinding),
	}
}

// WithCrossValidationRequired extends the CROSS_VALIDATION_REQUIRED set with
// additional vulnerability classes (spec.md §6.5's
// `correlation.cross_validation_required`), matched against either the
// taxonomy SWC id or the canonicalized native vulnerability_type.
func (e *Engine) WithCrossValidationRequired(extra []string) *Engine {
	for _, class := range extra {
		class = strings.ToLower(strings.TrimSpace(class))
		if class != "" {
			e.crossValidationRequired[class] = true
		}
	}
	return e
}

// WithSingleWitnessCap overrides the single-witness confidence cap applied
// to CROSS_VALIDATION_REQUIRED classes (spec.md §6.5's
// `correlation.single_tool_max_confidence`, default 0.60). A cap <= 0 is
// ignored.
func (e *Engine) WithSingleWitnessCap(cap float64) *Engine {
	if cap > 0 {
		e.singleWitnessCap = cap
	}
	return e
}

// requiresCrossValidation reports whether f's vulnerability class is in the
// CROSS_VALIDATION_REQUIRED set, checked against both its taxonomy SWC id
// and its canonicalized native vulnerability_type so the set matches
// regardless of which normalization a deployment's config happens to name.
func (e *Engine) requiresCrossValidation(f finding.Finding) bool {
	if e.crossValidationRequired[canonicalVulnClass(f.VulnerabilityType)] {
		return true
	}
	if swc := strings.TrimSpace(f.Taxonomy.SWC); swc != "" {
		return e.crossValidationRequired[strings.ToLower(swc)]
	}
	return false
}

// Ingest folds f into the correlation index, creating a new correlated
// entry or merging f as an additional witness of an existing one, and
// returns the updated entry.
func (e *Engine) Ingest(f finding.Finding) finding.CorrelatedFinding {
	fp := Fingerprint(f)

	e.mu.Lock()
	defer e.mu.Unlock()

	entry, exists := e.index[fp]
	if !exists {
		entry = &finding.CorrelatedFinding{
			Fingerprint:    fp,
			Representative: f,
			Witnesses:      []finding.Finding{f},
			Revision:       1,
			UpdatedAt:      time.Now(),
		}
		e.index[fp] = entry
	} else {
		entry.Witnesses = mergeWitness(entry.Witnesses, f)
		if f.SeverityNormalized.Rank() > entry.Representative.SeverityNormalized.Rank() {
			entry.Representative = f
		}
		entry.Revision++
		entry.UpdatedAt = time.Now()
	}

	e.recompute(entry)
	return *entry
}

// mergeWitness appends f to witnesses, replacing (not duplicating) any
// prior witness from the same tool — a tool that reports the same bug
// twice (e.g. across a retry) never counts as two independent corroborating
// witnesses (spec.md §4.6 step 4: "two findings from the same tool are
// never double-counted").
func mergeWitness(witnesses []finding.Finding, f finding.Finding) []finding.Finding {
	for i, w := range witnesses {
		if w.SourceTool == f.SourceTool {
			witnesses[i] = f
			return witnesses
		}
	}
	return append(witnesses, f)
}

// recompute derives ConfidenceAdjusted, SeverityFinal, RequiresHumanReview,
// and ComplianceHits from entry's current witness set. Caller must hold
// e.mu.
func (e *Engine) recompute(entry *finding.CorrelatedFinding) {
	tools := entry.WitnessTools()
	distinctToolCount := len(tools)

	// Per-detector FP-prior discount applies to each witness's own raw
	// confidence before any cross-witness aggregation (spec.md §4.6 step 3):
	// a witness's confidence_raw is multiplied by (1 - fp_prior) for *that*
	// witness's (tool, detector) pair, never a different witness's prior.
	base := e.maxDiscountedWitnessConfidence(entry.Witnesses)

	semanticFactor := e.semantic.Discount(entry.Representative)
	adjusted := discount(base, semanticFactor)

	if distinctToolCount > 1 {
		adjusted = boost(adjusted, CrossValidationBoostFactor*float64(distinctToolCount-1))
	}

	adjusted = clamp(adjusted, MinConfidence, e.confidenceCap(entry.Representative, distinctToolCount))
	entry.ConfidenceAdjusted = adjusted

	severity := entry.Representative.SeverityNormalized
	for _, w := range entry.Witnesses {
		severity = severity.Max(w.SeverityNormalized)
	}
	if distinctToolCount >= 3 && adjusted >= PromotionConfidenceThreshold {
		severity = severity.Promote()
	} else if adjusted < DemotionConfidenceThreshold {
		severity = severity.Demote()
	}
	entry.SeverityFinal = severity

	entry.RequiresHumanReview = disagreesOnSeverity(entry.Witnesses) ||
		(adjusted > HumanReviewLow && adjusted < HumanReviewHigh)

	entry.ComplianceHits = e.compliance.Hits(entry.Representative.Taxonomy)
}

// confidenceCap returns the ceiling applied to adjusted confidence.
// spec.md §4.6 step 4 scopes the tight 0.60 single-witness cap to the
// CROSS_VALIDATION_REQUIRED set only; any other single-witness finding is
// bounded only by the general [0.01, 0.99] range. Multi-witness findings are
// always bounded by the cross-validation boost ceiling regardless of class.
func (e *Engine) confidenceCap(representative finding.Finding, distinctToolCount int) float64 {
	switch {
	case distinctToolCount <= 1:
		if e.requiresCrossValidation(representative) {
			return e.singleWitnessCap
		}
		return ConfidenceCapThreeOrMore
	case distinctToolCount == 2:
		return ConfidenceCapTwoWitnesses
	default:
		return ConfidenceCapThreeOrMore
	}
}

// maxDiscountedWitnessConfidence returns the highest confidence_adjusted
// across witnesses after applying each witness's own per-(tool, detector)
// FP prior to its own confidence_raw (spec.md §4.6 step 3).
func (e *Engine) maxDiscountedWitnessConfidence(witnesses []finding.Finding) float64 {
	var max float64
	for _, w := range witnesses {
		prior := e.fpPriors.Prior(w.SourceTool, w.VulnerabilityType)
		adjusted := discount(w.ConfidenceRaw, prior)
		if adjusted > max {
			max = adjusted
		}
	}
	return max
}

func disagreesOnSeverity(witnesses []finding.Finding) bool {
	if len(witnesses) < 2 {
		return false
	}
	lo, hi := witnesses[0].SeverityNormalized.Rank(), witnesses[0].SeverityNormalized.Rank()
	for _, w := range witnesses[1:] {
		r := w.SeverityNormalized.Rank()
		if r < lo {
			lo = r
		}
		if r > hi {
			hi = r
		}
	}
	return hi-lo >= 2
}

// Snapshot returns every correlated finding accumulated so far, sorted by
// fingerprint for deterministic report ordering.
func (e *Engine) Snapshot() []finding.CorrelatedFinding {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]finding.CorrelatedFinding, 0, len(e.index))
	for _, entry := range e.index {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out
}

// Len returns the number of distinct correlated findings accumulated.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.index)
}
