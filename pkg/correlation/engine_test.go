package correlation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miesc-dev/miesc/pkg/correlation"
	"github.com/miesc-dev/miesc/pkg/finding"
)

func mkFinding(tool string, sev finding.Severity, confidence float64, line int) finding.Finding {
	return finding.Finding{
		ID:                 tool + "-finding",
		SourceTool:         tool,
		VulnerabilityType:  "reentrancy-eth",
		SeverityNormalized: sev,
		ConfidenceRaw:      confidence,
		Location:           finding.Location{File: "Vault.sol", LineStart: line},
	}
}

func TestFingerprint_DeterministicAndFuzzy(t *testing.T) {
	a := mkFinding("slither", finding.SeverityHigh, 0.8, 42)
	b := mkFinding("manticore", finding.SeverityHigh, 0.7, 43) // within bucket of 3

	assert.Equal(t, correlation.Fingerprint(a), correlation.Fingerprint(a))
	assert.Equal(t, correlation.Fingerprint(a), correlation.Fingerprint(b), "lines within the bucket window must fingerprint identically")
}

func TestFingerprint_DifferentFileDiffers(t *testing.T) {
	a := mkFinding("slither", finding.SeverityHigh, 0.8, 42)
	b := a
	b.Location.File = "Other.sol"
	assert.NotEqual(t, correlation.Fingerprint(a), correlation.Fingerprint(b))
}

func TestFingerprint_TaxonomyNormalizesAcrossToolNativeLabels(t *testing.T) {
	a := mkFinding("slither", finding.SeverityHigh, 0.8, 42)
	a.VulnerabilityType = "reentrancy-eth" // slither's native Check label
	a.Taxonomy = finding.Taxonomy{SWC: "SWC-107"}

	b := mkFinding("manticore", finding.SeverityHigh, 0.7, 43)
	b.VulnerabilityType = "external-call-before-state-update" // manticore's native Name label
	b.Taxonomy = finding.Taxonomy{SWC: "SWC-107"}

	assert.Equal(t, correlation.Fingerprint(a), correlation.Fingerprint(b),
		"two tools' different native labels for the same SWC id must fingerprint identically")
}

func TestFingerprint_NoTaxonomyFallsBackToNativeLabel(t *testing.T) {
	a := mkFinding("slither", finding.SeverityHigh, 0.8, 42)
	a.VulnerabilityType = "reentrancy-eth"
	b := mkFinding("slither", finding.SeverityHigh, 0.8, 42)
	b.VulnerabilityType = "unchecked-call"

	assert.NotEqual(t, correlation.Fingerprint(a), correlation.Fingerprint(b),
		"without a shared taxonomy id, distinct native labels must not collapse")
}

func TestFingerprint_DifferentContractDiffers(t *testing.T) {
	a := mkFinding("slither", finding.SeverityHigh, 0.8, 42)
	a.Location.Contract = "Vault"
	b := a
	b.Location.Contract = "Token"
	assert.NotEqual(t, correlation.Fingerprint(a), correlation.Fingerprint(b),
		"the same class/file/line in two different contracts must not collapse")
}

func TestFingerprint_DifferentFunctionDiffers(t *testing.T) {
	a := mkFinding("slither", finding.SeverityHigh, 0.8, 42)
	a.Location.Function = "withdraw"
	b := a
	b.Location.Function = "deposit"
	assert.NotEqual(t, correlation.Fingerprint(a), correlation.Fingerprint(b),
		"the same class/file/line in two different functions must not collapse")
}

func TestEngine_SingleWitnessConfidenceCapped(t *testing.T) {
	e := correlation.NewEngine(nil, nil, nil)
	result := e.Ingest(mkFinding("slither", finding.SeverityHigh, 0.99, 10))
	assert.LessOrEqual(t, result.ConfidenceAdjusted, correlation.ConfidenceCapSingleWitness)
	assert.Len(t, result.Witnesses, 1)
}

func TestEngine_SingleWitnessCapOnlyAppliesToCrossValidationRequiredClasses(t *testing.T) {
	e := correlation.NewEngine(nil, nil, nil)
	f := mkFinding("slither", finding.SeverityHigh, 0.95, 10)
	f.VulnerabilityType = "unchecked-call" // not in the CROSS_VALIDATION_REQUIRED set
	result := e.Ingest(f)

	assert.Greater(t, result.ConfidenceAdjusted, correlation.ConfidenceCapSingleWitness,
		"a single-witness finding outside CROSS_VALIDATION_REQUIRED must not be capped at 0.60")
}

func TestEngine_WithCrossValidationRequiredExtendsTheSet(t *testing.T) {
	e := correlation.NewEngine(nil, nil, nil).WithCrossValidationRequired([]string{"unchecked-call"})
	f := mkFinding("slither", finding.SeverityHigh, 0.95, 10)
	f.VulnerabilityType = "unchecked-call"
	result := e.Ingest(f)

	assert.LessOrEqual(t, result.ConfidenceAdjusted, correlation.ConfidenceCapSingleWitness,
		"a class added via WithCrossValidationRequired must be capped like the built-in set")
}

func TestEngine_WithSingleWitnessCapOverridesTheDefault(t *testing.T) {
	e := correlation.NewEngine(nil, nil, nil).WithSingleWitnessCap(0.45)
	result := e.Ingest(mkFinding("slither", finding.SeverityHigh, 0.95, 10))

	assert.LessOrEqual(t, result.ConfidenceAdjusted, 0.45)
}

func TestEngine_FPPriorAppliedPerWitnessNotRepresentative(t *testing.T) {
	// slither's prior is high (likely false positive); manticore's is low.
	// The representative becomes whichever witness reports the higher
	// severity — confirm the discount always tracks each witness's own
	// prior, never the representative's, regardless of which one that is.
	priors := finding.FPPriorTable{
		"slither.reentrancy-eth":    0.9,
		"manticore.reentrancy-eth": 0.05,
	}
	e := correlation.NewEngine(priors, nil, nil)
	e.Ingest(mkFinding("slither", finding.SeverityHigh, 0.9, 10))
	result := e.Ingest(mkFinding("manticore", finding.SeverityHigh, 0.9, 11))

	// manticore's own discount (0.9*(1-0.05) = 0.855) must win the max over
	// slither's (0.9*(1-0.9) = 0.09) before any cross-validation boost —
	// never slither's raw confidence discounted by manticore's prior or
	// vice versa.
	require.Len(t, result.Witnesses, 2)
	assert.Greater(t, result.ConfidenceAdjusted, 0.8)
}

func TestEngine_CrossValidationBoostsConfidenceAndPromotesSeverity(t *testing.T) {
	e := correlation.NewEngine(nil, nil, nil)
	e.Ingest(mkFinding("slither", finding.SeverityMedium, 0.8, 10))
	e.Ingest(mkFinding("manticore", finding.SeverityMedium, 0.8, 11))
	result := e.Ingest(mkFinding("ensemble-voter", finding.SeverityMedium, 0.8, 10))

	require.Len(t, result.Witnesses, 3)
	assert.Greater(t, result.ConfidenceAdjusted, 0.8)
	assert.LessOrEqual(t, result.ConfidenceAdjusted, correlation.ConfidenceCapThreeOrMore)
	assert.GreaterOrEqual(t, result.ConfidenceAdjusted, correlation.PromotionConfidenceThreshold)
	assert.Equal(t, finding.SeverityHigh, result.SeverityFinal, "3+ corroborating tools at >=0.85 adjusted confidence promotes severity one level")
}

func TestEngine_PromotionRequiresConfidenceThreshold(t *testing.T) {
	e := correlation.NewEngine(nil, nil, nil)
	e.Ingest(mkFinding("slither", finding.SeverityMedium, 0.2, 10))
	e.Ingest(mkFinding("manticore", finding.SeverityMedium, 0.2, 11))
	result := e.Ingest(mkFinding("ensemble-voter", finding.SeverityMedium, 0.2, 10))

	require.Len(t, result.Witnesses, 3)
	assert.Less(t, result.ConfidenceAdjusted, correlation.PromotionConfidenceThreshold)
	assert.NotEqual(t, finding.SeverityHigh, result.SeverityFinal, "3+ tools below the confidence threshold must not promote")
}

func TestEngine_LowConfidenceDemotesRegardlessOfWitnessCount(t *testing.T) {
	priors := finding.FPPriorTable{
		"slither.reentrancy-eth":    0.9,
		"manticore.reentrancy-eth": 0.9,
	}
	e := correlation.NewEngine(priors, nil, nil)
	e.Ingest(mkFinding("slither", finding.SeverityMedium, 0.2, 10))
	result := e.Ingest(mkFinding("manticore", finding.SeverityMedium, 0.2, 11))

	require.Len(t, result.Witnesses, 2)
	assert.Less(t, result.ConfidenceAdjusted, correlation.DemotionConfidenceThreshold)
	assert.Equal(t, finding.SeverityLow, result.SeverityFinal, "confidence below the demotion threshold demotes even with multiple witnesses")
}

func TestEngine_SameToolRetryDoesNotDoubleCount(t *testing.T) {
	e := correlation.NewEngine(nil, nil, nil)
	e.Ingest(mkFinding("slither", finding.SeverityHigh, 0.5, 10))
	result := e.Ingest(mkFinding("slither", finding.SeverityHigh, 0.6, 10))

	assert.Len(t, result.Witnesses, 1)
	assert.Equal(t, 0.6, result.Witnesses[0].ConfidenceRaw)
}

func TestEngine_FPPriorDiscountsConfidence(t *testing.T) {
	priors := finding.FPPriorTable{"slither.reentrancy-eth": 0.8}
	e := correlation.NewEngine(priors, nil, nil)
	result := e.Ingest(mkFinding("slither", finding.SeverityHigh, 0.9, 10))
	assert.Less(t, result.ConfidenceAdjusted, 0.9*0.3)
}

func TestEngine_ComplianceHitsFromTable(t *testing.T) {
	table := finding.ComplianceTable{"SWC-107": {"ISO27001-A.14.2.5"}}
	e := correlation.NewEngine(nil, table, nil)
	f := mkFinding("slither", finding.SeverityHigh, 0.8, 10)
	f.Taxonomy = finding.Taxonomy{SWC: "SWC-107"}
	result := e.Ingest(f)
	assert.Contains(t, result.ComplianceHits, "ISO27001-A.14.2.5")
}

func TestEngine_DisagreeingSeveritiesFlagsHumanReview(t *testing.T) {
	e := correlation.NewEngine(nil, nil, nil)
	e.Ingest(mkFinding("slither", finding.SeverityLow, 0.9, 10))
	result := e.Ingest(mkFinding("manticore", finding.SeverityCritical, 0.9, 10))
	assert.True(t, result.RequiresHumanReview)
}

func TestEngine_SnapshotSortedAndLen(t *testing.T) {
	e := correlation.NewEngine(nil, nil, nil)
	e.Ingest(mkFinding("slither", finding.SeverityHigh, 0.8, 10))
	f2 := mkFinding("slither", finding.SeverityHigh, 0.8, 200)
	f2.VulnerabilityType = "unchecked-call"
	e.Ingest(f2)

	assert.Equal(t, 2, e.Len())
	snap := e.Snapshot()
	require.Len(t, snap, 2)
	assert.True(t, snap[0].Fingerprint < snap[1].Fingerprint)
}
