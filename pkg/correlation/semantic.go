package correlation

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/miesc-dev/miesc/pkg/finding"
)

// Semantic-context discount weights (spec.md §4.6 step 5): a finding whose
// surrounding source text shows a mitigating pattern is still reported, but
// its confidence is discounted before the final severity derivation.
const (
	reentrancyGuardDiscount = 0.40
	checksEffectsDiscount   = 0.30
	builtinOverflowDiscount = 0.50

	// sourceContextRadius bounds how many lines on either side of a
	// finding's line_start are inspected for a mitigating pattern.
	sourceContextRadius = 8
)

// SemanticAnalyzer classifies a Finding's surrounding source text into a
// confidence discount factor.
type SemanticAnalyzer interface {
	// Discount returns the confidence discount factor for f, or 0 if no
	// semantic-context adjustment applies.
	Discount(f finding.Finding) float64
}

// NoopSemanticAnalyzer applies no semantic-context adjustment. Used when no
// source root is available to read contract text from (e.g. an Engine built
// outside of an audit run, such as in unit tests).
type NoopSemanticAnalyzer struct{}

// Discount implements SemanticAnalyzer.
func (NoopSemanticAnalyzer) Discount(finding.Finding) float64 { return 0 }

var (
	reentrancyGuardRe = regexp.MustCompile(`(?i)nonReentrant\b|ReentrancyGuard`)
	uncheckedBlockRe  = regexp.MustCompile(`\bunchecked\s*\{`)
	stateWriteRe      = regexp.MustCompile(`[A-Za-z_][\w.\[\]]*\s*(=[^=]|[-+*/]=)`)
	pragmaVersionRe   = regexp.MustCompile(`pragma\s+solidity\s+\D*0\.(\d+)`)
)

// FileSourceAnalyzer inspects the contract source around a finding's
// location for the three patterns spec.md §4.6 step 5 names: a
// ReentrancyGuard-equivalent modifier, Checks-Effects-Interactions ordering,
// and unchecked-block overflow exposure. root is the audit's target path;
// a Location.File that isn't already absolute is resolved against it.
type FileSourceAnalyzer struct {
	root string

	mu    sync.Mutex
	cache map[string][]string
}

// NewFileSourceAnalyzer builds an analyzer rooted at targetPath.
func NewFileSourceAnalyzer(targetPath string) *FileSourceAnalyzer {
	return &FileSourceAnalyzer{root: targetPath, cache: make(map[string][]string)}
}

// Discount implements SemanticAnalyzer.
func (a *FileSourceAnalyzer) Discount(f finding.Finding) float64 {
	lines := a.sourceLines(f.Location.File)
	if lines == nil {
		return 0
	}

	class := canonicalVulnClass(f.VulnerabilityType)
	isReentrancy := strings.Contains(class, "reentrancy") || strings.EqualFold(f.Taxonomy.SWC, "SWC-107")
	isOverflow := strings.Contains(class, "overflow") || strings.Contains(class, "underflow")

	var factor float64
	if isReentrancy {
		if reentrancyGuardRe.MatchString(window(lines, f.Location.LineStart, sourceContextRadius)) {
			factor = combineDiscounts(factor, reentrancyGuardDiscount)
		}
		if observesChecksEffects(lines, f.Location.LineStart) {
			factor = combineDiscounts(factor, checksEffectsDiscount)
		}
	}
	if isOverflow && pragmaAtLeast08(lines) && !uncheckedBlockRe.MatchString(window(lines, f.Location.LineStart, sourceContextRadius)) {
		factor = combineDiscounts(factor, builtinOverflowDiscount)
	}

	return factor
}

// sourceLines reads and line-splits file (resolved against a.root), caching
// the result. A missing or unreadable file yields nil, not an error — the
// semantic stage is a best-effort adjustment, never a hard dependency.
func (a *FileSourceAnalyzer) sourceLines(file string) []string {
	if file == "" {
		return nil
	}
	path := file
	if a.root != "" && !filepath.IsAbs(file) {
		path = filepath.Join(a.root, file)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if lines, ok := a.cache[path]; ok {
		return lines
	}

	fh, err := os.Open(path)
	if err != nil {
		a.cache[path] = nil
		return nil
	}
	defer fh.Close()

	var lines []string
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	a.cache[path] = lines
	return lines
}

// window joins the lines within radius of line (1-indexed), clamped to the
// slice bounds.
func window(lines []string, line, radius int) string {
	lo, hi := contextBounds(len(lines), line, radius)
	return strings.Join(lines[lo:hi], "\n")
}

func contextBounds(total, line, radius int) (int, int) {
	lo := line - radius - 1
	hi := line + radius
	if lo < 0 {
		lo = 0
	}
	if hi > total {
		hi = total
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// observesChecksEffects approximates Checks-Effects-Interactions ordering
// from plain source text, without a full AST: it looks for a state-changing
// assignment before line (the effect, applied before the interaction the
// finding flags) and none after it within the inspected window (no further
// effect once the interaction has happened).
func observesChecksEffects(lines []string, line int) bool {
	lo, hi := contextBounds(len(lines), line, sourceContextRadius)
	callLine := line - 1

	var before, after bool
	for i := lo; i < hi; i++ {
		if i == callLine || !stateWriteRe.MatchString(lines[i]) {
			continue
		}
		if i < callLine {
			before = true
		} else {
			after = true
		}
	}
	return before && !after
}

// pragmaAtLeast08 reports whether the source declares a Solidity version
// with built-in overflow/underflow checks (>=0.8.0).
func pragmaAtLeast08(lines []string) bool {
	for _, l := range lines {
		m := pragmaVersionRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		minor := 0
		for _, c := range m[1] {
			minor = minor*10 + int(c-'0')
		}
		return minor >= 8
	}
	return false
}

// combineDiscounts compounds two independent discount factors: applying b
// to the residual left after a (spec.md §4.6 step 5: "multiplicative on
// residual confidence").
func combineDiscounts(a, b float64) float64 {
	return a + b - a*b
}
