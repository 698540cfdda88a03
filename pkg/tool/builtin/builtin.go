package builtin

import (
	"github.com/miesc-dev/miesc/pkg/finding"
	"github.com/miesc-dev/miesc/pkg/tool"
)

// SidecarURLs configures the base URLs for the HTTP-backed adapters
// (layers 6, 7, 9). A zero value for a given field leaves that adapter
// MISCONFIGURED until configured (spec.md §4.3: unavailable optional tools
// are skipped, not fatal).
type SidecarURLs struct {
	AIDetector    string
	MLClassifier  string
	EnsembleVoter string
}

// RegisterAll constructs and registers all nine reference adapters against
// r, using sev/tax for normalization. Registration failures only occur on
// id collisions, which cannot happen with this fixed, distinct id set, but
// the error is still propagated rather than ignored.
func RegisterAll(r *tool.Registry, urls SidecarURLs, sev finding.SeverityTable, tax finding.TaxonomyTable) error {
	adapters := []tool.Adapter{
		NewSlither(sev, tax),
		NewEchidna(sev, tax),
		NewManticore(sev, tax),
		NewCertora(sev, tax),
		NewScribble(sev, tax),
		NewAIDetector(urls.AIDetector, sev, tax),
		NewMLClassifier(urls.MLClassifier, sev, tax),
		NewDomainLinter(sev, tax),
		NewEnsembleVoter(urls.EnsembleVoter, sev, tax),
	}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return err
		}
	}
	return nil
}
