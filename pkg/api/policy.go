package api

import (
	"os"
	"path/filepath"

	"github.com/miesc-dev/miesc/pkg/aocerrors"
)

// policyChecks are the heuristics policy_audit runs over repo_path
// (spec.md §6.1: "delegates to a PolicyAgent collaborator"). Each check
// looks for one repository hygiene signal a smart-contract project's CI
// pipeline would reasonably expect; none requires parsing the contract
// source itself.
var policyChecks = []struct {
	name  string
	check func(repoPath string) (bool, string)
}{
	{"license_present", checkAnyExists([]string{"LICENSE", "LICENSE.md", "LICENSE.txt", "COPYING"})},
	{"readme_present", checkAnyExists([]string{"README.md", "README", "readme.md"})},
	{"tests_present", checkAnyExists([]string{"test", "tests", "spec"})},
	{"ci_config_present", checkAnyExists([]string{".github/workflows", ".gitlab-ci.yml", ".circleci"})},
	{"dependency_manifest_present", checkAnyExists([]string{"package.json", "foundry.toml", "hardhat.config.js", "hardhat.config.ts", "truffle-config.js"})},
}

// checkAnyExists builds a check that passes if any of candidates exists
// relative to repoPath.
func checkAnyExists(candidates []string) func(string) (bool, string) {
	return func(repoPath string) (bool, string) {
		for _, c := range candidates {
			if _, err := os.Stat(filepath.Join(repoPath, c)); err == nil {
				return true, c + " found"
			}
		}
		return false, "none of " + joinCandidates(candidates) + " found"
	}
}

func joinCandidates(candidates []string) string {
	out := ""
	for i, c := range candidates {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// runPolicyAudit evaluates every policyCheck against repoPath, scoring
// compliance as the fraction passed.
func runPolicyAudit(repoPath string) (PolicyAuditResult, error) {
	if repoPath == "" {
		return PolicyAuditResult{}, aocerrors.Wrapf(aocerrors.KindInputInvalid, "api.policy_audit", "repo_path is required")
	}
	info, err := os.Stat(repoPath)
	if err != nil || !info.IsDir() {
		return PolicyAuditResult{}, aocerrors.Wrapf(aocerrors.KindInputInvalid, "api.policy_audit", "repo_path %q is not a directory", repoPath)
	}

	checks := make([]PolicyCheck, 0, len(policyChecks))
	passed := 0
	for _, pc := range policyChecks {
		ok, detail := pc.check(repoPath)
		if ok {
			passed++
		}
		checks = append(checks, PolicyCheck{Name: pc.name, Passed: ok, Detail: detail})
	}

	return PolicyAuditResult{
		ComplianceScore: float64(passed) / float64(len(policyChecks)),
		Checks:          checks,
	}, nil
}
