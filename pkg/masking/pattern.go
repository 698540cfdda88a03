package masking

import (
	"log/slog"
	"regexp"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
}

// CustomPattern is an operator-supplied pattern, additive to the built-in
// set (wired from pkg/config.MaskingConfig once that package exists).
type CustomPattern struct {
	Pattern     string
	Replacement string
	Description string
}

// builtinPatterns covers secret shapes plausible in tool raw output: RPC
// endpoints with embedded API keys, bearer/JWT tokens, raw EVM private
// keys, and AWS-style access keys a misconfigured adapter might echo back
// in its stdout/stderr.
var builtinPatterns = map[string]CustomPattern{
	"bearer_token": {
		Pattern:     `(?i)bearer\s+[a-z0-9._-]{16,}`,
		Replacement: "[MASKED_BEARER_TOKEN]",
		Description: "Authorization: Bearer <token> headers echoed in tool output",
	},
	"jwt": {
		Pattern:     `eyJ[a-zA-Z0-9_-]{10,}\.[a-zA-Z0-9_-]{10,}\.[a-zA-Z0-9_-]{10,}`,
		Replacement: "[MASKED_JWT]",
		Description: "JSON Web Tokens",
	},
	"evm_private_key": {
		Pattern:     `\b0x[a-fA-F0-9]{64}\b`,
		Replacement: "[MASKED_PRIVATE_KEY]",
		Description: "32-byte hex-encoded EVM private keys",
	},
	"aws_access_key": {
		Pattern:     `\bAKIA[0-9A-Z]{16}\b`,
		Replacement: "[MASKED_AWS_ACCESS_KEY]",
		Description: "AWS access key IDs",
	},
	"rpc_url_api_key": {
		Pattern:     `(https?://[a-zA-Z0-9.-]+/v\d/)[a-zA-Z0-9_-]{16,}`,
		Replacement: "${1}[MASKED_RPC_KEY]",
		Description: "RPC provider URLs with an embedded API key path segment",
	},
	"generic_api_key_assignment": {
		Pattern:     `(?i)(api[_-]?key|secret|token)\s*[:=]\s*["']?[a-z0-9_-]{16,}["']?`,
		Replacement: "${1}=[MASKED]",
		Description: "key=value or key: value assignments naming a secret",
	},
}

// compileBuiltinPatterns compiles every built-in pattern. Invalid patterns
// are logged and skipped rather than failing construction — a masking
// service that can mask less is safer than one that can't start.
func (s *Service) compileBuiltinPatterns() {
	for name, spec := range builtinPatterns {
		compiled, err := regexp.Compile(spec.Pattern)
		if err != nil {
			slog.Error("masking: failed to compile built-in pattern, skipping", "pattern", name, "error", err)
			continue
		}
		s.patterns = append(s.patterns, &CompiledPattern{
			Name:        name,
			Regex:       compiled,
			Replacement: spec.Replacement,
			Description: spec.Description,
		})
	}
}

// compileCustomPatterns compiles operator-supplied patterns (config.Masking
// in pkg/config, wired once pkg/config exists) in addition to the built-in
// set.
func (s *Service) compileCustomPatterns(custom []CustomPattern) {
	for i, spec := range custom {
		compiled, err := regexp.Compile(spec.Pattern)
		if err != nil {
			slog.Error("masking: failed to compile custom pattern, skipping", "index", i, "error", err)
			continue
		}
		s.patterns = append(s.patterns, &CompiledPattern{
			Name:        spec.Description,
			Regex:       compiled,
			Replacement: spec.Replacement,
			Description: spec.Description,
		})
	}
}
