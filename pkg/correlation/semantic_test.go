package correlation_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miesc-dev/miesc/pkg/correlation"
	"github.com/miesc-dev/miesc/pkg/finding"
)

func writeSource(t *testing.T, root, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(contents), 0o644))
}

func TestNoopSemanticAnalyzer_AppliesNoDiscount(t *testing.T) {
	var a correlation.NoopSemanticAnalyzer
	f := finding.Finding{VulnerabilityType: "reentrancy-eth", Location: finding.Location{File: "Vault.sol", LineStart: 10}}
	assert.Equal(t, 0.0, a.Discount(f))
}

func TestFileSourceAnalyzer_ReentrancyGuardModifierDiscounts(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "Vault.sol", `pragma solidity ^0.7.0;
contract Vault {
    function withdraw(uint amount) external nonReentrant {
        msg.sender.call{value: amount}("");
        balances[msg.sender] -= amount;
    }
}
`)
	a := correlation.NewFileSourceAnalyzer(root)
	f := finding.Finding{VulnerabilityType: "reentrancy-eth", Location: finding.Location{File: "Vault.sol", LineStart: 4}}

	assert.Greater(t, a.Discount(f), 0.0, "a nonReentrant modifier in the surrounding window must discount confidence")
}

func TestFileSourceAnalyzer_NoMitigationNoDiscount(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "Vault.sol", `pragma solidity ^0.7.0;
contract Vault {
    function withdraw(uint amount) external {
        msg.sender.call{value: amount}("");
        balances[msg.sender] -= amount;
    }
}
`)
	a := correlation.NewFileSourceAnalyzer(root)
	f := finding.Finding{VulnerabilityType: "reentrancy-eth", Location: finding.Location{File: "Vault.sol", LineStart: 4}}

	assert.Equal(t, 0.0, a.Discount(f))
}

func TestFileSourceAnalyzer_OverflowDiscountsOnlyWhenSolidity08AndNoUncheckedBlock(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "Token.sol", `pragma solidity ^0.8.0;
contract Token {
    function mint(uint amount) external {
        total += amount;
    }
}
`)
	a := correlation.NewFileSourceAnalyzer(root)
	f := finding.Finding{VulnerabilityType: "integer-overflow", Location: finding.Location{File: "Token.sol", LineStart: 4}}

	assert.Greater(t, a.Discount(f), 0.0, "solidity >=0.8 with no unchecked block exposes built-in overflow checks")
}

func TestFileSourceAnalyzer_UncheckedBlockSuppressesOverflowDiscount(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "Token.sol", `pragma solidity ^0.8.0;
contract Token {
    function mint(uint amount) external {
        unchecked {
            total += amount;
        }
    }
}
`)
	a := correlation.NewFileSourceAnalyzer(root)
	f := finding.Finding{VulnerabilityType: "integer-overflow", Location: finding.Location{File: "Token.sol", LineStart: 5}}

	assert.Equal(t, 0.0, a.Discount(f))
}

func TestFileSourceAnalyzer_PreSolidity08NeverDiscountsOverflow(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "Token.sol", `pragma solidity ^0.6.0;
contract Token {
    function mint(uint amount) external {
        total += amount;
    }
}
`)
	a := correlation.NewFileSourceAnalyzer(root)
	f := finding.Finding{VulnerabilityType: "integer-overflow", Location: finding.Location{File: "Token.sol", LineStart: 4}}

	assert.Equal(t, 0.0, a.Discount(f))
}

func TestFileSourceAnalyzer_MissingFileYieldsNoDiscount(t *testing.T) {
	a := correlation.NewFileSourceAnalyzer(t.TempDir())
	f := finding.Finding{VulnerabilityType: "reentrancy-eth", Location: finding.Location{File: "Missing.sol", LineStart: 4}}
	assert.Equal(t, 0.0, a.Discount(f))
}
