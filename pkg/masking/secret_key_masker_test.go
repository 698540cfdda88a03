package masking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miesc-dev/miesc/pkg/masking"
)

func TestStructuralJSONMasker_AppliesToRequiresJSONShape(t *testing.T) {
	m := masking.StructuralJSONMasker{}
	assert.True(t, m.AppliesTo(`{"a": 1}`))
	assert.True(t, m.AppliesTo(`[1, 2]`))
	assert.False(t, m.AppliesTo("plain text"))
}

func TestStructuralJSONMasker_MasksSensitiveKeyNested(t *testing.T) {
	m := masking.StructuralJSONMasker{}
	input := `{"detector": "x", "context": {"mnemonic": "abandon ability able", "note": "ok"}}`

	out := m.Mask(input)
	assert.Contains(t, out, masking.MaskedValue)
	assert.Contains(t, out, "\"note\":\"ok\"")
	assert.NotContains(t, out, "abandon ability able")
}

func TestStructuralJSONMasker_ReturnsOriginalOnParseError(t *testing.T) {
	m := masking.StructuralJSONMasker{}
	input := `{not valid json`
	require.Equal(t, input, m.Mask(input))
}
