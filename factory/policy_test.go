package factory_test

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldhq/leave-engine/factory"
	"github.com/veldhq/leave-engine/leave"
)

func TestParsePolicy_EmptyObjectKeepsDefaults(t *testing.T) {
	// GIVEN: An empty policy document
	// WHEN: Parsing
	// THEN: Every value is the BCEA default

	policy, err := factory.ParsePolicy([]byte(`{}`))
	require.NoError(t, err)

	assert.True(t, policy.AnnualAllocation.Equal(decimal.NewFromInt(20)))
	assert.True(t, policy.FixedAllocationFor(leave.TypeSick).Equal(decimal.NewFromInt(36)))
	assert.Equal(t, time.July, policy.ForfeitMonth)
	assert.Equal(t, 31, policy.ForfeitDay)
}

func TestParsePolicy_Overrides(t *testing.T) {
	doc := `{
		"annual_allocation": 25,
		"fixed_allocations": {"sick": 30, "wellness": 4},
		"forfeit_month": 6,
		"forfeit_day": 30
	}`

	policy, err := factory.ParsePolicy([]byte(doc))
	require.NoError(t, err)

	assert.True(t, policy.AnnualAllocation.Equal(decimal.NewFromInt(25)))
	assert.True(t, policy.FixedAllocationFor(leave.TypeSick).Equal(decimal.NewFromInt(30)))
	assert.True(t, policy.FixedAllocationFor(leave.TypeWellness).Equal(decimal.NewFromInt(4)))
	// Untouched categories keep their defaults.
	assert.True(t, policy.FixedAllocationFor(leave.TypeStudy).Equal(decimal.NewFromInt(6)))
	assert.Equal(t, time.June, policy.ForfeitMonth)
	assert.Equal(t, 30, policy.ForfeitDay)
}

func TestParsePolicy_Rejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed JSON", `{`},
		{"negative annual allocation", `{"annual_allocation": -1}`},
		{"negative fixed allocation", `{"fixed_allocations": {"sick": -5}}`},
		{"unknown leave type", `{"fixed_allocations": {"sabattical": 10}}`},
		{"annual in fixed allocations", `{"fixed_allocations": {"annual": 20}}`},
		{"forfeit month out of range", `{"forfeit_month": 13}`},
		{"forfeit day out of range", `{"forfeit_day": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.ParsePolicy([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadPolicyFile_MissingFile(t *testing.T) {
	_, err := factory.LoadPolicyFile("does-not-exist.json")
	assert.Error(t, err)
}

func TestLoadPolicyFile_RoundTrip(t *testing.T) {
	path := t.TempDir() + "/policy.json"
	require.NoError(t, writeFile(path, `{"annual_allocation": 22}`))

	policy, err := factory.LoadPolicyFile(path)
	require.NoError(t, err)
	assert.True(t, policy.AnnualAllocation.Equal(decimal.NewFromInt(22)))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
