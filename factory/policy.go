/*
Package factory provides JSON to leave.Policy conversion.

PURPOSE:
  Converts a JSON policy definition into a leave.Policy. This lets HR
  adjust allocations and the forfeiture cutoff without code changes - the
  server loads the file at startup and injects the result into the
  calculators explicitly.

JSON SCHEMA:
  {
    "annual_allocation": 20,
    "fixed_allocations": {
      "sick": 36,
      "maternity": 3,
      "parental": 4,
      "family": 3,
      "adoption": 4,
      "study": 6,
      "wellness": 2
    },
    "forfeit_month": 7,
    "forfeit_day": 31
  }

  Every field is optional; omitted fields keep the BCEA default. Unknown
  keys under fixed_allocations are rejected - they are almost always typos
  that would otherwise silently produce zero balances.

USAGE:
  policy, err := factory.LoadPolicyFile("./policy.json")
  calc := leave.NewCalculator(policy)

SEE ALSO:
  - leave/types.go: Policy type and DefaultPolicy
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veldhq/leave-engine/leave"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a leave policy.
type PolicyJSON struct {
	AnnualAllocation *float64           `json:"annual_allocation,omitempty"`
	FixedAllocations map[string]float64 `json:"fixed_allocations,omitempty"`
	ForfeitMonth     *int               `json:"forfeit_month,omitempty"`
	ForfeitDay       *int               `json:"forfeit_day,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParsePolicy decodes a JSON policy, applying BCEA defaults for omitted
// fields and validating the rest.
func ParsePolicy(data []byte) (leave.Policy, error) {
	var raw PolicyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return leave.Policy{}, fmt.Errorf("invalid policy JSON: %w", err)
	}
	return buildPolicy(raw)
}

// LoadPolicyFile reads and parses a policy file.
func LoadPolicyFile(path string) (leave.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return leave.Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(data)
}

func buildPolicy(raw PolicyJSON) (leave.Policy, error) {
	policy := leave.DefaultPolicy()

	if raw.AnnualAllocation != nil {
		if *raw.AnnualAllocation < 0 {
			return leave.Policy{}, fmt.Errorf("annual_allocation must be non-negative, got %v", *raw.AnnualAllocation)
		}
		policy.AnnualAllocation = decimal.NewFromFloat(*raw.AnnualAllocation)
	}

	for key, value := range raw.FixedAllocations {
		t := leave.Type(key)
		if !t.Known() {
			return leave.Policy{}, fmt.Errorf("unknown leave type %q in fixed_allocations", key)
		}
		if t == leave.TypeAnnual {
			return leave.Policy{}, fmt.Errorf("annual leave accrues monthly; set annual_allocation instead")
		}
		if value < 0 {
			return leave.Policy{}, fmt.Errorf("fixed_allocations.%s must be non-negative, got %v", key, value)
		}
		policy.FixedAllocations[t] = decimal.NewFromFloat(value)
	}

	if raw.ForfeitMonth != nil {
		if *raw.ForfeitMonth < 1 || *raw.ForfeitMonth > 12 {
			return leave.Policy{}, fmt.Errorf("forfeit_month must be 1-12, got %d", *raw.ForfeitMonth)
		}
		policy.ForfeitMonth = time.Month(*raw.ForfeitMonth)
	}
	if raw.ForfeitDay != nil {
		if *raw.ForfeitDay < 1 || *raw.ForfeitDay > 31 {
			return leave.Policy{}, fmt.Errorf("forfeit_day must be 1-31, got %d", *raw.ForfeitDay)
		}
		policy.ForfeitDay = *raw.ForfeitDay
	}

	return policy, nil
}
