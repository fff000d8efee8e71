package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writePolicy(t, `
alloc_target:
  equities: 0.6
  crypto: 0.4
rebalance:
  bands: 0.05
risk_limits:
  position_max_pct: 0.25
`)

	p, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.6, p.AllocTarget["equities"], 1e-9)
	assert.InDelta(t, 0.05, p.Rebalance.Bands, 1e-9)
	assert.InDelta(t, 0.25, p.RiskLimits.PositionMaxPct, 1e-9)
	assert.InDelta(t, 1.0, p.TargetSum(), 1e-9)
}

func TestLoad_JSONDocument(t *testing.T) {
	// YAML is a superset of JSON, so JSON policy files load through the same path.
	path := writePolicy(t, `{"alloc_target":{"equities":1.0},"rebalance":{"bands":0.02},"risk_limits":{"position_max_pct":0.5}}`)

	p, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p.AllocTarget["equities"], 1e-9)
}

func TestLoad_UnknownFieldFails(t *testing.T) {
	path := writePolicy(t, `
alloc_target:
  equities: 1.0
rebalance:
  bands: 0.05
risk_limits:
  position_max_pct: 0.25
alloc_tragte:
  crypto: 0.4
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.IsType(t, Error{}, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{
			name: "valid",
			policy: Policy{
				AllocTarget: map[string]float64{"equities": 0.6, "crypto": 0.4},
				Rebalance:   RebalanceConfig{Bands: 0.05},
				RiskLimits:  RiskLimits{PositionMaxPct: 0.25},
			},
		},
		{
			name: "does not require targets to sum to one",
			policy: Policy{
				AllocTarget: map[string]float64{"equities": 0.5},
				RiskLimits:  RiskLimits{PositionMaxPct: 0.25},
			},
		},
		{
			name:    "empty alloc target",
			policy:  Policy{RiskLimits: RiskLimits{PositionMaxPct: 0.25}},
			wantErr: true,
		},
		{
			name: "negative class target",
			policy: Policy{
				AllocTarget: map[string]float64{"equities": -0.2},
				RiskLimits:  RiskLimits{PositionMaxPct: 0.25},
			},
			wantErr: true,
		},
		{
			name: "zero target sum",
			policy: Policy{
				AllocTarget: map[string]float64{"equities": 0},
				RiskLimits:  RiskLimits{PositionMaxPct: 0.25},
			},
			wantErr: true,
		},
		{
			name: "position max out of range",
			policy: Policy{
				AllocTarget: map[string]float64{"equities": 1.0},
				RiskLimits:  RiskLimits{PositionMaxPct: 1.5},
			},
			wantErr: true,
		},
		{
			name: "negative bands",
			policy: Policy{
				AllocTarget: map[string]float64{"equities": 1.0},
				Rebalance:   RebalanceConfig{Bands: -0.01},
				RiskLimits:  RiskLimits{PositionMaxPct: 0.25},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.policy)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClassTarget_Clamped(t *testing.T) {
	p := Policy{AllocTarget: map[string]float64{"equities": 1.4}}

	target, ok := p.ClassTarget("equities")
	require.True(t, ok)
	assert.InDelta(t, 1.0, target, 1e-9)

	_, ok = p.ClassTarget("crypto")
	assert.False(t, ok)
}

func TestHash_Deterministic(t *testing.T) {
	p := &Policy{
		AllocTarget: map[string]float64{"equities": 0.6, "crypto": 0.4},
		Rebalance:   RebalanceConfig{Bands: 0.05},
		RiskLimits:  RiskLimits{PositionMaxPct: 0.25},
	}

	h1, err := Hash(p)
	require.NoError(t, err)
	h2, err := Hash(p)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}
