package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/ops-deck/vigil/pkg/domain/types"
)

func TestParseSeverity(t *testing.T) {
	t.Run("Accepts all tiers case-insensitively", func(t *testing.T) {
		for input, want := range map[string]types.Severity{
			"P1":   types.SeverityP1,
			"p2":   types.SeverityP2,
			" P3 ": types.SeverityP3,
			"p4":   types.SeverityP4,
		} {
			got, err := types.ParseSeverity(input)
			gt.NoError(t, err)
			gt.Equal(t, got, want)
		}
	})

	t.Run("Rejects unknown values", func(t *testing.T) {
		for _, input := range []string{"", "P5", "critical", "1"} {
			_, err := types.ParseSeverity(input)
			gt.Error(t, err)
		}
	})
}

func TestSeverityRank(t *testing.T) {
	gt.Equal(t, types.SeverityP1.Rank(), 1)
	gt.Equal(t, types.SeverityP4.Rank(), 4)
	gt.True(t, types.SeverityP1.Rank() < types.SeverityP2.Rank())
}

func TestSeverityBroadcast(t *testing.T) {
	gt.True(t, types.SeverityP1.IsBroadcast())
	gt.True(t, types.SeverityP2.IsBroadcast())
	gt.False(t, types.SeverityP3.IsBroadcast())
	gt.False(t, types.SeverityP4.IsBroadcast())
}

func TestSeverityLabel(t *testing.T) {
	gt.Equal(t, types.SeverityP1.Label(), "P1 (Critical)")
	gt.Equal(t, types.SeverityP4.Label(), "P4 (Low)")
}
