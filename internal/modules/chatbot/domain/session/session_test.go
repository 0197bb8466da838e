package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReportParamsDefaults(t *testing.T) {
	p := NewReportParams()
	assert.Equal(t, NotAvailable, p.ReportType)
	assert.Equal(t, NotAvailable, p.FromDate)
	assert.Equal(t, NotAvailable, p.ToDate)
	assert.Equal(t, All, p.Product)
	assert.Equal(t, All, p.Sport)
	assert.Equal(t, All, p.BetType)
}

func TestMergeConcreteOverridesDefault(t *testing.T) {
	p := NewReportParams()
	merged := p.Merge(ReportParams{ReportType: "winlost_detail", FromDate: "2023-01-01"})
	assert.Equal(t, "winlost_detail", merged.ReportType)
	assert.Equal(t, "2023-01-01", merged.FromDate)
	assert.Equal(t, NotAvailable, merged.ToDate)
}

func TestMergeDefaultNeverRevertsConcrete(t *testing.T) {
	p := NewReportParams()
	p.FromDate = "2023-01-01"
	p.Sport = "soccer"

	merged := p.Merge(NewReportParams())
	assert.Equal(t, "2023-01-01", merged.FromDate)
	assert.Equal(t, "soccer", merged.Sport)
}

func TestMergeConcreteReplacesConcrete(t *testing.T) {
	p := NewReportParams()
	p.FromDate = "2023-01-01"
	merged := p.Merge(ReportParams{FromDate: "2023-02-01"})
	assert.Equal(t, "2023-02-01", merged.FromDate)
}

func TestMissing(t *testing.T) {
	p := NewReportParams()
	p.FromDate = "2023-01-01"
	missing := p.Missing([]string{"from_date", "to_date"})
	require.Len(t, missing, 1)
	assert.Equal(t, "to_date", missing[0])
}

func TestResetParams(t *testing.T) {
	s := NewSession("k1", "u1", 2)
	s.Params.FromDate = "2023-01-01"
	s.Pending = true

	s.ResetParams()
	assert.False(t, s.Pending)
	assert.Equal(t, NotAvailable, s.Params.FromDate)
}

func TestAppendTurnSetsTimestamp(t *testing.T) {
	s := NewSession("k1", "u1", 1)
	s.AppendTurn(Turn{Query: "hi", Response: "hello", Intent: IntentKnowledgeQuery})
	require.Len(t, s.Turns, 1)
	assert.False(t, s.Turns[0].At.IsZero())
}
