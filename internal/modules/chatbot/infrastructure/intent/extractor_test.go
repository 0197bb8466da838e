package intent

import (
	"context"
	"testing"
	"time"

	"alphabot/internal/config"
	"alphabot/internal/modules/chatbot/domain/session"
	"alphabot/internal/modules/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *report.Registry {
	return report.NewRegistry([]config.ReportEntry{
		{
			Name:           "winlost_detail",
			Endpoint:       "/winlost_detail_report",
			RequiredFields: []string{"from_date", "to_date"},
			Aliases:        []string{"win lost", "winlost"},
		},
	})
}

func fixedNow() time.Time {
	return time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)
}

func newTestExtractor() *Extractor {
	e := NewExtractor(testRegistry(), nil)
	e.now = fixedNow
	return e
}

func TestExtractKnowledgeQuery(t *testing.T) {
	e := newTestExtractor()
	res := e.Extract(context.Background(), "what is a mix parlay bet?", nil)
	assert.Equal(t, session.IntentKnowledgeQuery, res.Intent)
}

func TestExtractReportWithDates(t *testing.T) {
	e := newTestExtractor()
	res := e.Extract(context.Background(), "show my winlost from 2023-01-01 to 2023-01-31", nil)
	require.Equal(t, session.IntentReportRequest, res.Intent)
	assert.Equal(t, "winlost_detail", res.Params.ReportType)
	assert.Equal(t, "2023-01-01", res.Params.FromDate)
	assert.Equal(t, "2023-01-31", res.Params.ToDate)
	assert.Equal(t, "/winlost_detail_report", res.Report.Endpoint)
}

func TestExtractReportMonthYear(t *testing.T) {
	e := newTestExtractor()
	res := e.Extract(context.Background(), "win lost report for January 2023", nil)
	require.Equal(t, session.IntentReportRequest, res.Intent)
	assert.Equal(t, "2023-01-01", res.Params.FromDate)
	assert.Equal(t, "2023-01-31", res.Params.ToDate)
}

func TestExtractReportRelativeDates(t *testing.T) {
	e := newTestExtractor()
	res := e.Extract(context.Background(), "winlost for last month please", nil)
	require.Equal(t, session.IntentReportRequest, res.Intent)
	assert.Equal(t, "2023-05-01", res.Params.FromDate)
	assert.Equal(t, "2023-05-31", res.Params.ToDate)
}

func TestExtractReportWithoutDates(t *testing.T) {
	e := newTestExtractor()
	res := e.Extract(context.Background(), "I want my win lost report", nil)
	require.Equal(t, session.IntentReportRequest, res.Intent)
	assert.Equal(t, session.NotAvailable, res.Params.FromDate)
	assert.Equal(t, session.NotAvailable, res.Params.ToDate)
}

func TestExtractClarificationWhenPending(t *testing.T) {
	e := newTestExtractor()
	sess := session.NewSession("k", "u1", 1)
	sess.Pending = true
	sess.Params.ReportType = "winlost_detail"

	res := e.Extract(context.Background(), "from 2023-02-01 to 2023-02-28", sess)
	require.Equal(t, session.IntentClarification, res.Intent)
	assert.Equal(t, "2023-02-01", res.Params.FromDate)
	assert.Equal(t, "2023-02-28", res.Params.ToDate)
	assert.Equal(t, "/winlost_detail_report", res.Report.Endpoint)
}

func TestExtractPendingButNoSlotsFallsToKnowledge(t *testing.T) {
	e := newTestExtractor()
	sess := session.NewSession("k", "u1", 1)
	sess.Pending = true

	res := e.Extract(context.Background(), "tell me about your policies", sess)
	assert.Equal(t, session.IntentKnowledgeQuery, res.Intent)
}

func TestExtractSportAndBetType(t *testing.T) {
	e := newTestExtractor()
	res := e.Extract(context.Background(), "winlost for soccer mix parlay bets yesterday", nil)
	require.Equal(t, session.IntentReportRequest, res.Intent)
	assert.Equal(t, "soccer", res.Params.Sport)
	assert.Equal(t, "mix parlay", res.Params.BetType)
	assert.Equal(t, "2023-06-14", res.Params.FromDate)
}

func TestNormalizeDateRejectsInvalid(t *testing.T) {
	assert.Equal(t, session.NotAvailable, NormalizeDate("2023-13-45"))
	assert.Equal(t, session.NotAvailable, NormalizeDate("not a date"))
	assert.Equal(t, "2023-01-05", NormalizeDate("2023-01-05"))
}

func TestExtractDateRangeSingleDate(t *testing.T) {
	from, to := ExtractDateRange("what happened on 2023-03-10", fixedNow())
	assert.Equal(t, "2023-03-10", from)
	assert.Equal(t, "2023-03-10", to)
}
