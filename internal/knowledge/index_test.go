package knowledge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testRecords() []Record {
	return []Record{
		{Question: "How do I reset my password?", Answer: "Use the forgot password link."},
		{Question: "What are your opening hours?", Answer: "Weekdays 8am to 5pm."},
		{Question: "How do I apply for a loan?", Answer: "Send /apply_loan after onboarding."},
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("Hello, World! reset-password 123")
	require.Equal(t, []string{"hello", "world", "reset", "password", "123"}, tokens)

	require.Empty(t, Tokenize("?!... ---"))
	require.Empty(t, Tokenize(""))
}

func TestQueryRanksRelevantRecordFirst(t *testing.T) {
	ix := BuildIndex(testRecords())

	matches := ix.Query("how can I reset my password")
	require.NotEmpty(t, matches)
	require.Equal(t, "Use the forgot password link.", matches[0].Record.Answer)
	require.Greater(t, matches[0].Score, matches[1].Score)
}

func TestQueryEmptyInput(t *testing.T) {
	ix := BuildIndex(testRecords())

	require.Nil(t, ix.Query(""))
	require.Nil(t, ix.Query("!!! ???"))
}

func TestQueryAgainstEmptyCorpus(t *testing.T) {
	ix := BuildIndex(nil)
	require.Nil(t, ix.Query("anything"))
	require.Zero(t, ix.Len())
}

func TestQueryUnknownTermsLowerScore(t *testing.T) {
	ix := BuildIndex(testRecords())

	exact := ix.Query("reset my password")
	padded := ix.Query("reset my password zzzz qqqq xxxx")
	require.NotEmpty(t, exact)
	require.NotEmpty(t, padded)
	// Out-of-corpus terms inflate the query norm without matching
	// anything, so the best score drops.
	require.Greater(t, exact[0].Score, padded[0].Score)
}

func TestQueryTieKeepsCorpusOrder(t *testing.T) {
	records := []Record{
		{Question: "alpha topic", Answer: "first"},
		{Question: "alpha topic", Answer: "second"},
	}
	ix := BuildIndex(records)

	matches := ix.Query("alpha topic")
	require.Len(t, matches, 2)
	require.InDelta(t, matches[0].Score, matches[1].Score, 1e-12)
	require.Equal(t, "first", matches[0].Record.Answer)
}

func TestQueryScoresAreCosine(t *testing.T) {
	ix := BuildIndex(testRecords())

	matches := ix.Query("How do I reset my password?")
	require.NotEmpty(t, matches)
	require.InDelta(t, 1.0, matches[0].Score, 1e-9)
	for _, m := range matches {
		require.GreaterOrEqual(t, m.Score, 0.0)
		require.LessOrEqual(t, m.Score, 1.0+1e-9)
	}
}

func TestEngineReloadSwapsCorpus(t *testing.T) {
	e := NewEngine(testRecords())
	require.Equal(t, 3, e.Size())

	e.Reload([]Record{{Question: "only entry", Answer: "only answer"}})
	require.Equal(t, 1, e.Size())

	matches := e.Query("only entry")
	require.NotEmpty(t, matches)
	require.Equal(t, "only answer", matches[0].Record.Answer)
}
