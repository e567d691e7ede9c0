package offline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseFor(t *testing.T, prefix string) string {
	t.Helper()
	for _, r := range DefaultRules {
		if strings.HasPrefix(r.Response, prefix) {
			return r.Response
		}
	}
	require.FailNow(t, "no rule with response prefix", prefix)
	return ""
}

func TestEngine_Match(t *testing.T) {
	engine := NewDefaultEngine()

	testCases := []struct {
		name     string
		query    string
		expected string
	}{
		{name: "Bleeding", query: "How do I stop severe bleeding?", expected: responseFor(t, "⚠️ BLEEDING")},
		{name: "Case insensitive", query: "BLEEDING BADLY", expected: responseFor(t, "⚠️ BLEEDING")},
		{name: "Multi-word keyword", query: "I think he is having a heart attack", expected: responseFor(t, "❤️ CPR BASICS")},
		{name: "Fire before extinguisher", query: "how do I use a fire extinguisher", expected: responseFor(t, "🔥 FIRE ESCAPE")},
		{name: "Extinguish without fire", query: "how to extinguish a pan", expected: responseFor(t, "🧯 FIRE EXTINGUISHER")},
		{name: "Hypothermia resolves to shelter rule", query: "signs of hypothermia", expected: responseFor(t, "🏕️ EMERGENCY SHELTER")},
		{name: "Freezing resolves to hypothermia rule", query: "I am freezing", expected: responseFor(t, "❄️ HYPOTHERMIA")},
		{name: "Water rising resolves to water rule", query: "the water rising fast", expected: responseFor(t, "💧 WATER PURIFICATION")},
		{name: "Help resolves to rescue rule", query: "please help", expected: responseFor(t, "🆘 SIGNAL FOR RESCUE")},
		{name: "Emergency resolves to general rule", query: "this is an emergency", expected: responseFor(t, "🚨 GENERAL EMERGENCY")},
		{name: "No keyword", query: "tell me a joke", expected: DefaultResponse},
		{name: "Empty query", query: "", expected: DefaultResponse},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, engine.Match(tc.query))
		})
	}
}

func TestEngine_MatchIsDeterministic(t *testing.T) {
	engine := NewDefaultEngine()
	queries := []string{"bleeding", "tornado warning", "nothing relevant", "sos"}

	for _, q := range queries {
		first := engine.Match(q)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, engine.Match(q))
		}
	}
}

func TestEngine_FirstDeclaredRuleWins(t *testing.T) {
	engine := NewEngine([]Rule{
		{Keywords: []string{"alpha"}, Response: "first"},
		{Keywords: []string{"alphabet", "beta"}, Response: "second"},
	}, "none")

	assert.Equal(t, "first", engine.Match("the alphabet"), "earlier rule wins even when a later keyword is longer")
	assert.Equal(t, "second", engine.Match("beta"))
	assert.Equal(t, "none", engine.Match("gamma"))
}

func TestNewEngine_LowercasesKeywordsAndCopiesTable(t *testing.T) {
	rules := []Rule{{Keywords: []string{"SOS"}, Response: "signal"}}
	engine := NewEngine(rules, "none")

	rules[0].Response = "mutated"

	assert.Equal(t, "signal", engine.Match("send an sos"))
}

func TestQuickPromptsHaveDedicatedAnswers(t *testing.T) {
	engine := NewDefaultEngine()
	for _, p := range QuickPrompts {
		t.Run(p.Label, func(t *testing.T) {
			assert.NotEqual(t, DefaultResponse, engine.Match(p.Prompt))
		})
	}
}
