package reputation

import (
	"strings"

	"github.com/mossygate/parley/pkg/world"
)

// SentimentClassifier turns raw counterparty text into a reputation event
// type. The default is a deterministic keyword table; the interface exists
// so a smarter classifier can be swapped in without touching the engine.
type SentimentClassifier interface {
	Classify(text string) world.EventType
}

// Canonical score deltas per event type. The engaged (plain conversation)
// delta is deliberately much smaller than the politeness delta so spamming
// neutral text cannot farm reputation.
var canonicalDeltas = map[world.EventType]int{
	world.EventPoliteness:   5,
	world.EventRudeness:     -10,
	world.EventTheft:        -25,
	world.EventAssault:      -40,
	world.EventConversation: 1,
}

// CanonicalDelta returns the default score delta for an event type.
func CanonicalDelta(t world.EventType) int {
	return canonicalDeltas[t]
}

// KeywordClassifier flags hostility first, then courtesy, and treats
// everything else as plain engaged conversation.
type KeywordClassifier struct{}

var hostileMarkers = []string{
	"idiot", "stupid", "moron", "shut up", "fool", "useless",
	"hate you", "dumb", "pathetic", "worthless", "ugly",
}

var courtesyMarkers = []string{
	"thank", "thanks", "please", "appreciate", "kind of you",
	"well done", "wonderful", "lovely", "grateful", "good day",
}

func (KeywordClassifier) Classify(text string) world.EventType {
	lower := strings.ToLower(text)
	for _, m := range hostileMarkers {
		if strings.Contains(lower, m) {
			return world.EventRudeness
		}
	}
	for _, m := range courtesyMarkers {
		if strings.Contains(lower, m) {
			return world.EventPoliteness
		}
	}
	return world.EventConversation
}
