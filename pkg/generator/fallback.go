package generator

import "math/rand"

// Fallback lines cover turns where generation failed after every retry.
// The counterparty always receives some in-character reply; only the logs
// see the underlying failure.
var fallbackNeutral = []string{
	"Hm? Sorry, I lost my train of thought.",
	"Give me a moment, my head is elsewhere.",
	"What was that? The day has been long.",
	"Mm. Ask me again in a little while.",
	"I can't find the words just now.",
}

var fallbackHostile = []string{
	"I have nothing to say to you.",
	"Hmph.",
	"Leave me be.",
}

var fallbackFriendly = []string{
	"Forgive me, friend, my mind wandered.",
	"Ah, bear with me a moment, would you?",
}

// Fallback picks a filler line matching the actor's disposition.
func Fallback(tc TalkContext) string {
	pool := fallbackNeutral
	switch tc.Disposition {
	case "hostile", "unfriendly":
		pool = fallbackHostile
	case "friendly", "beloved":
		pool = fallbackFriendly
	}
	return pool[rand.Intn(len(pool))]
}
