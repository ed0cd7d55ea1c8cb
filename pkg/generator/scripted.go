package generator

import (
	"context"
	"fmt"
	"math/rand"
)

// ScriptedGenerator answers from canned disposition-keyed lines. It exists
// for offline use: local demos, onboarding before an API key is configured,
// and deterministic-ish gateway smoke tests.
type ScriptedGenerator struct{}

var scriptedLines = map[string][]string{
	"hostile": {
		"You again. Say your piece and go.",
		"I remember what you did. Don't test me.",
	},
	"unfriendly": {
		"Make it quick.",
		"I haven't forgotten how you speak to me.",
	},
	"neutral": {
		"Good day. What brings you here?",
		"The weather holds, at least.",
		"I've work to do, but go on.",
	},
	"friendly": {
		"Always good to see you. What do you need?",
		"Ah, a familiar face! Come, talk with me.",
	},
	"beloved": {
		"My favorite visitor! Sit, sit. Tell me everything.",
		"For you? Anything. What's on your mind?",
	},
}

func (ScriptedGenerator) Generate(ctx context.Context, input string, tc TalkContext) (string, error) {
	pool, ok := scriptedLines[tc.Disposition]
	if !ok {
		pool = scriptedLines["neutral"]
	}
	line := pool[rand.Intn(len(pool))]
	if tc.CounterpartyName != "" && rand.Intn(3) == 0 {
		line = fmt.Sprintf("%s, %s", tc.CounterpartyName, line)
	}
	return line, nil
}
