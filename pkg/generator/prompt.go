package generator

import (
	"fmt"
	"strings"
)

// Character budgets per prompt section, roughly 4 chars per token. The
// identity line is never trimmed; memory excerpts are.
const (
	maxMemoryChars = 1600
	maxInputChars  = 2000
)

// Message is the provider-agnostic chat message shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildMessages assembles the system prompt from the talk context and
// appends the counterparty's line as the user message.
func BuildMessages(input string, tc TalkContext) []Message {
	var b strings.Builder

	name := tc.ActorName
	if name == "" {
		name = "a villager"
	}
	fmt.Fprintf(&b, "You are %s, a character living in a simulated world.\n", name)
	if tc.Personality != "" {
		fmt.Fprintf(&b, "Personality: %s.\n", tc.Personality)
	}
	if tc.Gender != "" && tc.Gender != "unknown" {
		fmt.Fprintf(&b, "Gender: %s.\n", tc.Gender)
	}
	fmt.Fprintf(&b, "You are speaking with %s over %s.\n", orUnknown(tc.CounterpartyName), tc.Channel)

	if tc.Disposition != "" {
		fmt.Fprintf(&b, "Your current disposition toward them is %s (score %d).\n", tc.Disposition, tc.Score)
		b.WriteString("Let that disposition color your tone, but stay in character.\n")
	}

	if len(tc.Memories) > 0 {
		b.WriteString("\n--- What you remember of them (most recent first) ---\n")
		var used int
		for _, m := range tc.Memories {
			line := fmt.Sprintf("Day %d. They said: %q You said: %q\n", m.Day, TrimToChars(m.Input, 200), TrimToChars(m.Output, 200))
			if used+len(line) > maxMemoryChars {
				break
			}
			b.WriteString(line)
			used += len(line)
		}
	}

	b.WriteString("\nReply with a single short in-character line. No narration, no quotes.")

	return []Message{
		{Role: "system", Content: b.String()},
		{Role: "user", Content: TrimToChars(input, maxInputChars)},
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "a stranger"
	}
	return s
}

// TrimToChars truncates s to maxChars, preferring a word boundary. Safe
// for multi-byte text.
func TrimToChars(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	out := string(r[:maxChars])
	if lastSpace := strings.LastIndex(out, " "); lastSpace > maxChars/2 {
		out = out[:lastSpace]
	}
	return strings.TrimSpace(out)
}

// CleanReply normalizes a raw model reply: trims, strips one layer of
// wrapping quotes, and caps runaway length.
func CleanReply(reply string) string {
	reply = strings.TrimSpace(reply)

	if len(reply) >= 2 {
		quotes := []struct{ open, close string }{
			{`"`, `"`}, {`'`, `'`}, {"“", "”"}, {"‘", "’"},
		}
		for _, q := range quotes {
			if strings.HasPrefix(reply, q.open) && strings.HasSuffix(reply, q.close) {
				reply = strings.TrimSuffix(strings.TrimPrefix(reply, q.open), q.close)
				reply = strings.TrimSpace(reply)
				break
			}
		}
	}

	if len(reply) > 1200 {
		reply = TrimToChars(reply, 1200)
	}
	return reply
}
