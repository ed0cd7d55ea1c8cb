package generator

import (
	"context"

	"github.com/mossygate/parley/pkg/world"
)

// MemoryExcerpt is one prior exchange carried into the prompt.
type MemoryExcerpt struct {
	Input  string
	Output string
	Day    int64
}

// TalkContext is the opaque generation context assembled by the
// orchestrator for one turn: who is speaking, to whom, how the actor feels
// about them, and what they have said before.
type TalkContext struct {
	ActorID          string
	ActorName        string
	Gender           world.Gender
	Personality      world.Personality
	Disposition      string // reputation-derived, e.g. "hostile", "friendly"
	Score            int
	CounterpartyName string
	Channel          world.Channel
	Memories         []MemoryExcerpt
}

// Generator produces an in-character line for the actor. Failures must be
// typed (*Error) so the resilient executor can classify them.
type Generator interface {
	Generate(ctx context.Context, input string, tc TalkContext) (string, error)
}
