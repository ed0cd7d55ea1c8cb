package orchestrator

import (
	"errors"

	"github.com/mossygate/parley/pkg/world"
)

// Request is one inbound counterparty line addressed to an actor.
type Request struct {
	ActorID          string
	ActorName        string // original name on first observation, optional
	CounterpartyID   string
	CounterpartyName string
	Input            string
	Channel          world.Channel
}

// SignalKind is the world-affecting action a behavior trigger requests.
type SignalKind string

const (
	SignalAttack        SignalKind = "attack"
	SignalSpawnGuardian SignalKind = "spawn_guardian"
)

// BehaviorSignal asks the world layer to execute an action. The engine
// guarantees at most one signal of each kind per pair per reset period;
// applying the world effect is entirely the consumer's business.
type BehaviorSignal struct {
	ActorID        string
	CounterpartyID string
	Kind           SignalKind
}

// Response is the outcome of one handled turn. Text is always present:
// generation failures are absorbed into a fallback line.
type Response struct {
	Text         string
	Signal       *BehaviorSignal
	UsedFallback bool
}

// Validator is a caller-supplied pre-generation predicate (distance check,
// actor liveness). A failing validator rejects the turn before the
// generator is contacted and before any state changes.
type Validator func(Request) error

var (
	ErrRateLimited = errors.New("rate limited")
	ErrBusy        = errors.New("a turn is already in flight for this pair")
	ErrOutOfRange  = errors.New("counterparty out of range")
	ErrInvalid     = errors.New("invalid conversation request")
)
