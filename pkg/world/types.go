package world

import (
	"strings"
	"time"
)

// Gender is derived from an actor's name and re-derived on rename.
type Gender string

const (
	GenderUnknown Gender = "unknown"
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
)

// Personality tags an actor's speaking style for prompt assembly.
type Personality string

const (
	PersonalityGruff    Personality = "gruff"
	PersonalityCheerful Personality = "cheerful"
	PersonalityStoic    Personality = "stoic"
	PersonalitySly      Personality = "sly"
	PersonalityEarnest  Personality = "earnest"
)

// Channel is the medium a conversation turn arrived on.
type Channel string

const (
	ChannelVoice Channel = "voice"
	ChannelText  Channel = "text"
	ChannelTrade Channel = "trade"
)

// EventType classifies a reputation-affecting interaction.
type EventType string

const (
	EventPoliteness   EventType = "politeness"
	EventRudeness     EventType = "rudeness"
	EventTheft        EventType = "theft"
	EventAssault      EventType = "assault"
	EventConversation EventType = "conversation"
)

// ReputationEvent is an immutable entry in a pair's event log.
type ReputationEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	ScoreDelta  int       `json:"score_delta"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ReputationRecord tracks one actor's disposition toward one counterparty.
// Score is always the clamped sum of the event deltas. The fired flags are
// one-shot latches: once set they stay set until ResetFlags, regardless of
// score recovery.
type ReputationRecord struct {
	Score      int               `json:"score"`
	Events     []ReputationEvent `json:"events"`
	MinorFired bool              `json:"minor_fired"`
	MajorFired bool              `json:"major_fired"`
	LastUpdate time.Time         `json:"last_update"`
}

// MemoryRecord is one durable exchanged turn. WorldDay is simulation time,
// not wall clock; retention is evaluated on world-day distance only.
type MemoryRecord struct {
	ID               string    `json:"id"`
	CounterpartyID   string    `json:"counterparty_id"`
	CounterpartyName string    `json:"counterparty_name"`
	Input            string    `json:"input"`
	Output           string    `json:"output"`
	Channel          Channel   `json:"channel"`
	WorldDay         int64     `json:"world_day"`
	CreatedAt        time.Time `json:"created_at"`
}

// Actor is a persistent world entity capable of conversations and
// relationships. Reputations and Memories are mutated only through the
// reputation engine and memory store, which serialize per-actor writes
// via the Registry.
type Actor struct {
	ID                string                       `json:"id"`
	OriginalName      string                       `json:"original_name"`
	CustomName        string                       `json:"custom_name,omitempty"`
	Gender            Gender                       `json:"gender"`
	Personality       Personality                  `json:"personality"`
	CreatedAt         time.Time                    `json:"created_at"`
	LastInteractionAt time.Time                    `json:"last_interaction_at,omitempty"`
	Reputations       map[string]*ReputationRecord `json:"reputations"`
	Memories          []MemoryRecord               `json:"memories"`
}

// EffectiveName prefers the custom name when set and non-blank.
func (a *Actor) EffectiveName() string {
	if strings.TrimSpace(a.CustomName) != "" {
		return a.CustomName
	}
	return a.OriginalName
}

// Reputation returns the record for counterpartyID, creating a neutral one
// if the pair has never interacted.
func (a *Actor) Reputation(counterpartyID string) *ReputationRecord {
	if a.Reputations == nil {
		a.Reputations = make(map[string]*ReputationRecord)
	}
	rec, ok := a.Reputations[counterpartyID]
	if !ok {
		rec = &ReputationRecord{}
		a.Reputations[counterpartyID] = rec
	}
	return rec
}
