package world

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mossygate/parley/pkg/logger"
)

// ErrActorNotFound is returned by ActorStore implementations when no durable
// record exists for an actor id.
var ErrActorNotFound = errors.New("actor not found")

// ActorStore is the persistence collaborator: one durable, self-contained
// record per actor, keyed by actor id.
type ActorStore interface {
	Load(ctx context.Context, actorID string) (*Actor, error)
	Save(ctx context.Context, actor *Actor) error
	ListIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, actorID string) error
}

// Registry owns the in-memory actor set and serializes all writes to a
// single actor's record. Persistence errors degrade to a no-op: the
// in-memory state still reflects the change and the failure is only logged,
// so a broken write never surfaces into the conversation path.
type Registry struct {
	store ActorStore
	now   func() time.Time

	mu     sync.Mutex
	actors map[string]*actorEntry
}

type actorEntry struct {
	mu    sync.Mutex
	actor *Actor
}

func NewRegistry(store ActorStore) *Registry {
	return &Registry{
		store:  store,
		now:    time.Now,
		actors: make(map[string]*actorEntry),
	}
}

// entry returns the guard for actorID, creating it on first touch.
func (r *Registry) entry(actorID string) *actorEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.actors[actorID]
	if !ok {
		e = &actorEntry{}
		r.actors[actorID] = e
	}
	return e
}

// load populates e.actor, reading from the store on first access. A missing
// or unreadable record yields a fresh actor with neutral defaults.
func (r *Registry) load(ctx context.Context, actorID string, e *actorEntry) {
	if e.actor != nil {
		return
	}
	actor, err := r.store.Load(ctx, actorID)
	switch {
	case err == nil:
		e.actor = actor
	case errors.Is(err, ErrActorNotFound):
		e.actor = r.newActor(actorID, actorID)
	default:
		logger.WarnCF("world", "Actor load failed, starting from neutral state", map[string]interface{}{
			"actor_id": actorID,
			"error":    err.Error(),
		})
		e.actor = r.newActor(actorID, actorID)
	}
}

func (r *Registry) newActor(actorID, originalName string) *Actor {
	return &Actor{
		ID:           actorID,
		OriginalName: originalName,
		Gender:       DeriveGender(originalName),
		Personality:  PersonalityFor(actorID),
		CreatedAt:    r.now(),
		Reputations:  make(map[string]*ReputationRecord),
	}
}

// Register creates the actor with its observed original name if it does not
// exist yet, and returns a snapshot either way.
func (r *Registry) Register(ctx context.Context, actorID, originalName string) Actor {
	e := r.entry(actorID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.actor == nil {
		actor, err := r.store.Load(ctx, actorID)
		if err == nil {
			e.actor = actor
		} else {
			if !errors.Is(err, ErrActorNotFound) {
				logger.WarnCF("world", "Actor load failed during register", map[string]interface{}{
					"actor_id": actorID,
					"error":    err.Error(),
				})
			}
			e.actor = r.newActor(actorID, originalName)
			r.persist(ctx, e.actor)
		}
	}
	return *e.actor
}

// Mutate applies fn to the actor under its lock and persists the result.
// The actor is created lazily when it has never been seen before.
func (r *Registry) Mutate(ctx context.Context, actorID string, fn func(*Actor) error) error {
	e := r.entry(actorID)
	e.mu.Lock()
	defer e.mu.Unlock()
	r.load(ctx, actorID, e)
	if err := fn(e.actor); err != nil {
		return err
	}
	r.persist(ctx, e.actor)
	return nil
}

// View runs fn against the actor without persisting. It reports false when
// the actor is unknown both in memory and in the store.
func (r *Registry) View(ctx context.Context, actorID string, fn func(*Actor)) bool {
	e := r.entry(actorID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.actor == nil {
		actor, err := r.store.Load(ctx, actorID)
		if err != nil {
			return false
		}
		e.actor = actor
	}
	fn(e.actor)
	return true
}

// Rename applies a custom name and re-derives gender from it.
func (r *Registry) Rename(ctx context.Context, actorID, customName string) error {
	return r.Mutate(ctx, actorID, func(a *Actor) error {
		a.CustomName = customName
		a.Gender = DeriveGender(a.EffectiveName())
		return nil
	})
}

// Touch stamps the actor's last interaction time.
func (r *Registry) Touch(ctx context.Context, actorID string) {
	_ = r.Mutate(ctx, actorID, func(a *Actor) error {
		a.LastInteractionAt = r.now()
		return nil
	})
}

// ActorIDs merges ids known durably with ids only seen in memory.
func (r *Registry) ActorIDs(ctx context.Context) []string {
	seen := make(map[string]bool)
	ids, err := r.store.ListIDs(ctx)
	if err != nil {
		logger.WarnCF("world", "Actor id listing failed", map[string]interface{}{"error": err.Error()})
	}
	for _, id := range ids {
		seen[id] = true
	}
	r.mu.Lock()
	for id := range r.actors {
		seen[id] = true
	}
	r.mu.Unlock()

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) persist(ctx context.Context, actor *Actor) {
	if err := r.store.Save(ctx, actor); err != nil {
		logger.WarnCF("world", "Actor save failed, keeping in-memory state", map[string]interface{}{
			"actor_id": actor.ID,
			"error":    err.Error(),
		})
	}
}
