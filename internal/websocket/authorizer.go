package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"space-service/internal/models"

	"gorm.io/gorm"
)

// Verdict is the outcome of a membership authorization check.
type Verdict int

const (
	VerdictAllowed Verdict = iota
	VerdictDenied
	VerdictNotFound
)

// Decision carries the verdict plus the space row when it exists, so callers
// can run capacity checks and build snapshots without a second lookup.
type Decision struct {
	Verdict Verdict
	Reason  string
	Space   *models.Space
}

const defaultCacheTTL = 3 * time.Second

type cacheEntry struct {
	decision  Decision
	expiresAt time.Time
}

// Authorizer decides whether a user may receive and send events in a space.
// Decisions are cached for a short window to avoid a persistence round trip
// on every join, while still converging after membership changes made outside
// this process. The policy, evaluated in order: space missing -> NotFound,
// PUBLIC -> Allowed, PRIVATE with a membership row -> Allowed, otherwise
// Denied.
type Authorizer struct {
	store SpaceStore
	ttl   time.Duration

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

type cacheKey struct {
	userID  uint
	spaceID uint
}

func NewAuthorizer(store SpaceStore, ttl time.Duration) *Authorizer {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Authorizer{
		store: store,
		ttl:   ttl,
		cache: make(map[cacheKey]cacheEntry),
	}
}

// Authorize evaluates the decision policy for (userID, spaceID). A non-nil
// error means the persistence service itself failed; the decision is only
// meaningful when err is nil.
func (a *Authorizer) Authorize(ctx context.Context, userID, spaceID uint) (Decision, error) {
	key := cacheKey{userID: userID, spaceID: spaceID}

	a.mu.Lock()
	if entry, ok := a.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		a.mu.Unlock()
		return entry.decision, nil
	}
	a.mu.Unlock()

	decision, err := a.evaluate(ctx, userID, spaceID)
	if err != nil {
		return Decision{}, err
	}

	a.mu.Lock()
	a.cache[key] = cacheEntry{decision: decision, expiresAt: time.Now().Add(a.ttl)}
	a.mu.Unlock()

	return decision, nil
}

func (a *Authorizer) evaluate(ctx context.Context, userID, spaceID uint) (Decision, error) {
	space, err := a.store.GetSpace(ctx, spaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{Verdict: VerdictNotFound, Reason: "space not found"}, nil
		}
		return Decision{}, fmt.Errorf("space lookup failed: %w", err)
	}

	if space.Type == models.SpaceTypePublic {
		return Decision{Verdict: VerdictAllowed, Space: space}, nil
	}

	member, err := a.store.IsMember(ctx, userID, spaceID)
	if err != nil {
		return Decision{}, fmt.Errorf("membership lookup failed: %w", err)
	}
	if member {
		return Decision{Verdict: VerdictAllowed, Space: space}, nil
	}

	return Decision{Verdict: VerdictDenied, Reason: "not authorized", Space: space}, nil
}

// Invalidate drops the cached decision for (userID, spaceID). Called when a
// membership is created through this process, so the next event sees it
// immediately instead of after cache expiry.
func (a *Authorizer) Invalidate(userID, spaceID uint) {
	a.mu.Lock()
	delete(a.cache, cacheKey{userID: userID, spaceID: spaceID})
	a.mu.Unlock()
}
