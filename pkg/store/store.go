// Package store implements the Live Store and Archive Store split spec.md
// §4.7 describes: a hot, TTL-bound in-memory cache for active games, and a
// durable backend for terminal ones. The Live Store hot path is backed by
// github.com/dgraph-io/ristretto/v2, matching hailam-chessplay's use of
// ristretto as badger's dependency but reused here directly as a
// general-purpose TTL cache. The Archive Store is backed by
// github.com/dgraph-io/badger/v4, adapted from hailam-chessplay's
// internal/storage Save/LoadPreferences shape.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/seekerror/logw"
	"golang.org/x/sync/singleflight"
)

const (
	// LiveTTL is the idle TTL for an active game's GameState entry.
	LiveTTL = 24 * time.Hour
	// EventsTTL is the idle TTL for a game's reconnect-replay ring buffer.
	EventsTTL = 1 * time.Hour
	// AbandonAfter is how long a WAITING_FOR_PLAYERS or IN_PROGRESS game may
	// sit with no Live Store presence before it is archived as ABANDONED.
	AbandonAfter = 2 * time.Hour
)

func gameKey(id string) string    { return "game:" + id }
func eventsKey(id string) string  { return "events:" + id }
func sessionKey(id string) string { return "session:" + id }

// Record is the value the Live Store holds for a game key, opaque to the
// store itself; pkg/state owns the concrete GameState shape.
type Record = any

// registryEntry tracks bookkeeping ristretto cannot answer on its own
// (it has no key-enumeration API): when a game was first seen live and
// what phase it's believed to be in, so the abandonment sweep can reason
// about entries that have since TTL'd out of the hot cache.
type registryEntry struct {
	firstSeen time.Time
	lastSeen  time.Time
	terminal  bool
}

// LiveStore is the hot, TTL-bound cache for active GameState entries and
// their companion event ring buffers. Mutated only by the actor that owns
// a given game (spec.md §5); safe for concurrent use across games.
type LiveStore struct {
	cache *ristretto.Cache[string, Record]
	gen   int64 // generation counter, bumped on every Set for debugging/metrics

	mu       sync.Mutex
	registry map[string]*registryEntry
}

// NewLiveStore constructs a Live Store with sensible ristretto defaults for
// a service expecting on the order of tens of thousands of concurrent
// games.
func NewLiveStore() (*LiveStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, Record]{
		NumCounters: 1e7,
		MaxCost:     1 << 30,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("store: create live cache: %w", err)
	}
	return &LiveStore{cache: cache, registry: map[string]*registryEntry{}}, nil
}

// Get returns the live GameState for id, if present and unexpired.
func (s *LiveStore) Get(ctx context.Context, id string) (Record, bool) {
	v, ok := s.cache.Get(gameKey(id))
	if !ok {
		return nil, false
	}
	s.touch(id, false)
	return v, true
}

// Set stores or refreshes the live GameState for id with the standard
// 24h idle TTL.
func (s *LiveStore) Set(ctx context.Context, id string, rec Record, terminal bool) error {
	if !s.cache.SetWithTTL(gameKey(id), rec, 1, LiveTTL) {
		return fmt.Errorf("store: live cache rejected set for game %q (over cost budget)", id)
	}
	s.cache.Wait()
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
	s.touch(id, terminal)
	return nil
}

// Remove drops id from the Live Store, per spec.md §3's lifecycle rule
// that a terminal game's in-memory record is removed once archived.
func (s *LiveStore) Remove(ctx context.Context, id string) {
	s.cache.Del(gameKey(id))
	s.cache.Del(eventsKey(id))
	s.mu.Lock()
	delete(s.registry, id)
	s.mu.Unlock()
}

func (s *LiveStore) touch(id string, terminal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.registry[id]
	if !ok {
		e = &registryEntry{firstSeen: time.Now()}
		s.registry[id] = e
	}
	e.lastSeen = time.Now()
	e.terminal = e.terminal || terminal
}

// GetEvents returns the event ring buffer for id, if present.
func (s *LiveStore) GetEvents(ctx context.Context, id string) ([]Record, bool) {
	v, ok := s.cache.Get(eventsKey(id))
	if !ok {
		return nil, false
	}
	ring, ok := v.([]Record)
	return ring, ok
}

// SetEvents stores the event ring buffer for id with the 1h idle TTL.
func (s *LiveStore) SetEvents(ctx context.Context, id string, ring []Record) {
	s.cache.SetWithTTL(eventsKey(id), Record(ring), 1, EventsTTL)
	s.cache.Wait()
}

// SetSession records an anonymous session's existence with the given idle
// TTL. Session tokens are only honored while this entry lives (spec.md
// §4.6 "confirms the session still exists in the store").
func (s *LiveStore) SetSession(ctx context.Context, id string, ttl time.Duration) {
	s.cache.SetWithTTL(sessionKey(id), time.Now(), 1, ttl)
	s.cache.Wait()
}

// TouchSession reports whether the anonymous session still exists,
// refreshing its TTL as the lastActivity bump.
func (s *LiveStore) TouchSession(ctx context.Context, id string, ttl time.Duration) bool {
	if _, ok := s.cache.Get(sessionKey(id)); !ok {
		return false
	}
	s.cache.SetWithTTL(sessionKey(id), time.Now(), 1, ttl)
	s.cache.Wait()
	return true
}

// Size reports the number of games this process believes are live, for the
// health/readiness endpoint (SPEC_FULL.md §4 supplemented features).
func (s *LiveStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registry)
}

// Close releases ristretto's background goroutines.
func (s *LiveStore) Close() {
	s.cache.Close()
}

// Reason identifies why an archive record was abandoned versus a normal
// terminal transition, matching spec.md §4.7's archive Reason enumeration
// as surfaced to pkg/state.
const ReasonAbandoned = "abandonment"

// SweepAbandoned scans the registry for WAITING_FOR_PLAYERS/IN_PROGRESS
// games that have aged out of the Live Store without reaching a terminal
// status, and reports their ids for migration to the Archive Store as
// ABANDONED. Does not mutate the registry; callers invoke MarkAbandoned
// after a successful archive write.
func (s *LiveStore) SweepAbandoned(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []string
	now := time.Now()
	for id, e := range s.registry {
		if e.terminal {
			continue
		}
		if _, live := s.cache.Get(gameKey(id)); live {
			continue
		}
		if now.Sub(e.lastSeen) > AbandonAfter {
			stale = append(stale, id)
		}
	}
	return stale
}

// MarkAbandoned removes id's registry bookkeeping after it has been
// archived as ABANDONED, purging the orphaned events:{id} key too
// (spec.md §4.7).
func (s *LiveStore) MarkAbandoned(ctx context.Context, id string) {
	s.cache.Del(eventsKey(id))
	s.mu.Lock()
	delete(s.registry, id)
	s.mu.Unlock()
}

// ArchiveEntry is the durable record persisted on a terminal transition
// (spec.md §4.7).
type ArchiveEntry struct {
	GameID      string          `json:"game_id"`
	Result      string          `json:"result"` // "white" | "black" | "draw" | "none"
	Reason      string          `json:"reason"`
	FinalFEN    string          `json:"final_fen"`
	MoveHistory json.RawMessage `json:"move_history"`
	Config      json.RawMessage `json:"config"`
	WhiteID     string          `json:"white_id"`
	BlackID     string          `json:"black_id"`
	CreatedAt   time.Time       `json:"created_at"`
	EndedAt     time.Time       `json:"ended_at"`
}

// ArchiveStore durably persists terminal games, backed by badger/v4,
// grounded on hailam-chessplay's internal/storage Storage type.
type ArchiveStore struct {
	db *badger.DB
	sf singleflight.Group
}

// OpenArchiveStore opens (or creates) the badger database at dir.
func OpenArchiveStore(dir string) (*ArchiveStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // logw handles logging; badger's own logger would double up.

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open archive db at %q: %w", dir, err)
	}
	return &ArchiveStore{db: db}, nil
}

func (a *ArchiveStore) Close() error {
	return a.db.Close()
}

// Save persists entry, keyed by its GameID.
func (a *ArchiveStore) Save(ctx context.Context, entry ArchiveEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("store: marshal archive entry %q: %w", entry.GameID, err)
	}
	err = a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(entry.GameID), data)
	})
	if err != nil {
		return fmt.Errorf("store: persist archive entry %q: %w", entry.GameID, err)
	}
	return nil
}

// Load fetches the archived entry for id, collapsing concurrent cold loads
// of the same id into a single badger read via singleflight, matching
// frankkopp-FrankyGo's golang.org/x/sync dependency put to a cache-fill use
// here instead of search cancellation.
func (a *ArchiveStore) Load(ctx context.Context, id string) (ArchiveEntry, error) {
	v, err, _ := a.sf.Do(id, func() (any, error) {
		var entry ArchiveEntry
		err := a.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(id))
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
		})
		return entry, err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return ArchiveEntry{}, fmt.Errorf("store: archive entry %q: %w", id, err)
		}
		return ArchiveEntry{}, fmt.Errorf("store: load archive entry %q: %w", id, err)
	}
	return v.(ArchiveEntry), nil
}

// RunAbandonmentSweep runs SweepAbandoned/archive/MarkAbandoned on interval
// until ctx is done, logging each sweep. archive is the callback that
// builds and saves an ArchiveEntry for a stale id (supplied by
// cmd/gambit-server, which is given only the id and so archives no player
// ids or move history).
func (s *LiveStore) RunAbandonmentSweep(ctx context.Context, interval time.Duration, archive func(ctx context.Context, id string) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stale := s.SweepAbandoned(ctx)
			for _, id := range stale {
				if err := archive(ctx, id); err != nil {
					logw.Errorf(ctx, "store: abandon sweep failed for game %q: %v", id, err)
					continue
				}
				s.MarkAbandoned(ctx, id)
				logw.Infof(ctx, "store: archived game %q as abandoned", id)
			}
		}
	}
}
