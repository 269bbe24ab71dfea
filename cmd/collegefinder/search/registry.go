package search

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RegistryConfig controls how long idle sessions are kept.
type RegistryConfig struct {
	// TTL is how long a session may stay idle before it is dropped.
	TTL time.Duration

	// MaxSize caps the number of sessions; the least recently used go first.
	// Zero means unlimited.
	MaxSize int

	// CleanupInterval is how often expired sessions are swept. Zero disables
	// the background sweep.
	CleanupInterval time.Duration
}

func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		TTL:             30 * time.Minute,
		MaxSize:         10000,
		CleanupInterval: 5 * time.Minute,
	}
}

// SessionRegistry hands out one Session per client id.
type SessionRegistry struct {
	entries  sync.Map // map[string]*Session
	svc      *Service
	config   RegistryConfig
	log      zerolog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewSessionRegistry(svc *Service, config RegistryConfig, log zerolog.Logger) *SessionRegistry {
	reg := &SessionRegistry{
		svc:      svc,
		config:   config,
		log:      log.With().Str("component", "session_registry").Logger(),
		stopChan: make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go reg.startCleanupRoutine()
		reg.log.Info().
			Dur("interval", config.CleanupInterval).
			Int("max_size", config.MaxSize).
			Dur("ttl", config.TTL).
			Msg("Started session cleanup routine")
	}
	return reg
}

// Session returns the session for id, creating it when needed.
func (r *SessionRegistry) Session(id string) *Session {
	if existing, ok := r.entries.Load(id); ok {
		return existing.(*Session)
	}
	actual, _ := r.entries.LoadOrStore(id, NewSession(r.svc))
	return actual.(*Session)
}

// Len counts the live sessions.
func (r *SessionRegistry) Len() int {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (r *SessionRegistry) startCleanupRoutine() {
	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup(time.Now())
		case <-r.stopChan:
			r.log.Info().Msg("Stopping session cleanup routine")
			return
		}
	}
}

type registryEntry struct {
	id       string
	lastUsed time.Time
}

func (r *SessionRegistry) cleanup(now time.Time) {
	var (
		total   int
		expired int
		evicted int
		live    []registryEntry
	)

	r.entries.Range(func(key, value any) bool {
		total++
		id := key.(string)
		lastUsed := value.(*Session).LastUsed()
		if r.config.TTL > 0 && now.Sub(lastUsed) > r.config.TTL {
			r.entries.Delete(id)
			expired++
			return true
		}
		live = append(live, registryEntry{id: id, lastUsed: lastUsed})
		return true
	})

	if r.config.MaxSize > 0 && len(live) > r.config.MaxSize {
		sort.Slice(live, func(i, j int) bool {
			return live[i].lastUsed.Before(live[j].lastUsed)
		})
		for _, e := range live[:len(live)-r.config.MaxSize] {
			r.entries.Delete(e.id)
			evicted++
		}
	}

	r.log.Debug().
		Int("total_sessions", total).
		Int("expired_removed", expired).
		Int("size_limit_removed", evicted).
		Int("remaining_sessions", len(live)-evicted).
		Msg("Completed session cleanup")
}

// Stop ends the cleanup routine and drops every session.
func (r *SessionRegistry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
	})
	r.entries.Range(func(key, _ any) bool {
		r.entries.Delete(key)
		return true
	})
	r.log.Info().Msg("Session registry stopped")
}
