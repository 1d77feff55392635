package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"ticket-storefront/internal/models"
	"ticket-storefront/internal/services"
)

const defaultIdleTTL = 2 * time.Hour

// Deps holds the process-wide services shared by every session
type Deps struct {
	Pricing     services.PricingServiceInterface
	Credentials services.CredentialServiceInterface
	Payments    services.PaymentServiceInterface
	Checkout    services.CheckoutConfig
	// ListPrices are the tier list prices by tier and currency, restored on reprice.
	ListPrices map[string]map[string]float64
	Logger     *zap.Logger
}

// State is everything the storefront keeps for one browser session. Nothing
// here outlives the session.
type State struct {
	ID          string
	Credentials *services.MemoryCredentialStore
	Cart        *services.CartStore
	Pricing     *services.PricingSelector
	Checkout    *services.CheckoutOrchestrator

	lastSeen atomic.Int64

	initMu      sync.Mutex
	initialized bool
}

// NewState wires a fresh session
func NewState(id string, deps Deps) (*State, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session_id", shortID(id)))

	credentials := services.NewMemoryCredentialStore()
	cart := services.NewCartStoreWithListPrices(deps.ListPrices)
	pricing := services.NewPricingSelector(deps.Pricing, credentials, cart, logger)

	checkout, err := services.NewCheckoutOrchestrator(services.CheckoutDeps{
		Credentials: deps.Credentials,
		Payments:    deps.Payments,
		Store:       credentials,
		Cart:        cart,
		Selection:   pricing,
		Config:      deps.Checkout,
		Logger:      logger,
		Observer: func(from, to models.CheckoutState) {
			logger.Info("checkout state changed", zap.String("from", string(from)), zap.String("to", string(to)))
		},
	})
	if err != nil {
		return nil, err
	}

	s := &State{
		ID:          id,
		Credentials: credentials,
		Cart:        cart,
		Pricing:     pricing,
		Checkout:    checkout,
	}
	s.Touch(time.Now())
	return s, nil
}

// Touch records activity at now
func (s *State) Touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen returns the time of the last recorded activity
func (s *State) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// EnsurePricing loads the currency list and default selection on first use.
func (s *State) EnsurePricing(ctx context.Context) (models.PricingSelection, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initialized {
		return s.Pricing.Snapshot(), nil
	}
	selection, err := s.Pricing.Init(ctx)
	if err != nil {
		return selection, err
	}
	s.initialized = true
	return selection, nil
}

// Registry maps session ids to their state and evicts idle sessions
type Registry struct {
	deps   Deps
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*State
	janitor  bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewRegistry creates an empty registry
func NewRegistry(deps Deps, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		deps:     deps,
		ttl:      idleTTL,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*State),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Get returns the live session with id
func (r *Registry) Get(id string) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.Touch(r.now())
	return s, true
}

// GetOrCreate returns the session with id, creating it when absent.
func (r *Registry) GetOrCreate(id string) (*State, error) {
	if id == "" {
		return nil, errors.New("session: empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.Touch(r.now())
		return s, nil
	}

	s, err := NewState(id, r.deps)
	if err != nil {
		return nil, err
	}
	s.Touch(r.now())
	r.sessions[id] = s
	r.logger.Debug("session created", zap.String("session_id", shortID(id)))
	return s, nil
}

// Delete drops the session with id
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many were removed.
// A session with a checkout in flight is kept.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.LastSeen().After(cutoff) || s.Checkout.Status().Submitting {
			continue
		}
		delete(r.sessions, id)
		removed++
	}
	return removed
}

// StartJanitor sweeps every interval until Close is called.
func (r *Registry) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	r.mu.Lock()
	if r.janitor {
		r.mu.Unlock()
		return
	}
	r.janitor = true
	r.mu.Unlock()

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					r.logger.Info("evicted idle sessions", zap.Int("count", n), zap.Int("live", r.Len()))
				}
			case <-r.stop:
				return
			}
		}
	}()
}

// Close stops the janitor, if running, and waits for it to exit.
func (r *Registry) Close() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	r.mu.Lock()
	running := r.janitor
	r.mu.Unlock()
	if running {
		<-r.done
	}
}

// shortID trims a session id for logs.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
