package core

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ImportTimeout bounds a single import, parse through commit.
var ImportTimeout = 2 * time.Minute

// DefaultMaxImportBytes caps uploaded import files.
const DefaultMaxImportBytes = 5 << 20

// Options configures a Service. Zero values select defaults.
type Options struct {
	MaxImportBytes int64
	CacheTTL       time.Duration
	Limiter        *ImportLimiter
	Clock          func() time.Time
}

// Service is the business logic of the boarding-school app. It is safe
// for concurrent use.
type Service struct {
	store    Store
	limiter  *ImportLimiter
	cache    *entityCache
	validate *validator.Validate
	maxBytes int64
	now      func() time.Time
}

// NewService creates a Service over the given store.
func NewService(store Store, opts Options) *Service {
	if opts.MaxImportBytes <= 0 {
		opts.MaxImportBytes = DefaultMaxImportBytes
	}
	if opts.Limiter == nil {
		opts.Limiter = NewImportLimiter(0, 0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Service{
		store:    store,
		limiter:  opts.Limiter,
		cache:    newEntityCache(opts.CacheTTL, opts.Clock),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		maxBytes: opts.MaxImportBytes,
		now:      opts.Clock,
	}
}

// Limiter exposes the import limiter for shutdown draining and status.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// today returns the current date at UTC midnight.
func (s *Service) today() time.Time {
	return dateOnly(s.now())
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
