package calls

import (
	"context"
	"fmt"
	"time"

	"call-ingest/pkg/logger"
	"call-ingest/pkg/metrics"

	"github.com/oklog/ulid/v2"
)

// UpsertPolicy decides which columns a later event may overwrite.
type UpsertPolicy string

const (
	// PolicyReplace overwrites the whole row; fields a later event leaves
	// out revert to their defaults.
	PolicyReplace UpsertPolicy = "replace"
	// PolicyMerge overwrites only the fields present in the later event.
	PolicyMerge UpsertPolicy = "merge"
)

func ParsePolicy(s string) (UpsertPolicy, error) {
	switch UpsertPolicy(s) {
	case "", PolicyReplace:
		return PolicyReplace, nil
	case PolicyMerge:
		return PolicyMerge, nil
	default:
		return "", fmt.Errorf("unknown upsert policy %q", s)
	}
}

// Options configures a Service. The zero value is usable.
type Options struct {
	Policy  UpsertPolicy
	Cache   ListingCache
	Metrics *metrics.Metrics
}

// Service is the event normalizer, upsert reconciler and listing query.
//
// It holds no mutable state of its own; conflicting deliveries are resolved
// by the repository's conditional write. A nil repository means storage is
// not configured and every storage-bound call returns ErrConfiguration.
type Service struct {
	repo    Repository
	cache   ListingCache
	policy  UpsertPolicy
	metrics *metrics.Metrics

	// clock and newID are injectable for deterministic tests.
	clock func() time.Time
	newID func() string
}

func NewService(repo Repository, opts Options) *Service {
	policy := opts.Policy
	if policy == "" {
		policy = PolicyReplace
	}
	return &Service{
		repo:    repo,
		cache:   opts.Cache,
		policy:  policy,
		metrics: opts.Metrics,
		clock:   time.Now,
		newID:   NewID,
	}
}

// NewID returns a time-sortable internal row id.
func NewID() string {
	return ulid.Make().String()
}

// Ingest validates one webhook body and merges it into storage with exactly
// one write. Redelivering the same body is safe.
func (s *Service) Ingest(ctx context.Context, body []byte) (Ack, error) {
	env, err := DecodeEnvelope(body)
	if err != nil {
		return Ack{}, err
	}
	rec, provided, err := Normalize(env, s.clock())
	if err != nil {
		return Ack{Event: env.Event, CallID: env.Call.CallID}, err
	}
	if s.repo == nil {
		return Ack{Event: env.Event, CallID: env.Call.CallID}, ErrConfiguration
	}

	rec.ID = s.newID()
	overwrite := AllFields
	if s.policy == PolicyMerge {
		overwrite = provided
	}

	start := time.Now()
	res, err := s.repo.Upsert(ctx, rec, overwrite)
	s.metrics.ObserveStorage("upsert", time.Since(start))
	if err != nil {
		return Ack{Event: env.Event, CallID: rec.CallID}, &StorageError{Op: "upsert", Err: err}
	}
	s.metrics.Upsert(res.Created)
	s.invalidateListing(ctx)

	return Ack{
		ID:      res.ID,
		CallID:  rec.CallID,
		Event:   env.Event,
		Created: res.Created,
	}, nil
}

// List returns every stored call, newest first.
func (s *Service) List(ctx context.Context) ([]CallRecord, error) {
	if s.repo == nil {
		return nil, ErrConfiguration
	}

	// gen is read before storage so a write landing mid-read retires it.
	var (
		gen      int64
		fillable bool
	)
	if s.cache != nil {
		recs, g, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			logger.From(ctx).Warn("listing cache read failed", "err", err)
		case ok:
			s.metrics.Listing("cache")
			return recs, nil
		default:
			gen, fillable = g, true
		}
	}

	start := time.Now()
	recs, err := s.repo.List(ctx)
	s.metrics.ObserveStorage("list", time.Since(start))
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	s.metrics.Listing("db")

	if fillable {
		if err := s.cache.Set(ctx, gen, recs); err != nil {
			logger.From(ctx).Warn("listing cache write failed", "err", err)
		}
	}
	return recs, nil
}

// Policy reports the configured upsert policy.
func (s *Service) Policy() UpsertPolicy { return s.policy }

// Configured reports whether a repository is attached.
func (s *Service) Configured() bool { return s != nil && s.repo != nil }

func (s *Service) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.From(ctx).Warn("listing cache invalidation failed", "err", err)
	}
}
