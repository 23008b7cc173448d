package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute/admin-api/internal/models"
)

type identityResolver interface {
	Resolve(ctx context.Context, r *models.Report) models.Identity
}

// batchSubscriber consumes fully-enriched snapshots. Apply must not block.
type batchSubscriber interface {
	Apply(batch []models.EnrichedReport)
}

// EnrichmentService turns raw report snapshots into enriched ones. Every
// record in a batch is resolved concurrently, the batch is joined before
// emission, and input order is preserved. Partially-enriched batches are
// never published.
type EnrichmentService struct {
	resolver identityResolver
	logger   *zap.Logger
	metrics  *MetricsService

	mu   sync.Mutex
	subs []batchSubscriber
}

// NewEnrichmentService constructs the pipeline.
func NewEnrichmentService(resolver identityResolver, metrics *MetricsService, logger *zap.Logger) *EnrichmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrichmentService{resolver: resolver, metrics: metrics, logger: logger}
}

// Subscribe registers a consumer of enriched snapshots.
func (s *EnrichmentService) Subscribe(sub batchSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
}

// Run consumes raw snapshots until ctx is cancelled or the channel closes.
// When several snapshots are already pending, only the newest is enriched:
// a superseded batch is never observed downstream.
func (s *EnrichmentService) Run(ctx context.Context, batches <-chan []models.Report) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			for {
				select {
				case newer, stillOpen := <-batches:
					if !stillOpen {
						s.publish(s.EnrichBatch(ctx, batch))
						return
					}
					batch = newer
					continue
				default:
				}
				break
			}
			s.publish(s.EnrichBatch(ctx, batch))
		}
	}
}

// EnrichBatch resolves an identity for every report concurrently and returns
// the enriched batch in input order. A record whose resolution panics still
// receives the all-dash identity; one bad lookup never drops a record or
// fails the batch.
func (s *EnrichmentService) EnrichBatch(ctx context.Context, reports []models.Report) []models.EnrichedReport {
	start := time.Now()
	enriched := make([]models.EnrichedReport, len(reports))

	var wg sync.WaitGroup
	wg.Add(len(reports))
	for i := range reports {
		go func(i int) {
			defer wg.Done()
			report := reports[i]
			enriched[i] = models.EnrichedReport{
				Report:  report,
				EpochMs: EpochMillisFromRaw(report.Datetime),
			}
			defer func() {
				if rec := recover(); rec != nil {
					s.logger.Error("identity resolution panicked",
						zap.String("reportId", report.ID), zap.Any("panic", rec))
					applyIdentity(&enriched[i], models.UnknownIdentity())
				}
			}()
			applyIdentity(&enriched[i], s.resolver.Resolve(ctx, &report))
		}(i)
	}
	wg.Wait()

	if s.metrics != nil {
		s.metrics.ObserveEnrichment(len(reports), time.Since(start))
	}
	return enriched
}

func (s *EnrichmentService) publish(batch []models.EnrichedReport) {
	s.mu.Lock()
	subs := make([]batchSubscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Apply(batch)
	}
}

func applyIdentity(r *models.EnrichedReport, identity models.Identity) {
	r.ReporterName = identity.Name
	r.ReporterAddress = identity.Address
	r.ReporterContact = identity.Contact
}
