// Package app wires the chatgraph pipeline: archives are loaded into
// canonical events, folded into per-person daily series, smoothed, ranked and
// converted into a chart.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/chatgraph/internal/adapters/source"
	"github.com/okian/chatgraph/internal/adapters/source/adium"
	"github.com/okian/chatgraph/internal/adapters/source/facebook"
	"github.com/okian/chatgraph/internal/adapters/source/hangouts"
	"github.com/okian/chatgraph/internal/adapters/worker"
	"github.com/okian/chatgraph/internal/config"
	"github.com/okian/chatgraph/internal/domain/aggregate"
	"github.com/okian/chatgraph/internal/domain/credit"
	"github.com/okian/chatgraph/internal/domain/dedupe"
	"github.com/okian/chatgraph/internal/domain/model"
	"github.com/okian/chatgraph/internal/domain/ranking"
	"github.com/okian/chatgraph/internal/domain/smoothing"
	"github.com/okian/chatgraph/internal/domain/types"
	"github.com/okian/chatgraph/internal/domain/weighting"
	"github.com/okian/chatgraph/pkg/logger"
	"github.com/okian/chatgraph/pkg/metrics"
)

// Pipeline stage names, used for metrics and logs.
const (
	StageLoad      = "load"
	StageAggregate = "aggregate"
	StageSmooth    = "smooth"
	StageRank      = "rank"
)

// outcomeCredited labels conversations that produced events.
const outcomeCredited = "credited"

// DefaultRegistry returns a registry with every supported archive format.
func DefaultRegistry() *source.Registry {
	return source.NewRegistry(facebook.New(), adium.New(), hangouts.New())
}

// Service runs the pipeline for one resolved configuration.
type Service struct {
	mu sync.RWMutex

	settings *config.Settings
	registry *source.Registry

	// Set by the last successful Run.
	chart   *types.Chart
	stats   Stats
	lastRun time.Time

	logger logger.Logger
}

// Stats summarizes the last run.
type Stats struct {
	Archives      int            `json:"archives"`
	Conversations int            `json:"conversations"`
	Skipped       map[string]int `json:"skipped"`
	Events        int            `json:"events"`
	Duplicates    int            `json:"duplicates"`
	Unattributed  int            `json:"unattributed"`
	Failed        int            `json:"failed"`
	Persons       int            `json:"persons"`
	ActiveDays    int            `json:"activeDays"`
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry replaces the archive readers.
func WithRegistry(r *source.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// New constructs a Service for settings.
func New(settings *config.Settings, opts ...Option) *Service {
	s := &Service{
		settings: settings,
		registry: DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Run executes the whole pipeline over specs and returns the chart.
func (s *Service) Run(ctx context.Context, specs []source.Spec) (types.Chart, error) {
	readers := make([]source.Reader, len(specs))
	for i, spec := range specs {
		rd, err := s.registry.Lookup(spec.Format)
		if err != nil {
			metrics.RecordError("service", "unknown_format")
			return types.Chart{}, err
		}
		readers[i] = rd
	}
	if err := s.settings.RankOptions().Validate(); err != nil {
		return types.Chart{}, err
	}

	w := s.settings.Window()
	smoother, err := smoothing.New(w, s.settings.Kernel)
	if err != nil {
		return types.Chart{}, err
	}

	s.logger.Info(ctx, "pipeline starting",
		logger.Int("archives", len(specs)),
		logger.String("start", w.Start.String()),
		logger.String("end", w.End.String()),
		logger.String("kernel", s.settings.KernelName),
		logger.Int("halfWindow", w.HalfWidth),
		logger.String("weighting", weighting.Name(weighting.New(s.settings.WordCount))),
	)

	stats := Stats{Archives: len(specs), Skipped: map[string]int{}}

	batches, err := s.load(ctx, specs, readers, &stats)
	if err != nil {
		return types.Chart{}, err
	}

	byPerson, err := s.aggregate(ctx, batches, &stats)
	if err != nil {
		return types.Chart{}, err
	}

	dense, smoothErr := s.smooth(ctx, smoother, byPerson)
	if dense == nil {
		return types.Chart{}, smoothErr
	}
	stats.Failed = len(byPerson) - len(dense)

	start := time.Now()
	res, err := ranking.Rank(dense, s.settings.RankOptions())
	metrics.ObserveStage(StageRank, time.Since(start))
	if err != nil {
		metrics.RecordError("ranking", "rank_failed")
		return types.Chart{}, err
	}

	chart := types.NewChart(s.settings.Title, w, res)

	s.mu.Lock()
	s.chart = &chart
	s.stats = stats
	s.lastRun = time.Now()
	s.mu.Unlock()

	s.logger.Info(ctx, "pipeline finished",
		logger.Int("persons", stats.Persons),
		logger.Int("events", stats.Events),
		logger.Int("series", len(chart.Series)),
		logger.Float64("total", chart.Grand()),
	)
	if smoothErr != nil {
		return chart, fmt.Errorf("%w: %w", ErrPartialSmoothing, smoothErr)
	}
	return chart, nil
}

// splitter builds the shared crediting rule from settings.
func (s *Service) splitter() *credit.Splitter {
	var d dedupe.Deduper = dedupe.Nop{}
	if s.settings.Dedupe {
		d = dedupe.NewInMemoryDeduper()
	}
	return credit.NewSplitter(s.settings.User,
		credit.WithGroupChats(s.settings.GroupChats),
		credit.WithWeigher(weighting.New(s.settings.WordCount)),
		credit.WithNormalizer(s.settings.Normalizer),
		credit.WithDeduper(d),
		credit.WithLocation(s.settings.Location),
	)
}

// load reads archives concurrently. Batches keep argument order. With
// de-duplication on, archives are read one at a time so the first archive
// named always wins.
func (s *Service) load(ctx context.Context, specs []source.Spec, readers []source.Reader, stats *Stats) ([][]model.Event, error) {
	start := time.Now()
	defer func() { metrics.ObserveStage(StageLoad, time.Since(start)) }()

	splitter := s.splitter()
	batches := make([][]model.Event, len(specs))
	perArchive := make([]source.Stats, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	if s.settings.Dedupe {
		g.SetLimit(1)
	}
	for i := range specs {
		i := i
		g.Go(func() error {
			events, st, err := source.Load(gctx, readers[i], specs[i].Path, splitter)
			if err != nil {
				metrics.RecordError("source", readers[i].Format())
				return err
			}
			batches[i] = events
			perArchive[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, st := range perArchive {
		format := readers[i].Format()
		metrics.RecordEvents(format, st.Events)
		metrics.RecordDuplicates(format, st.Duplicates)
		metrics.RecordConversations(format, outcomeCredited, st.Credited)
		for reason, n := range st.Skipped {
			metrics.RecordConversations(format, reason, n)
			stats.Skipped[reason] += n
		}
		stats.Conversations += st.Conversations
		stats.Events += st.Events
		stats.Duplicates += st.Duplicates
		stats.Unattributed += st.Unattributed

		s.logger.Info(ctx, "archive loaded",
			logger.String("archive", specs[i].String()),
			logger.Int("conversations", st.Conversations),
			logger.Int("credited", st.Credited),
			logger.Int("messages", st.Messages),
			logger.Int("events", st.Events),
			logger.Int("unattributed", st.Unattributed),
		)
		for reason, n := range st.Skipped {
			s.logger.Debug(ctx, "conversations skipped",
				logger.String("archive", specs[i].String()),
				logger.String("reason", reason),
				logger.Int("count", n),
			)
		}
	}
	return batches, nil
}

// aggregate folds batches in argument order.
func (s *Service) aggregate(ctx context.Context, batches [][]model.Event, stats *Stats) (map[string]model.Series, error) {
	start := time.Now()
	defer func() { metrics.ObserveStage(StageAggregate, time.Since(start)) }()

	agg := aggregate.New()
	for i, batch := range batches {
		if err := agg.Add(batch); err != nil {
			metrics.RecordError("aggregate", "contract_violation")
			return nil, fmt.Errorf("archive %d: %w", i, err)
		}
	}

	series := agg.Series()
	stats.Persons = len(series)
	stats.ActiveDays = agg.ActiveDays()
	metrics.UpdatePersons(stats.Persons)
	metrics.UpdateActiveDays(stats.ActiveDays)

	s.logger.Info(ctx, "events aggregated",
		logger.Int("events", agg.Events()),
		logger.Int("persons", stats.Persons),
		logger.Int("activeDays", stats.ActiveDays),
	)
	return series, nil
}

// smooth returns every series that smoothed cleanly. A nil map means the
// stage itself failed; a non-nil map with an error means some persons were
// dropped.
func (s *Service) smooth(ctx context.Context, smoother *smoothing.Smoother, byPerson map[string]model.Series) (map[string]smoothing.Dense, error) {
	start := time.Now()
	defer func() { metrics.ObserveStage(StageSmooth, time.Since(start)) }()

	pool := worker.NewPool(s.settings.SmoothWorkers, smoother, worker.WithLogger(s.logger))
	dense, err := pool.Smooth(ctx, byPerson)
	if dense == nil {
		return nil, err
	}
	if err != nil {
		metrics.RecordError("smoothing", "person_failed")
		s.logger.Error(ctx, "persons dropped from chart",
			logger.Int("failed", len(byPerson)-len(dense)),
			logger.Error(err),
		)
	}
	s.logger.Info(ctx, "series smoothed",
		logger.Int("persons", len(dense)),
		logger.Int("workers", pool.Size()),
		logger.Duration("elapsed", time.Since(start)),
	)
	return dense, err
}

// Chart returns the chart of the last successful run.
func (s *Service) Chart() (types.Chart, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.chart == nil {
		return types.Chart{}, false
	}
	return *s.chart, true
}

// GetStats returns statistics of the last run for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]interface{}{
		"ready": s.chart != nil,
	}
	if s.chart != nil {
		out["lastRun"] = s.lastRun.UTC().Format(time.RFC3339)
		out["stats"] = s.stats
		out["series"] = len(s.chart.Series)
	}
	return out
}
