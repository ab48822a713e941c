package linkedin

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/apply"
	"github.com/spigell/easy-applier/internal/dom"
	"github.com/spigell/easy-applier/internal/filtering"
	"github.com/spigell/easy-applier/internal/listing"
	"github.com/spigell/easy-applier/internal/logger"
	"github.com/spigell/easy-applier/internal/pacing"
)

// DefaultMaxPages bounds the pages of one segment. The site stops serving
// results after 1000 of them.
const DefaultMaxPages = 40

// Applier runs the apply flow of the posting currently shown.
type Applier interface {
	Apply(ctx context.Context, posting *listing.Posting) (*apply.Session, error)
}

// Outcomes is the outcome log.
type Outcomes interface {
	Applied(posting *listing.Posting) error
	Failed(posting *listing.Posting) error
}

// Segment is one (position, location) search.
type Segment struct {
	Position string
	Location string
}

// Counters are the totals of a run.
type Counters struct {
	Scanned   int
	Skipped   int
	Applied   int
	Failed    int
	NoApply   int
	Segments  int
	SegErrors int
}

// RunSession is the mutable state of one run. It is owned by the Runner.
type RunSession struct {
	Counters Counters
	// Postings lists every posting the filters admitted, in order.
	Postings listing.Postings

	seen map[string]struct{}
}

func NewRunSession() *RunSession {
	return &RunSession{seen: make(map[string]struct{})}
}

// Seen reports whether the posting URL was handled in this run.
func (s *RunSession) Seen(url string) bool {
	_, ok := s.seen[listing.CanonicalURL(url)]
	return ok
}

func (s *RunSession) markSeen(url string) {
	s.seen[listing.CanonicalURL(url)] = struct{}{}
}

type Config struct {
	Search   SearchParams
	MaxPages int
}

type Deps struct {
	Page      dom.Page
	Filtering *filtering.Filtering
	Applier   Applier
	Outcomes  Outcomes
	Scheduler pacing.Scheduler
	Logger    *zap.Logger
	// Shuffle orders the segments. Nil means a random order.
	Shuffle func([]Segment)
}

// Runner is the top-level driver loop.
type Runner struct {
	cfg     Config
	deps    Deps
	scanner *Scanner
	now     func() time.Time
}

func NewRunner(cfg Config, deps Deps) *Runner {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if deps.Scheduler == nil {
		deps.Scheduler = pacing.None{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Shuffle == nil {
		deps.Shuffle = func(s []Segment) {
			rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		}
	}
	return &Runner{cfg: cfg, deps: deps, scanner: NewScanner(deps.Page), now: time.Now}
}

// Segments returns every (position, location) pair in run order.
func (r *Runner) Segments() []Segment {
	segments := make([]Segment, 0, len(r.cfg.Search.Positions)*len(r.cfg.Search.Locations))
	for _, position := range r.cfg.Search.Positions {
		for _, location := range r.cfg.Search.Locations {
			segments = append(segments, Segment{Position: position, Location: location})
		}
	}
	r.deps.Shuffle(segments)
	return segments
}

// Run walks every segment with the given session. A failing segment is
// logged and the run goes on; only cancellation stops it early.
func (r *Runner) Run(ctx context.Context, session *RunSession) error {
	for _, seg := range r.Segments() {
		if err := ctx.Err(); err != nil {
			return err
		}

		log := r.deps.Logger.With(zap.String("position", seg.Position), zap.String("location", seg.Location))
		log.Info("starting the search")

		session.Counters.Segments++
		if err := r.runSegment(ctx, session, seg, log); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			session.Counters.SegErrors++
			log.Error("search segment failed", zap.Error(err))
		}

		if err := r.deps.Scheduler.AfterSegment(ctx); err != nil {
			return err
		}
	}

	r.deps.Logger.Info("run finished",
		zap.Int("scanned", session.Counters.Scanned),
		zap.Int("skipped", session.Counters.Skipped),
		zap.Int("applied", session.Counters.Applied),
		zap.Int("failed", session.Counters.Failed),
		zap.Int("no_apply", session.Counters.NoApply),
	)
	return nil
}

func (r *Runner) runSegment(ctx context.Context, session *RunSession, seg Segment, log *zap.Logger) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in segment: %v", rec)
		}
	}()

	for page := 0; page < r.cfg.MaxPages; page++ {
		started := r.now()
		pageURL := r.cfg.Search.SearchURL(seg.Position, seg.Location, page)

		log.Info("going to job page", zap.Int("page", page))
		if err := r.deps.Page.Navigate(ctx, pageURL); err != nil {
			return fmt.Errorf("open page %d: %w", page, err)
		}
		if err := r.deps.Scheduler.AfterAction(ctx); err != nil {
			return err
		}

		if err := r.processPage(ctx, session, seg, log); err != nil {
			if errors.Is(err, ErrNoMoreResults) {
				log.Info("segment finished", zap.String("reason", err.Error()))
				return nil
			}
			return fmt.Errorf("page %d: %w", page, err)
		}

		if err := r.deps.Scheduler.AfterPage(ctx, started); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) processPage(ctx context.Context, session *RunSession, seg Segment, log *zap.Logger) error {
	if err := r.scanner.CheckResults(ctx); err != nil {
		return err
	}

	for i := 0; ; i++ {
		tiles, err := r.scanner.Tiles(ctx)
		if err != nil {
			if errors.Is(err, dom.ErrTimeout) || errors.Is(err, dom.ErrNotFound) {
				return fmt.Errorf("no result tiles: %w", ErrNoMoreResults)
			}
			return err
		}
		if i >= len(tiles) {
			log.Debug("processed all jobs on this page", zap.Int("tiles", len(tiles)))
			return nil
		}

		posting := r.scanner.Posting(ctx, tiles[i])
		posting.SearchLocation = seg.Location
		if posting.URL == "" {
			log.Debug("tile without a link skipped", zap.Int("tile", i))
			continue
		}
		session.Counters.Scanned++

		r.handle(ctx, session, tiles[i], posting)

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// handle runs one posting through the filters and the apply flow. Nothing it
// does can fail the segment.
func (r *Runner) handle(ctx context.Context, session *RunSession, tile dom.Element, posting *listing.Posting) {
	log := logger.WithListing(r.deps.Logger, posting.URL, posting.Company, posting.Title)

	decision := r.deps.Filtering.Scan(ctx, posting)
	session.markSeen(posting.URL)
	if !decision.Admitted {
		session.Counters.Skipped++
		return
	}

	if err := dom.RetryStale(ctx, func(ctx context.Context) error {
		return r.scanner.Open(ctx, tile)
	}); err != nil {
		log.Warn("failed to open posting", zap.Error(err))
		session.Counters.Skipped++
		return
	}
	if err := r.deps.Scheduler.AfterStep(ctx); err != nil {
		return
	}

	description, err := r.scanner.Description(ctx)
	if err != nil {
		log.Warn("could not load job description", zap.Error(err))
	}
	posting.Description = description

	if decision := r.deps.Filtering.Details(ctx, posting); !decision.Admitted {
		session.Counters.Skipped++
		return
	}
	session.Postings.Add(posting)

	s, err := r.deps.Applier.Apply(ctx, posting)
	switch {
	case err == nil && s.Outcome == apply.OutcomeNoApplyAvailable:
		session.Counters.NoApply++
		log.Info("no easy apply flow, probably applied earlier")
		return
	case err == nil:
		session.Counters.Applied++
		log.Info("application sent")
		if err := r.deps.Outcomes.Applied(posting); err != nil {
			log.Error("unable to save the job information", zap.Error(err))
		}
	default:
		session.Counters.Failed++
		log.Warn("failed to apply to job", zap.Error(err))
		if err := r.deps.Outcomes.Failed(posting); err != nil {
			log.Error("unable to save the job information", zap.Error(err))
		}
	}
}
