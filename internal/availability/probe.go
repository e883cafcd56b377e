package availability

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"salonbook/internal/metrics"
	"salonbook/internal/models"
	"salonbook/internal/schedule"
	"salonbook/internal/slots"
)

// DefaultBatchSize is the number of dates queried concurrently.
const DefaultBatchSize = 5

// ReasonFullyBooked marks dates gated by a red capacity badge.
const ReasonFullyBooked = "fully booked"

// SlotSource answers slot queries for a single date.
type SlotSource interface {
	Slots(ctx context.Context, date time.Time, staffID string, lines []slots.Line) ([]time.Time, error)
}

// SlotSourceFunc adapts a function to SlotSource.
type SlotSourceFunc func(ctx context.Context, date time.Time, staffID string, lines []slots.Line) ([]time.Time, error)

func (f SlotSourceFunc) Slots(ctx context.Context, date time.Time, staffID string, lines []slots.Line) ([]time.Time, error) {
	return f(ctx, date, staffID, lines)
}

// ScanRequest is the (staff, services, month) tuple a scan is keyed by, plus
// what is needed to pre-filter dates locally.
type ScanRequest struct {
	Staff      *models.Staff
	Lines      []slots.Line
	Month      time.Time
	SalonHours models.WeeklyHours
	Exceptions models.Exceptions
	// Capacity is optional; red dates are blocked without a query.
	Capacity map[string]models.DayCapacity
}

// Snapshot is the published state of the current scan.
type Snapshot struct {
	Generation uint64            `json:"generation"`
	StaffID    string            `json:"staff_id,omitempty"`
	Month      string            `json:"month,omitempty"`
	Enabled    []string          `json:"enabled"`
	Blocked    map[string]string `json:"blocked"`
	Processed  int               `json:"processed"`
	Total      int               `json:"total"`
	Progress   float64           `json:"progress"`
	Done       bool              `json:"done"`
}

// IsEnabled reports whether the scan found at least one slot on date.
func (s Snapshot) IsEnabled(date string) bool {
	i := sort.SearchStrings(s.Enabled, date)
	return i < len(s.Enabled) && s.Enabled[i] == date
}

// Options configures a Probe.
type Options struct {
	BatchSize int
}

// Probe scans a month for dates with at least one bookable slot. Only one
// scan is live at a time; starting another supersedes it.
type Probe struct {
	source    SlotSource
	batchSize int
	now       func() time.Time
	logger    zerolog.Logger

	// pubMu orders notifications so a subscriber never sees an older
	// generation after a newer one.
	pubMu    sync.Mutex
	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	done     chan struct{}
	snapshot Snapshot
	enabled  map[string]struct{}
	onUpdate []func(Snapshot)
}

// NewProbe creates a probe over source.
func NewProbe(source SlotSource, opts Options, logger zerolog.Logger) *Probe {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	closed := make(chan struct{})
	close(closed)
	return &Probe{
		source:    source,
		batchSize: opts.BatchSize,
		now:       time.Now,
		logger:    logger.With().Str("component", "availability_probe").Logger(),
		done:      closed,
		snapshot:  Snapshot{Blocked: map[string]string{}, Enabled: []string{}, Done: true},
	}
}

// WithClock replaces the probe's time source.
func (p *Probe) WithClock(now func() time.Time) *Probe {
	p.now = now
	return p
}

// Subscribe registers fn to receive every published snapshot. fn must not
// call Start.
func (p *Probe) Subscribe(fn func(Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = append(p.onUpdate, fn)
}

// Snapshot returns a copy of the latest published state.
func (p *Probe) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot.clone()
}

// Done returns a channel closed when the current scan finishes or is superseded.
func (p *Probe) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Start cancels any running scan, clears accumulated results and begins a new
// scan. It returns the new generation.
func (p *Probe) Start(ctx context.Context, req ScanRequest) uint64 {
	dates, blocked := p.plan(req)

	scanCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		if !p.snapshot.Done {
			metrics.IncProbeScan("superseded")
		}
	}
	p.gen++
	gen := p.gen
	p.cancel = cancel
	p.done = done
	p.enabled = make(map[string]struct{})
	p.snapshot = Snapshot{
		Generation: gen,
		Month:      req.Month.Format("2006-01"),
		Enabled:    []string{},
		Blocked:    blocked,
		Total:      len(dates),
		Done:       len(dates) == 0,
	}
	if req.Staff != nil {
		p.snapshot.StaffID = req.Staff.ID
	}
	if len(dates) == 0 {
		p.snapshot.Progress = 1
	}
	snap := p.snapshot.clone()
	subs := append([]func(Snapshot){}, p.onUpdate...)
	p.mu.Unlock()

	metrics.IncProbeScan("started")
	p.logger.Debug().
		Uint64("generation", gen).
		Str("month", snap.Month).
		Int("dates", len(dates)).
		Msg("availability scan started")
	notify(subs, snap)

	go p.run(scanCtx, gen, req, dates, done)
	return gen
}

// Stop cancels the running scan without starting another and publishes an
// empty snapshot.
func (p *Probe) Stop() {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
		if !p.snapshot.Done {
			metrics.IncProbeScan("superseded")
		}
	}
	p.gen++
	p.enabled = nil
	p.snapshot = Snapshot{
		Generation: p.gen,
		Enabled:    []string{},
		Blocked:    map[string]string{},
		Progress:   1,
		Done:       true,
	}
	snap := p.snapshot.clone()
	subs := append([]func(Snapshot){}, p.onUpdate...)
	p.mu.Unlock()

	notify(subs, snap)
}

func (p *Probe) plan(req ScanRequest) ([]time.Time, map[string]string) {
	loc := req.Month.Location()
	today := models.StartOfDay(p.now().In(loc))
	first := time.Date(req.Month.Year(), req.Month.Month(), 1, 0, 0, 0, 0, loc)

	var dates []time.Time
	blocked := make(map[string]string)
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		if d.Before(today) {
			continue
		}
		key := models.DateKey(d)
		if ex := schedule.CheckDate(d, req.SalonHours, req.Exceptions, req.Staff); !ex.Available {
			blocked[key] = ex.Reason
			continue
		}
		if c, ok := req.Capacity[key]; ok && !c.Bookable() {
			blocked[key] = ReasonFullyBooked
			continue
		}
		dates = append(dates, d)
	}
	return dates, blocked
}

func (p *Probe) run(ctx context.Context, gen uint64, req ScanRequest, dates []time.Time, done chan struct{}) {
	defer close(done)

	staffID := ""
	if req.Staff != nil {
		staffID = req.Staff.ID
	}

	for i := 0; i < len(dates); i += p.batchSize {
		if ctx.Err() != nil {
			return
		}

		end := i + p.batchSize
		if end > len(dates) {
			end = len(dates)
		}
		batch := dates[i:end]
		found := make([]bool, len(batch))

		var g errgroup.Group
		for j, d := range batch {
			g.Go(func() error {
				found[j] = p.query(ctx, d, staffID, req.Lines)
				return nil
			})
		}
		_ = g.Wait()

		if !p.publish(gen, batch, found) {
			return
		}
	}
}

// query is fail-closed: any error means no slots.
func (p *Probe) query(ctx context.Context, date time.Time, staffID string, lines []slots.Line) bool {
	starts, err := p.source.Slots(ctx, date, staffID, lines)
	if err != nil {
		metrics.IncProbeQuery("error")
		p.logger.Warn().Err(err).Str("date", models.DateKey(date)).Msg("slot query failed")
		return false
	}
	if len(starts) == 0 {
		metrics.IncProbeQuery("no_slots")
		return false
	}
	metrics.IncProbeQuery("has_slots")
	return true
}

// publish merges a batch into the snapshot unless gen has been superseded.
func (p *Probe) publish(gen uint64, batch []time.Time, found []bool) bool {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		p.logger.Debug().Uint64("generation", gen).Msg("discarding stale scan batch")
		return false
	}

	for j, d := range batch {
		if found[j] {
			p.enabled[models.DateKey(d)] = struct{}{}
		}
	}
	s := &p.snapshot
	s.Processed += len(batch)
	s.Enabled = sortedKeys(p.enabled)
	s.Progress = float64(s.Processed) / float64(s.Total)
	s.Done = s.Processed >= s.Total
	snap := s.clone()
	subs := append([]func(Snapshot){}, p.onUpdate...)
	p.mu.Unlock()

	if snap.Done {
		metrics.IncProbeScan("completed")
	}
	notify(subs, snap)
	return true
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Enabled = append([]string{}, s.Enabled...)
	out.Blocked = make(map[string]string, len(s.Blocked))
	for k, v := range s.Blocked {
		out.Blocked[k] = v
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
