package planning

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/taskgrid/internal/ctxlog"
	"github.com/specialistvlad/taskgrid/internal/placer"
	"github.com/specialistvlad/taskgrid/internal/suggest"
)

// State is the session's position in the suggestion workflow.
type State int

const (
	Idle State = iota
	Requesting
	PreviewPending
	Applying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case PreviewPending:
		return "preview_pending"
	case Applying:
		return "applying"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrRequestInFlight = errors.New("a suggestion request is already in flight")
	ErrStaleResponse   = errors.New("suggestion is for a day that is no longer selected")
	ErrNoPreview       = errors.New("no preview pending")
	ErrBusy            = errors.New("session is busy")
)

// Session runs the suggestion workflow for the currently selected day.
// Manual placements go straight to the Planner and stay possible while a
// request is in flight.
type Session struct {
	planner   *Planner
	suggester suggest.Suggester

	mu      sync.Mutex
	state   State
	day     string
	seq     uint64
	preview *Preview
}

// NewSession creates an idle session positioned on day.
func NewSession(planner *Planner, suggester suggest.Suggester, day string) (*Session, error) {
	if err := checkDay(day); err != nil {
		return nil, err
	}
	return &Session{planner: planner, suggester: suggester, day: day}, nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Day returns the selected day.
func (s *Session) Day() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.day
}

// SelectDay moves the session to another day. A pending preview for the old
// day is dropped; an in-flight request keeps running but its response will
// be discarded as stale.
func (s *Session) SelectDay(ctx context.Context, day string) error {
	if err := checkDay(day); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Applying {
		return fmt.Errorf("%w: applying", ErrBusy)
	}
	if s.day == day {
		return nil
	}
	if s.state == PreviewPending {
		ctxlog.FromContext(ctx).Info("Dropping preview for deselected day.", "component", "session", "day", s.day)
		s.preview = nil
		s.state = Idle
	}
	s.day = day
	return nil
}

// begin moves Idle to Requesting and returns the request token.
func (s *Session) begin() (string, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Idle:
	case Requesting:
		return "", 0, ErrRequestInFlight
	default:
		return "", 0, fmt.Errorf("%w: %s", ErrBusy, s.state)
	}
	s.seq++
	s.state = Requesting
	return s.day, s.seq, nil
}

// finish leaves Requesting. It installs the preview when the response is
// still current, otherwise it reports why the response was dropped.
func (s *Session) finish(day string, seq uint64, preview *Preview, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq == seq && s.state == Requesting {
		s.state = Idle
	}
	if err != nil {
		return err
	}
	if s.seq != seq || s.day != day {
		return ErrStaleResponse
	}
	s.preview = preview
	s.state = PreviewPending
	return nil
}

// Optimize asks the suggester for a plan of the selected day. The response
// is validated against a fresh snapshot and held as a preview. Suggester
// failures return suggest.ErrNoSuggestion and leave the session Idle.
func (s *Session) Optimize(ctx context.Context) (Preview, error) {
	day, seq, err := s.begin()
	if err != nil {
		return Preview{}, err
	}
	logger := ctxlog.FromContext(ctx).With("component", "session", "day", day)
	logger.Debug("Optimization requested.")

	preview, err := s.request(ctx, day)
	if err := s.finish(day, seq, preview, err); err != nil {
		if errors.Is(err, ErrStaleResponse) {
			logger.Info("Discarding suggestion for deselected day.")
		}
		return Preview{}, err
	}
	logger.Info("Preview ready.", "accepted", len(preview.Accepted), "rejected", len(preview.Rejected))
	return *preview, nil
}

func (s *Session) request(ctx context.Context, day string) (*Preview, error) {
	items, err := s.planner.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	req := suggest.NewRequest(day, s.planner.Window(), items)
	if len(req.Unscheduled) == 0 {
		return &Preview{Day: day, Source: SourceSuggester, Accepted: []placer.Placement{}, Rejected: []placer.Rejection{}, Unplaced: []string{}}, nil
	}

	resp, err := suggest.Fetch(ctx, s.suggester, req)
	if err != nil {
		return nil, err
	}
	preview, err := s.planner.Validate(ctx, day, resp.Suggestions())
	if err != nil {
		return nil, err
	}
	preview.Reasoning = resp.Reasoning
	return &preview, nil
}

// AutoPlan runs the local heuristic and holds its result as a preview.
func (s *Session) AutoPlan(ctx context.Context) (Preview, error) {
	day, seq, err := s.begin()
	if err != nil {
		return Preview{}, err
	}
	preview, err := s.planner.AutoPlan(ctx, day)
	if err := s.finish(day, seq, &preview, err); err != nil {
		return Preview{}, err
	}
	return preview, nil
}

// Preview returns the pending preview.
func (s *Session) Preview() (Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != PreviewPending || s.preview == nil {
		return Preview{}, ErrNoPreview
	}
	return *s.preview, nil
}

// Reject discards the pending preview.
func (s *Session) Reject(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != PreviewPending {
		return ErrNoPreview
	}
	ctxlog.FromContext(ctx).Info("Preview rejected.", "component", "session", "day", s.day)
	s.preview = nil
	s.state = Idle
	return nil
}

// Apply writes the pending preview through the Planner and returns to Idle
// regardless of the outcome.
func (s *Session) Apply(ctx context.Context) (ApplyReport, error) {
	s.mu.Lock()
	if s.state != PreviewPending || s.preview == nil {
		s.mu.Unlock()
		return ApplyReport{}, ErrNoPreview
	}
	preview := *s.preview
	s.state = Applying
	s.mu.Unlock()

	report := s.planner.Apply(ctx, preview.Day, preview.Accepted)

	s.mu.Lock()
	s.preview = nil
	s.state = Idle
	s.mu.Unlock()

	ctxlog.FromContext(ctx).Info("Preview applied.", "component", "session", "day", preview.Day,
		"applied", len(report.Applied), "skipped", len(report.Skipped), "failed", report.Failed != nil)
	return report, nil
}

// PlaceAt places an item manually on the selected day. It is refused only
// while a preview is being applied.
func (s *Session) PlaceAt(ctx context.Context, itemID, start string, duration *int) (placer.Placement, error) {
	s.mu.Lock()
	if s.state == Applying {
		s.mu.Unlock()
		return placer.Placement{}, fmt.Errorf("%w: applying", ErrBusy)
	}
	day := s.day
	s.mu.Unlock()
	return s.planner.PlaceAt(ctx, day, itemID, start, duration)
}
