package suggest

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/taskgrid/internal/ctxlog"
	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/placer"
	"github.com/specialistvlad/taskgrid/internal/timegrid"
)

// ErrNoSuggestion is the only error callers see from a failed suggestion
// request, whatever the underlying cause.
var ErrNoSuggestion = errors.New("no suggestion available")

// ErrMalformed marks a response that cannot be interpreted at all.
var ErrMalformed = errors.New("malformed suggestion response")

// Request is the day snapshot sent to the suggester.
type Request struct {
	Day         string          `json:"day"`
	Window      timegrid.Window `json:"window"`
	Fixed       []model.Item    `json:"fixed"`
	Scheduled   []model.Item    `json:"scheduled"`
	Unscheduled []model.Item    `json:"unscheduled"`
}

// NewRequest splits a snapshot into the three groups the suggester sees.
func NewRequest(day string, window timegrid.Window, items []model.Item) Request {
	req := Request{
		Day:         day,
		Window:      window,
		Fixed:       []model.Item{},
		Scheduled:   []model.Item{},
		Unscheduled: []model.Item{},
	}
	for _, it := range items {
		switch {
		case it.IsFixed():
			if it.Day == day {
				req.Fixed = append(req.Fixed, it)
			}
		case it.Start == "":
			req.Unscheduled = append(req.Unscheduled, it)
		case it.Day == day:
			req.Scheduled = append(req.Scheduled, it)
		}
	}
	return req
}

// Entry is one proposed placement as received.
type Entry struct {
	ItemID          string `json:"item_id"`
	ScheduledStart  string `json:"scheduled_start"`
	DurationMinutes *int   `json:"duration_minutes,omitempty"`
}

// Response is a parsed, not yet validated, suggestion.
type Response struct {
	Schedule  []Entry `json:"schedule"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// Suggestions converts the entries for placer validation.
func (r *Response) Suggestions() []placer.Suggestion {
	out := make([]placer.Suggestion, 0, len(r.Schedule))
	for _, e := range r.Schedule {
		out = append(out, placer.Suggestion{ItemID: e.ItemID, Start: e.ScheduledStart, DurationMinutes: e.DurationMinutes})
	}
	return out
}

// Suggester proposes a schedule for the unscheduled items of a day.
type Suggester interface {
	Suggest(ctx context.Context, req Request) (*Response, error)
}

// Fetch calls s and converts every failure, including a panic inside the
// suggester, into ErrNoSuggestion.
func Fetch(ctx context.Context, s Suggester, req Request) (resp *Response, err error) {
	logger := ctxlog.FromContext(ctx).With("component", "suggest", "day", req.Day)

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Suggester panicked.", "panic", r)
			resp, err = nil, fmt.Errorf("%w: suggester panicked: %v", ErrNoSuggestion, r)
		}
	}()

	if s == nil {
		return nil, fmt.Errorf("%w: no suggester configured", ErrNoSuggestion)
	}

	logger.Debug("Requesting schedule suggestion.", "unscheduled", len(req.Unscheduled))
	resp, err = s.Suggest(ctx, req)
	if err != nil {
		logger.Warn("Suggestion request failed.", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrNoSuggestion, err)
	}
	if resp == nil {
		logger.Warn("Suggester returned an empty response.")
		return nil, fmt.Errorf("%w: empty response", ErrNoSuggestion)
	}
	logger.Debug("Received schedule suggestion.", "entries", len(resp.Schedule))
	return resp, nil
}
