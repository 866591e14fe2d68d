package planning

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/specialistvlad/taskgrid/internal/changefeed"
	"github.com/specialistvlad/taskgrid/internal/inmemorystore"
	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/placer"
	"github.com/specialistvlad/taskgrid/internal/store"
	"github.com/specialistvlad/taskgrid/internal/suggest"
	"github.com/specialistvlad/taskgrid/internal/testutil"
	"github.com/specialistvlad/taskgrid/internal/timegrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = "2025-03-10"

func seedDay(t *testing.T) *inmemorystore.Store {
	t.Helper()
	st := inmemorystore.New()
	testutil.Seed(t, st, []model.Item{
		{ID: "meeting", Title: "Meeting", Kind: model.KindFixed, Day: day, Start: "09:00", DurationMinutes: model.Minutes(60)},
		{ID: "t1", Title: "Report", Kind: model.KindFlexible, DurationMinutes: model.Minutes(30)},
		{ID: "t2", Title: "Email", Kind: model.KindFlexible, DurationMinutes: model.Minutes(30)},
	}, nil)
	return st
}

func TestPlannerPlaceAt(t *testing.T) {
	ctx, _ := testutil.Context(t)
	st := seedDay(t)
	rec := &changefeed.Recorder{}
	p := NewPlanner(st, timegrid.DefaultWindow, rec)

	_, err := p.PlaceAt(ctx, day, "t1", "09:30", nil)
	assert.ErrorIs(t, err, placer.ErrConflict)
	it, err := st.GetItem(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, it.Start, "a refused placement is not persisted")

	pl, err := p.PlaceAt(ctx, day, "t1", "10:00", nil)
	require.NoError(t, err)
	assert.Equal(t, "10:00", pl.Start)

	it, err = st.GetItem(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, day, it.Day)
	assert.Equal(t, "10:00", it.Start)
	assert.Equal(t, []changefeed.EventType{changefeed.ItemUpdated}, rec.Types())

	_, err = p.PlaceAt(ctx, day, "t2", "10:15", nil)
	assert.ErrorIs(t, err, placer.ErrConflict, "persisted placements occupy their interval")

	_, err = p.PlaceAt(ctx, "10/03/2025", "t2", "12:00", nil)
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestPlannerConcurrentPlacementsNeverOverlap(t *testing.T) {
	ctx, _ := testutil.Context(t)
	st := seedDay(t)
	p := NewPlanner(st, timegrid.DefaultWindow, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"t1", "t2"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = p.PlaceAt(ctx, day, id, "14:00", nil)
		}(i, id)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, placer.ErrConflict)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestPlannerUnplace(t *testing.T) {
	ctx, _ := testutil.Context(t)
	st := seedDay(t)
	p := NewPlanner(st, timegrid.DefaultWindow, nil)

	_, err := p.PlaceAt(ctx, day, "t1", "10:00", nil)
	require.NoError(t, err)
	require.NoError(t, p.Unplace(ctx, "t1"))

	it, err := st.GetItem(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, it.Start)
	assert.Empty(t, it.Day)

	assert.NoError(t, p.Unplace(ctx, "t1"), "unplacing twice is harmless")
	assert.ErrorIs(t, p.Unplace(ctx, "meeting"), placer.ErrFixedItem)
	assert.ErrorIs(t, p.Unplace(ctx, "ghost"), store.ErrNotFound)
}

func TestPlannerDayIndex(t *testing.T) {
	ctx, _ := testutil.Context(t)
	p := NewPlanner(seedDay(t), timegrid.DefaultWindow, nil)

	_, err := p.PlaceAt(ctx, day, "t1", "09:00", model.Minutes(15))
	assert.ErrorIs(t, err, placer.ErrConflict)
	_, err = p.PlaceAt(ctx, day, "t1", "10:15", nil)
	require.NoError(t, err)

	idx, err := p.DayIndex(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 10}, idx.Hours())
	assert.Equal(t, "t1", idx.At(10)[0].ID)
}

func TestPlannerApply(t *testing.T) {
	ctx, _ := testutil.Context(t)

	t.Run("stops at the first failure", func(t *testing.T) {
		st := seedDay(t)
		p := NewPlanner(st, timegrid.DefaultWindow, nil)

		report := p.Apply(ctx, day, []placer.Placement{
			{ItemID: "t1", Day: day, Start: "11:00", DurationMinutes: 30},
			{ItemID: "t2", Day: day, Start: "09:15", DurationMinutes: 30},
			{ItemID: "t2", Day: day, Start: "12:00", DurationMinutes: 30},
		})

		require.Len(t, report.Applied, 1)
		assert.Equal(t, "t1", report.Applied[0].ItemID)
		require.NotNil(t, report.Failed)
		assert.Equal(t, "t2", report.Failed.Placement.ItemID)
		assert.ErrorIs(t, report.Failed.Err, placer.ErrConflict)
		assert.Len(t, report.Skipped, 1)
	})

	t.Run("an item scheduled meanwhile is not moved", func(t *testing.T) {
		st := seedDay(t)
		p := NewPlanner(st, timegrid.DefaultWindow, nil)
		_, err := p.PlaceAt(ctx, day, "t1", "15:00", nil)
		require.NoError(t, err)

		report := p.Apply(ctx, day, []placer.Placement{{ItemID: "t1", Day: day, Start: "11:00", DurationMinutes: 30}})
		require.NotNil(t, report.Failed)
		assert.ErrorIs(t, report.Failed.Err, ErrNotInPool)

		it, err := st.GetItem(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "15:00", it.Start)
	})
}

func cannedSuggester(resp *suggest.Response, err error) suggest.Suggester {
	return suggest.SuggesterFunc(func(context.Context, suggest.Request) (*suggest.Response, error) {
		return resp, err
	})
}

func TestSessionOptimizeAndApply(t *testing.T) {
	ctx, _ := testutil.Context(t)
	st := seedDay(t)
	p := NewPlanner(st, timegrid.DefaultWindow, nil)

	s, err := NewSession(p, cannedSuggester(&suggest.Response{
		Schedule: []suggest.Entry{
			{ItemID: "t1", ScheduledStart: "14:00"},
			{ItemID: "t2", ScheduledStart: "14:00"},
			{ItemID: "unknown-id", ScheduledStart: "15:00"},
		},
		Reasoning: "afternoon",
	}, nil), day)
	require.NoError(t, err)
	assert.Equal(t, Idle, s.State())

	preview, err := s.Optimize(ctx)
	require.NoError(t, err)
	assert.Equal(t, PreviewPending, s.State())
	assert.Equal(t, "afternoon", preview.Reasoning)
	require.Len(t, preview.Accepted, 1)
	assert.Equal(t, "t1", preview.Accepted[0].ItemID)
	require.Len(t, preview.Rejected, 2)
	assert.Equal(t, placer.RejectConflict, preview.Rejected[0].Reason)
	assert.Equal(t, placer.RejectUnknownItem, preview.Rejected[1].Reason)

	got, err := s.Preview()
	require.NoError(t, err)
	assert.Equal(t, preview, got)

	_, err = s.Optimize(ctx)
	assert.ErrorIs(t, err, ErrBusy, "a pending preview must be applied or rejected first")

	report, err := s.Apply(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Applied, 1)
	assert.Nil(t, report.Failed)
	assert.Equal(t, Idle, s.State())

	it, err := st.GetItem(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "14:00", it.Start)

	_, err = s.Apply(ctx)
	assert.ErrorIs(t, err, ErrNoPreview)
}

func TestSessionReject(t *testing.T) {
	ctx, _ := testutil.Context(t)
	p := NewPlanner(seedDay(t), timegrid.DefaultWindow, nil)
	s, err := NewSession(p, nil, day)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Reject(ctx), ErrNoPreview)

	_, err = s.AutoPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, PreviewPending, s.State())

	require.NoError(t, s.Reject(ctx))
	assert.Equal(t, Idle, s.State())
	_, err = s.Preview()
	assert.ErrorIs(t, err, ErrNoPreview)
}

func TestSessionSuggesterFailureLeavesIdle(t *testing.T) {
	ctx, _ := testutil.Context(t)
	p := NewPlanner(seedDay(t), timegrid.DefaultWindow, nil)

	for name, sg := range map[string]suggest.Suggester{
		"error": cannedSuggester(nil, errors.New("timeout")),
		"nil":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			s, err := NewSession(p, sg, day)
			require.NoError(t, err)
			_, err = s.Optimize(ctx)
			assert.ErrorIs(t, err, suggest.ErrNoSuggestion)
			assert.Equal(t, Idle, s.State())
		})
	}
}

func TestSessionSingleRequestAndStaleDay(t *testing.T) {
	ctx, _ := testutil.Context(t)
	st := seedDay(t)
	p := NewPlanner(st, timegrid.DefaultWindow, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	sg := suggest.SuggesterFunc(func(context.Context, suggest.Request) (*suggest.Response, error) {
		close(entered)
		<-release
		return &suggest.Response{Schedule: []suggest.Entry{{ItemID: "t1", ScheduledStart: "10:00"}}}, nil
	})
	s, err := NewSession(p, sg, day)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Optimize(ctx)
		done <- err
	}()
	<-entered
	assert.Equal(t, Requesting, s.State())

	_, err = s.Optimize(ctx)
	assert.ErrorIs(t, err, ErrRequestInFlight)

	_, err = s.PlaceAt(ctx, "t2", "16:00", nil)
	assert.NoError(t, err, "manual placement stays available while requesting")

	require.NoError(t, s.SelectDay(ctx, "2025-03-11"))
	close(release)

	assert.ErrorIs(t, <-done, ErrStaleResponse)
	assert.Equal(t, Idle, s.State())
	_, err = s.Preview()
	assert.ErrorIs(t, err, ErrNoPreview)
}

func TestSessionSelectDayDropsPreview(t *testing.T) {
	ctx, _ := testutil.Context(t)
	p := NewPlanner(seedDay(t), timegrid.DefaultWindow, nil)
	s, err := NewSession(p, nil, day)
	require.NoError(t, err)

	_, err = s.AutoPlan(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SelectDay(ctx, day), "reselecting the same day keeps the preview")
	assert.Equal(t, PreviewPending, s.State())

	require.NoError(t, s.SelectDay(ctx, "2025-03-12"))
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, "2025-03-12", s.Day())

	assert.ErrorIs(t, s.SelectDay(ctx, "tomorrow"), ErrInvalidDay)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "preview_pending", PreviewPending.String())
	text, err := Applying.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "applying", string(text))
}
