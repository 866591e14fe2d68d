package taskgraph

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/specialistvlad/taskgrid/internal/changefeed"
	"github.com/specialistvlad/taskgrid/internal/ctxlog"
	"github.com/specialistvlad/taskgrid/internal/dag"
	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/placer"
	"github.com/specialistvlad/taskgrid/internal/store"
	"github.com/specialistvlad/taskgrid/internal/timegrid"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSpec marks a graph spec that fails structural checks.
var ErrInvalidSpec = errors.New("invalid graph spec")

// TaskSpec declares a new task under a temporary reference.
type TaskSpec struct {
	Ref             string `yaml:"ref" json:"ref"`
	Title           string `yaml:"title" json:"title"`
	Description     string `yaml:"description,omitempty" json:"description,omitempty"`
	Kind            string `yaml:"kind,omitempty" json:"kind,omitempty"`
	Day             string `yaml:"day,omitempty" json:"day,omitempty"`
	Start           string `yaml:"start,omitempty" json:"start,omitempty"`
	DurationMinutes *int   `yaml:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`
	DueUrgency      string `yaml:"due_urgency,omitempty" json:"due_urgency,omitempty"`
}

// DependencySpec links two tasks. Each side is either a temporary reference
// from the same spec or the ID of an existing task.
type DependencySpec struct {
	Predecessor string `yaml:"predecessor" json:"predecessor"`
	Successor   string `yaml:"successor" json:"successor"`
}

// GraphSpec is a batch of tasks and dependencies created together.
type GraphSpec struct {
	Tasks        []TaskSpec       `yaml:"tasks" json:"tasks"`
	Dependencies []DependencySpec `yaml:"dependencies" json:"dependencies"`
}

// ImportResult reports what a batch created.
type ImportResult struct {
	// IDs maps each temporary reference to its permanent ID.
	IDs   map[string]string `json:"ids"`
	Items []model.Item      `json:"items"`
	Edges []model.Edge      `json:"edges"`
}

// DecodeGraphSpec reads a YAML document, or JSON since it is a YAML subset.
// Unknown fields are rejected.
func DecodeGraphSpec(r io.Reader) (GraphSpec, error) {
	var spec GraphSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return GraphSpec{}, fmt.Errorf("%w: empty document", ErrInvalidSpec)
		}
		return GraphSpec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return spec, nil
}

// ImportGraph creates every task and dependency in spec, or nothing. The
// proposed edges are validated together against the current graph before
// the batch is written.
func (s *Service) ImportGraph(ctx context.Context, spec GraphSpec) (ImportResult, error) {
	logger := ctxlog.FromContext(ctx).With("component", "taskgraph")

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := store.Load(ctx, s.store)
	if err != nil {
		return ImportResult{}, fmt.Errorf("load snapshot: %w", err)
	}

	res := ImportResult{IDs: make(map[string]string, len(spec.Tasks))}
	for i, ts := range spec.Tasks {
		item, err := s.buildItem(ts)
		if err != nil {
			return ImportResult{}, fmt.Errorf("%w: task %d: %v", ErrInvalidSpec, i, err)
		}
		if _, dup := res.IDs[ts.Ref]; dup {
			return ImportResult{}, fmt.Errorf("%w: task %d: duplicate ref %q", ErrInvalidSpec, i, ts.Ref)
		}
		res.IDs[ts.Ref] = item.ID
		res.Items = append(res.Items, item)
	}

	resolve := func(ref string) string {
		if id, ok := res.IDs[ref]; ok {
			return id
		}
		return ref
	}
	for _, ds := range spec.Dependencies {
		res.Edges = append(res.Edges, model.Edge{Predecessor: resolve(ds.Predecessor), Successor: resolve(ds.Successor)})
	}

	if err := s.placeScheduled(snap.Items, res.Items); err != nil {
		logger.Warn("Graph import refused.", "error", err)
		return ImportResult{}, err
	}

	ids := snap.IDs()
	for _, it := range res.Items {
		ids = append(ids, it.ID)
	}
	if err := dag.ValidateBatch(ids, snap.Edges, res.Edges); err != nil {
		logger.Warn("Graph import refused.", "error", err)
		return ImportResult{}, err
	}

	if err := s.store.ApplyBatch(ctx, res.Items, res.Edges); err != nil {
		return ImportResult{}, fmt.Errorf("apply batch: %w", err)
	}

	created := make([]string, 0, len(res.Items))
	for _, it := range res.Items {
		created = append(created, it.ID)
	}
	logger.Info("Graph imported.", "tasks", len(res.Items), "dependencies", len(res.Edges))
	s.feed.Publish(ctx, changefeed.Event{Type: changefeed.ItemsImported, ItemIDs: created, At: s.now().UTC()})
	return res, nil
}

func (s *Service) buildItem(ts TaskSpec) (model.Item, error) {
	if ts.Ref == "" {
		return model.Item{}, fmt.Errorf("ref is required")
	}
	if ts.Title == "" {
		return model.Item{}, fmt.Errorf("title is required for %q", ts.Ref)
	}
	kind, err := model.ParseItemKind(ts.Kind)
	if err != nil {
		return model.Item{}, err
	}
	if ts.Day != "" {
		if _, err := timegrid.ParseDay(ts.Day); err != nil {
			return model.Item{}, err
		}
	}
	if ts.Start != "" {
		if _, err := timegrid.ParseClock(ts.Start); err != nil {
			return model.Item{}, err
		}
	}
	if kind == model.KindFixed && (ts.Day == "" || ts.Start == "") {
		return model.Item{}, fmt.Errorf("fixed task %q needs day and start", ts.Ref)
	}
	if (ts.Day == "") != (ts.Start == "") {
		return model.Item{}, fmt.Errorf("task %q needs both day and start, or neither", ts.Ref)
	}
	return model.Item{
		ID:              s.newID(),
		Title:           ts.Title,
		Description:     ts.Description,
		Kind:            kind,
		Day:             ts.Day,
		Start:           ts.Start,
		DurationMinutes: ts.DurationMinutes,
		DueUrgency:      ts.DueUrgency,
	}, nil
}

func newUUID() string {
	return uuid.NewString()
}

// placeScheduled runs every new flexible item that arrives with a day and
// start through a Placer for that day, in batch order, so an import can never
// persist an overlap. Accepted items are rewritten in place with the
// normalized start and resolved duration.
func (s *Service) placeScheduled(existing []model.Item, batch []model.Item) error {
	byDay := make(map[string][]int)
	var days []string
	for i, it := range batch {
		if it.IsFixed() || it.Start == "" {
			continue
		}
		if _, ok := byDay[it.Day]; !ok {
			days = append(days, it.Day)
		}
		byDay[it.Day] = append(byDay[it.Day], i)
	}

	for _, day := range days {
		snapshot := make([]model.Item, 0, len(existing)+len(batch))
		snapshot = append(snapshot, existing...)
		for _, it := range batch {
			if !it.IsFixed() && it.Day == day {
				it.Day, it.Start = "", ""
			}
			snapshot = append(snapshot, it)
		}

		pl := placer.New(day, snapshot, s.window)
		for _, i := range byDay[day] {
			it := batch[i]
			placement, err := pl.PlaceAt(it.ID, it.Start, nil)
			if err != nil {
				return fmt.Errorf("task %q on %s: %w", it.Title, day, err)
			}
			batch[i] = it.Apply(placement.Patch())
		}
	}
	return nil
}
