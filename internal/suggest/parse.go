package suggest

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseResponse interprets raw suggester output. Markdown fences are
// stripped. The text must be valid JSON with a top-level "schedule" array;
// anything less is ErrMalformed. Individual entries are decoded leniently so
// a bad entry is rejected on its own later instead of sinking the response.
func ParseResponse(text string) (*Response, error) {
	text = StripJSONFences(text)
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformed)
	}

	root := gjson.Parse(text)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}
	schedule := root.Get("schedule")
	if !schedule.Exists() || !schedule.IsArray() {
		return nil, fmt.Errorf("%w: missing schedule array", ErrMalformed)
	}

	resp := &Response{
		Schedule:  []Entry{},
		Reasoning: root.Get("reasoning").String(),
	}
	schedule.ForEach(func(_, e gjson.Result) bool {
		entry := Entry{
			ItemID:         e.Get("item_id").String(),
			ScheduledStart: e.Get("scheduled_start").String(),
		}
		if d := e.Get("duration_minutes"); d.Type == gjson.Number {
			minutes := int(d.Int())
			entry.DurationMinutes = &minutes
		}
		resp.Schedule = append(resp.Schedule, entry)
		return true
	})
	return resp, nil
}

// StripJSONFences removes the markdown code fences models sometimes add.
func StripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
