package suggest

import (
	"context"
	"fmt"
	"os"
)

// FileSuggester replays a canned response from disk. It is used offline and
// in tests in place of a live model.
type FileSuggester struct {
	Path string
}

// Suggest reads and parses the file. The request is ignored.
func (f FileSuggester) Suggest(ctx context.Context, _ Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read suggestion file: %w", err)
	}
	return ParseResponse(string(data))
}

// SuggesterFunc adapts a function to the Suggester interface.
type SuggesterFunc func(ctx context.Context, req Request) (*Response, error)

func (f SuggesterFunc) Suggest(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
