package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/taskgrid/internal/timegrid"
)

const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"

	SuggestNone   = "none"
	SuggestClaude = "claude"
	SuggestFile   = "file"
)

// Model is the unified, format-agnostic representation of the application
// configuration.
type Model struct {
	Window     timegrid.Window
	Storage    Storage
	Suggest    Suggest
	Server     Server
	ChangeFeed ChangeFeed
	Log        Log
}

// Storage selects the persistence collaborator.
type Storage struct {
	Driver string
	// Path is the SQLite database file. "~" is expanded.
	Path string
}

// Suggest selects the schedule suggester.
type Suggest struct {
	Provider  string
	Model     string
	APIKey    string
	MaxTokens int64
	Timeout   time.Duration
	// File is the canned response used by the "file" provider.
	File string
}

// Server configures the HTTP API.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// ChangeFeed configures the realtime hub publisher. An empty URL disables it.
type ChangeFeed struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// Log configures the application logger.
type Log struct {
	Level  string
	Format string
}

// Default returns the configuration used when no file sets a value.
func Default() *Model {
	return &Model{
		Window: timegrid.DefaultWindow,
		Storage: Storage{
			Driver: StorageSQLite,
			Path:   "~/.taskgrid/taskgrid.db",
		},
		Suggest: Suggest{
			Provider: SuggestNone,
			Timeout:  60 * time.Second,
		},
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		ChangeFeed: ChangeFeed{
			Namespace:      "/",
			ConnectTimeout: 15 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the values a loader cannot check on its own.
func (m *Model) Validate() error {
	var errs []error
	if err := m.Window.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch m.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if m.Storage.Path == "" {
			errs = append(errs, errors.New("storage: sqlite driver needs a path"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: unknown driver %q", m.Storage.Driver))
	}
	switch m.Suggest.Provider {
	case SuggestNone, SuggestClaude:
	case SuggestFile:
		if m.Suggest.File == "" {
			errs = append(errs, errors.New("suggest: file provider needs a file"))
		}
	default:
		errs = append(errs, fmt.Errorf("suggest: unknown provider %q", m.Suggest.Provider))
	}
	if m.Suggest.Timeout < 0 {
		errs = append(errs, errors.New("suggest: timeout must not be negative"))
	}
	switch m.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q", m.Log.Format))
	}
	return errors.Join(errs...)
}
