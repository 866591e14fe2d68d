package hcl_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/taskgrid/internal/config"
	"github.com/specialistvlad/taskgrid/internal/ctxlog"
	"github.com/specialistvlad/taskgrid/internal/timegrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func testLoader(env ...string) *Loader {
	return &Loader{environ: func() []string { return env }}
}

func TestLoad_Defaults(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	t.Run("missing path", func(t *testing.T) {
		m, err := testLoader().Load(ctx, filepath.Join(t.TempDir(), "nope.hcl"))
		require.NoError(t, err)
		assert.Equal(t, config.Default(), m)
	})

	t.Run("empty file", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{"taskgrid.hcl": ""})
		m, err := testLoader().Load(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, config.Default(), m)
	})
}

func TestLoad_AllBlocks(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	dir := writeFiles(t, map[string]string{"taskgrid.hcl": `
window {
  start_hour = 8
  end_hour   = 18
}

storage {
  driver = "memory"
}

suggest {
  provider   = "claude"
  model      = "claude-haiku-4-5"
  api_key    = env.TASKGRID_TEST_KEY
  max_tokens = 1024
  timeout    = "20s"
}

server {
  addr             = "127.0.0.1:9090"
  shutdown_timeout = "3s"
}

changefeed {
  url                  = "http://localhost:3000/socket.io/"
  namespace            = "/tasks"
  insecure_skip_verify = true
  connect_timeout      = "2s"
}

log {
  level  = "debug"
  format = "json"
}
`})

	m, err := testLoader("TASKGRID_TEST_KEY=sk-test", "=weird", "1BAD=x").Load(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, timegrid.Window{StartHour: 8, EndHour: 18}, m.Window)
	assert.Equal(t, config.StorageMemory, m.Storage.Driver)
	assert.Equal(t, config.Suggest{
		Provider:  config.SuggestClaude,
		Model:     "claude-haiku-4-5",
		APIKey:    "sk-test",
		MaxTokens: 1024,
		Timeout:   20 * time.Second,
	}, m.Suggest)
	assert.Equal(t, config.Server{Addr: "127.0.0.1:9090", ShutdownTimeout: 3 * time.Second}, m.Server)
	assert.Equal(t, config.ChangeFeed{
		URL:                "http://localhost:3000/socket.io/",
		Namespace:          "/tasks",
		InsecureSkipVerify: true,
		ConnectTimeout:     2 * time.Second,
	}, m.ChangeFeed)
	assert.Equal(t, config.Log{Level: "debug", Format: "json"}, m.Log)
}

func TestLoad_LaterFilesOverride(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	dir := writeFiles(t, map[string]string{
		"a.hcl": "window {\n  start_hour = 7\n  end_hour = 20\n}\n",
		"b.hcl": "window {\n  end_hour = 21\n}\n",
	})

	m, err := testLoader().Load(ctx, filepath.Join(dir, "a.hcl"), filepath.Join(dir, "b.hcl"))
	require.NoError(t, err)
	assert.Equal(t, timegrid.Window{StartHour: 7, EndHour: 21}, m.Window)
}

func TestLoad_Errors(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	testCases := map[string]struct {
		content string
		errMsg  string
	}{
		"syntax":          {"window {", "failed to parse HCL file"},
		"wrong type":      {"window {\n  start_hour = \"early\"\n}\n", "failed to decode HCL file"},
		"unknown attr":    {"storage {\n  engine = \"x\"\n}\n", "failed to decode HCL file"},
		"missing env var": {"suggest {\n  api_key = env.NOT_SET_ANYWHERE\n}\n", "failed to decode HCL file"},
		"bad duration":    {"suggest {\n  timeout = \"soon\"\n}\n", "invalid duration for suggest.timeout"},
		"invalid window":  {"window {\n  start_hour = 22\n  end_hour = 6\n}\n", "invalid configuration"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			dir := writeFiles(t, map[string]string{"taskgrid.hcl": tc.content})
			_, err := testLoader().Load(ctx, dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestFindAllHCLFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.hcl":        "",
		"nested/b.hcl": "",
		"notes.txt":    "",
	})
	files, err := NewLoader().findAllHCLFiles([]string{dir, filepath.Join(dir, "a.hcl")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.hcl"), filepath.Join(dir, "nested", "b.hcl")}, files)
}
