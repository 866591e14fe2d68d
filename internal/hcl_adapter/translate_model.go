// This file contains the logic for translating the decoded HCL blocks into
// the format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/taskgrid/internal/config"
	"github.com/specialistvlad/taskgrid/internal/ctxlog"
)

// translate merges every block present in root into m.
func (l *Loader) translate(ctx context.Context, root *fileRoot, m *config.Model) error {
	logger := ctxlog.FromContext(ctx)

	if b := root.Window; b != nil {
		logger.Debug("Translating window block.")
		setIf(&m.Window.StartHour, b.StartHour)
		setIf(&m.Window.EndHour, b.EndHour)
	}
	if b := root.Storage; b != nil {
		logger.Debug("Translating storage block.")
		setIf(&m.Storage.Driver, b.Driver)
		setIf(&m.Storage.Path, b.Path)
	}
	if b := root.Suggest; b != nil {
		logger.Debug("Translating suggest block.")
		setIf(&m.Suggest.Provider, b.Provider)
		setIf(&m.Suggest.Model, b.Model)
		setIf(&m.Suggest.APIKey, b.APIKey)
		setIf(&m.Suggest.MaxTokens, b.MaxTokens)
		setIf(&m.Suggest.File, b.File)
		if err := setDuration(&m.Suggest.Timeout, b.Timeout, "suggest.timeout"); err != nil {
			return err
		}
	}
	if b := root.Server; b != nil {
		logger.Debug("Translating server block.")
		setIf(&m.Server.Addr, b.Addr)
		if err := setDuration(&m.Server.ShutdownTimeout, b.ShutdownTimeout, "server.shutdown_timeout"); err != nil {
			return err
		}
	}
	if b := root.ChangeFeed; b != nil {
		logger.Debug("Translating changefeed block.")
		setIf(&m.ChangeFeed.URL, b.URL)
		setIf(&m.ChangeFeed.Namespace, b.Namespace)
		setIf(&m.ChangeFeed.InsecureSkipVerify, b.InsecureSkipVerify)
		if err := setDuration(&m.ChangeFeed.ConnectTimeout, b.ConnectTimeout, "changefeed.connect_timeout"); err != nil {
			return err
		}
	}
	if b := root.Log; b != nil {
		logger.Debug("Translating log block.")
		setIf(&m.Log.Level, b.Level)
		setIf(&m.Log.Format, b.Format)
	}
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string, attr string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("invalid duration for %s: %w", attr, err)
	}
	*dst = d
	return nil
}
