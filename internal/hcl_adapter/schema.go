// This file contains the HCL-specific Go structs that mirror the configuration
// file syntax. They are only used for decoding and are translated into the
// format-agnostic config.Model right after.

package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Window     *WindowBlock     `hcl:"window,block"`
	Storage    *StorageBlock    `hcl:"storage,block"`
	Suggest    *SuggestBlock    `hcl:"suggest,block"`
	Server     *ServerBlock     `hcl:"server,block"`
	ChangeFeed *ChangeFeedBlock `hcl:"changefeed,block"`
	Log        *LogBlock        `hcl:"log,block"`
	Remain     hcl.Body         `hcl:",remain"`
}

// WindowBlock maps to a `window` block.
type WindowBlock struct {
	StartHour *int `hcl:"start_hour,optional"`
	EndHour   *int `hcl:"end_hour,optional"`
}

// StorageBlock maps to a `storage` block.
type StorageBlock struct {
	Driver *string `hcl:"driver,optional"`
	Path   *string `hcl:"path,optional"`
}

// SuggestBlock maps to a `suggest` block.
type SuggestBlock struct {
	Provider  *string `hcl:"provider,optional"`
	Model     *string `hcl:"model,optional"`
	APIKey    *string `hcl:"api_key,optional"`
	MaxTokens *int64  `hcl:"max_tokens,optional"`
	Timeout   *string `hcl:"timeout,optional"`
	File      *string `hcl:"file,optional"`
}

// ServerBlock maps to a `server` block.
type ServerBlock struct {
	Addr            *string `hcl:"addr,optional"`
	ShutdownTimeout *string `hcl:"shutdown_timeout,optional"`
}

// ChangeFeedBlock maps to a `changefeed` block.
type ChangeFeedBlock struct {
	URL                *string `hcl:"url,optional"`
	Namespace          *string `hcl:"namespace,optional"`
	InsecureSkipVerify *bool   `hcl:"insecure_skip_verify,optional"`
	ConnectTimeout     *string `hcl:"connect_timeout,optional"`
}

// LogBlock maps to a `log` block.
type LogBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}
