package hcl_adapter

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// newEvalContext exposes process environment variables as `env.NAME`, so a
// secret such as an API key never has to be written into the file.
func newEvalContext(environ func() []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	if environ != nil {
		for _, kv := range environ() {
			name, value, ok := strings.Cut(kv, "=")
			if !ok || name == "" || !validIdent(name) {
				continue
			}
			vars[name] = cty.StringVal(value)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

// validIdent reports whether name can be used after `env.`.
func validIdent(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
