// Package suggest defines the boundary to an external schedule suggester.
//
// Everything coming back across the boundary is untrusted: responses are
// structurally checked here and every entry is re-validated by the placer
// before it can be previewed or applied.
package suggest
