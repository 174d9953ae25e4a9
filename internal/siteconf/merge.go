package siteconf

import (
	"maps"
	"strings"
)

// Merge layers override on top of base. Scalars and the prefetch block are
// replaced when present in override, the integration list is replaced
// wholesale, and adapter options are merged key by key when both layers name
// the same adapter. Fields absent from override keep the base value.
func Merge(base, override Document) Document {
	out := base.clone()

	if override.Site != nil {
		out.Site = clonePtr(override.Site)
	}
	if override.Base != nil {
		out.Base = clonePtr(override.Base)
	}
	if override.TrailingSlash != nil {
		out.TrailingSlash = clonePtr(override.TrailingSlash)
	}
	if override.Output != nil {
		out.Output = clonePtr(override.Output)
	}
	if override.Prefetch != nil {
		out.Prefetch = clonePtr(override.Prefetch)
		out.dropExtra("prefetch.")
	}
	if override.Integrations != nil {
		out.Integrations = make([]Integration, len(override.Integrations))
		copy(out.Integrations, override.Integrations)
		out.dropExtra("integrations[")
	}
	if override.Adapter != nil {
		if out.Adapter == nil || out.Adapter.Name() != override.Adapter.Name() {
			out.Adapter = clonePtr(override.Adapter)
			out.dropExtra("adapter.")
		} else {
			merged := out.Adapter.merge(*override.Adapter)
			out.Adapter = &merged
		}
	}
	for key, value := range override.Extra {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(override.Extra))
		}
		out.Extra[key] = value
	}

	return out
}

// dropExtra forgets unknown keys recorded under a section that was replaced.
func (d *Document) dropExtra(prefix string) {
	maps.DeleteFunc(d.Extra, func(key string, _ any) bool {
		return strings.HasPrefix(key, prefix)
	})
	if len(d.Extra) == 0 {
		d.Extra = nil
	}
}
