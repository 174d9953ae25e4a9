package siteconf

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// Resolved is the validated configuration handed to the build framework.
// It is never modified after Resolve returns.
type Resolved struct {
	site          string
	base          string
	trailingSlash TrailingSlash
	output        Output
	prefetch      *Prefetch
	integrations  []Integration
	adapter       *Adapter
	ignored       []string
}

// Site returns the canonical origin exactly as written, if any.
func (r *Resolved) Site() (string, bool) {
	return r.site, r.site != ""
}

func (r *Resolved) Base() string {
	return r.base
}

func (r *Resolved) TrailingSlash() TrailingSlash {
	return r.trailingSlash
}

func (r *Resolved) Output() Output {
	return r.output
}

// Prefetch returns the prefetch policy. ok is false when prefetching is disabled.
func (r *Resolved) Prefetch() (p Prefetch, ok bool) {
	if r.prefetch == nil {
		return Prefetch{}, false
	}
	return *r.prefetch, true
}

// Integrations returns the integrations in the order the framework applies them.
func (r *Resolved) Integrations() []Integration {
	return slices.Clone(r.integrations)
}

// Integration looks up an integration by name.
func (r *Resolved) Integration(name string) (Integration, bool) {
	for _, i := range r.integrations {
		if i.name == name {
			return i, true
		}
	}
	return Integration{}, false
}

func (r *Resolved) Adapter() (Adapter, bool) {
	if r.adapter == nil {
		return Adapter{}, false
	}
	return *r.adapter, true
}

// Ignored lists the dotted paths dropped under the lenient unknown-key policy.
func (r *Resolved) Ignored() []string {
	return slices.Clone(r.ignored)
}

// WebAnalyticsEnabled reports whether the adapter turns on platform analytics.
func (r *Resolved) WebAnalyticsEnabled() bool {
	if r.adapter == nil {
		return false
	}
	wa, ok := r.adapter.options["webAnalytics"].(map[string]any)
	if !ok {
		return false
	}
	enabled, _ := wa["enabled"].(bool)
	return enabled
}

// Forwarded returns the global method paths forwarded into the offloaded
// script worker.
func (r *Resolved) Forwarded() []string {
	i, ok := r.Integration(IntegrationPartytown)
	if !ok {
		return nil
	}
	cfg, _ := i.options["config"].(map[string]any)
	items, _ := cfg["forward"].([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// CanonicalURL resolves a route path against site and base, applying the
// trailing slash policy.
func (r *Resolved) CanonicalURL(route string) (string, error) {
	if r.site == "" {
		return "", &ValidationError{Field: "site", Err: ErrMissingSite, Detail: "canonical URLs need a site"}
	}
	u, err := url.Parse(r.site)
	if err != nil {
		return "", fmt.Errorf("parse site: %w", err)
	}

	p := strings.TrimSuffix(u.Path, "/") + strings.TrimSuffix(r.base, "/") + "/" + strings.TrimPrefix(route, "/")
	switch r.trailingSlash {
	case TrailingSlashAlways:
		if !strings.HasSuffix(p, "/") && path.Ext(p) == "" {
			p += "/"
		}
	case TrailingSlashNever:
		if p != "/" {
			p = strings.TrimSuffix(p, "/")
		}
	}

	out := url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host, Path: p}
	return out.String(), nil
}

// InSitemap reports whether a route path belongs in the generated sitemap.
func (r *Resolved) InSitemap(route string) bool {
	i, ok := r.Integration(IntegrationSitemap)
	if !ok {
		return false
	}
	patterns, _ := i.options["exclude"].([]any)
	for _, pattern := range patterns {
		s, _ := pattern.(string)
		g, err := glob.Compile(s, '/')
		if err != nil {
			continue
		}
		if g.Match(route) {
			return false
		}
	}
	return true
}

// Raw renders the resolved configuration as a document mapping. Parsing the
// result and resolving it again yields an equal Resolved.
func (r *Resolved) Raw() map[string]any {
	raw := map[string]any{
		"base":          r.base,
		"trailingSlash": string(r.trailingSlash),
		"output":        string(r.output),
	}
	if r.site != "" {
		raw["site"] = r.site
	}
	if r.prefetch != nil {
		raw["prefetch"] = map[string]any{
			"defaultStrategy": string(r.prefetch.DefaultStrategy),
			"prefetchAll":     r.prefetch.PrefetchAll,
		}
	}
	integrations := make([]any, 0, len(r.integrations))
	for _, i := range r.integrations {
		integrations = append(integrations, descriptorRaw(i.name, i.options))
	}
	raw["integrations"] = integrations
	if r.adapter != nil {
		raw["adapter"] = descriptorRaw(r.adapter.name, r.adapter.options)
	}
	return raw
}

func descriptorRaw(name string, options map[string]any) map[string]any {
	out := map[string]any{"name": name}
	if len(options) > 0 {
		out["options"] = cloneOptions(options)
	}
	return out
}

func (r *Resolved) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Raw())
}

func (r *Resolved) MarshalYAML() (any, error) {
	return r.Raw(), nil
}
