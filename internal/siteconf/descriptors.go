package siteconf

import (
	"fmt"
	"math"
	"sort"
)

const (
	IntegrationMDX       = "mdx"
	IntegrationSitemap   = "sitemap"
	IntegrationPartytown = "partytown"

	AdapterVercel  = "vercel"
	AdapterNode    = "node"
	AdapterNetlify = "netlify"
)

// Integration is an immutable named extension registered with the build framework.
type Integration struct {
	name    string
	options map[string]any
}

// NewIntegration builds a descriptor for any integration. Options are copied.
func NewIntegration(name string, options map[string]any) Integration {
	return Integration{name: name, options: cloneOptions(options)}
}

// MDX enables MDX content authoring.
func MDX() Integration {
	return NewIntegration(IntegrationMDX, nil)
}

// Sitemap enables sitemap generation with default settings.
func Sitemap() Integration {
	return NewIntegration(IntegrationSitemap, nil)
}

// Partytown offloads third-party scripts to a worker and forwards the given
// global method paths (for example "dataLayer.push") into it.
func Partytown(forward ...string) Integration {
	if len(forward) == 0 {
		return NewIntegration(IntegrationPartytown, nil)
	}
	paths := make([]any, len(forward))
	for i, f := range forward {
		paths[i] = f
	}
	return NewIntegration(IntegrationPartytown, map[string]any{
		"config": map[string]any{"forward": paths},
	})
}

func (i Integration) Name() string {
	return i.name
}

// Options returns a copy of the options mapping.
func (i Integration) Options() map[string]any {
	return cloneOptions(i.options)
}

// Adapter is an immutable descriptor selecting the deployment target.
type Adapter struct {
	name    string
	options map[string]any
}

// NewAdapter builds a descriptor for any adapter. Options are copied.
func NewAdapter(name string, options map[string]any) Adapter {
	return Adapter{name: name, options: cloneOptions(options)}
}

// VercelOption sets one option of the vercel adapter.
type VercelOption func(map[string]any)

// WebAnalytics toggles the hosting platform's analytics.
func WebAnalytics(enabled bool) VercelOption {
	return func(opts map[string]any) {
		opts["webAnalytics"] = map[string]any{"enabled": enabled}
	}
}

// ImageService toggles the platform image optimisation service.
func ImageService(enabled bool) VercelOption {
	return func(opts map[string]any) {
		opts["imageService"] = enabled
	}
}

// MaxDuration caps serverless function duration in seconds.
func MaxDuration(seconds int) VercelOption {
	return func(opts map[string]any) {
		opts["maxDuration"] = int64(seconds)
	}
}

// Vercel selects the serverless vercel adapter.
func Vercel(opts ...VercelOption) Adapter {
	options := make(map[string]any, len(opts))
	for _, opt := range opts {
		opt(options)
	}
	return NewAdapter(AdapterVercel, options)
}

// Node selects the node adapter in standalone or middleware mode.
func Node(mode string) Adapter {
	return NewAdapter(AdapterNode, map[string]any{"mode": mode})
}

func (a Adapter) Name() string {
	return a.name
}

// Options returns a copy of the options mapping.
func (a Adapter) Options() map[string]any {
	return cloneOptions(a.options)
}

// merge applies override's options key by key on top of a.
func (a Adapter) merge(override Adapter) Adapter {
	if a.name != override.name {
		return override
	}
	options := cloneOptions(a.options)
	if options == nil {
		options = make(map[string]any, len(override.options))
	}
	for key, value := range override.options {
		options[key] = cloneValue(value)
	}
	return Adapter{name: a.name, options: normalizeOptions(options)}
}

func cloneOptions(options map[string]any) map[string]any {
	if len(options) == 0 {
		return nil
	}
	out := make(map[string]any, len(options))
	for key, value := range options {
		out[key] = cloneValue(value)
	}
	return out
}

func normalizeOptions(options map[string]any) map[string]any {
	if len(options) == 0 {
		return nil
	}
	return options
}

// cloneValue deep-copies decoded values and folds numeric types so documents
// decoded from YAML, TOML and JSON compare equal.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, value := range t {
			out[key] = cloneValue(value)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for key, value := range t {
			out[fmt.Sprint(key)] = cloneValue(value)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, value := range t {
			out[i] = cloneValue(value)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, value := range t {
			out[i] = value
		}
		return out
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return foldUint(uint64(t))
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return foldUint(t)
	case float32:
		return foldFloat(float64(t))
	case float64:
		return foldFloat(t)
	default:
		return v
	}
}

// foldUint keeps values beyond the int64 range unsigned.
func foldUint(u uint64) any {
	if u > math.MaxInt64 {
		return u
	}
	return int64(u)
}

func foldFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
