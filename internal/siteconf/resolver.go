package siteconf

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithIgnoreUnknown drops unrecognised keys instead of failing. Dropped keys
// are reported by Resolved.Ignored.
func WithIgnoreUnknown() Option {
	return func(r *Resolver) {
		r.ignoreUnknown = true
	}
}

// Resolver validates layered documents. It holds no state between calls.
type Resolver struct {
	ignoreUnknown bool
}

// New creates a Resolver. The default policy rejects unknown keys.
func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefineConfig resolves a single document with the strict policy.
func DefineConfig(doc Document) (*Resolved, error) {
	return New().Resolve(doc)
}

// Resolve merges docs left to right and validates the result.
func (r *Resolver) Resolve(docs ...Document) (*Resolved, error) {
	var merged Document
	for _, doc := range docs {
		merged = Merge(merged, doc)
	}

	c := &checker{strict: !r.ignoreUnknown}
	out := &Resolved{
		base:          defaultBase,
		trailingSlash: defaultTrailingSlash,
		output:        defaultOutput,
	}

	for _, key := range sortedKeys(merged.Extra) {
		if err := c.unknown(key); err != nil {
			return nil, err
		}
	}

	if merged.Site != nil && *merged.Site != "" {
		if err := validateSite(*merged.Site); err != nil {
			return nil, err
		}
		out.site = *merged.Site
	}

	if merged.Base != nil {
		if !strings.HasPrefix(*merged.Base, "/") {
			return nil, invalid("base", ErrInvalidValue, "must start with /, got %q", *merged.Base)
		}
		out.base = *merged.Base
	}

	if merged.TrailingSlash != nil {
		switch ts := *merged.TrailingSlash; ts {
		case TrailingSlashAlways, TrailingSlashNever, TrailingSlashIgnore:
			out.trailingSlash = ts
		default:
			return nil, invalid("trailingSlash", ErrInvalidValue, "expected always, never or ignore, got %q", ts)
		}
	}

	if merged.Output != nil {
		switch o := *merged.Output; o {
		case OutputStatic, OutputServer:
			out.output = o
		default:
			return nil, invalid("output", ErrInvalidValue, "expected static or server, got %q", o)
		}
	}

	if merged.Prefetch != nil && merged.Prefetch.Enabled {
		p := *merged.Prefetch
		switch p.DefaultStrategy {
		case "":
			p.DefaultStrategy = defaultStrategy
		case StrategyLoad, StrategyHover, StrategyTap, StrategyViewport:
		default:
			return nil, invalid("prefetch.defaultStrategy", ErrInvalidValue,
				"expected load, hover, tap or viewport, got %q", p.DefaultStrategy)
		}
		out.prefetch = &p
	}

	if merged.Adapter != nil {
		a, err := resolveAdapter(c, *merged.Adapter)
		if err != nil {
			return nil, err
		}
		out.adapter = &a
	}

	integrations, err := resolveIntegrations(c, merged.Integrations)
	if err != nil {
		return nil, err
	}
	out.integrations = integrations

	if out.output == OutputServer && out.adapter == nil {
		return nil, &ValidationError{Field: "adapter", Err: ErrMissingAdapter}
	}
	if out.site == "" && slices.ContainsFunc(out.integrations, func(i Integration) bool {
		return i.name == IntegrationSitemap
	}) {
		return nil, &ValidationError{Field: "site", Err: ErrMissingSite}
	}

	out.ignored = c.ignored
	return out, nil
}

func validateSite(site string) error {
	u, err := url.Parse(site)
	if err != nil {
		return invalid("site", ErrInvalidURL, "%q: %v", site, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return invalid("site", ErrInvalidURL, "%q is not an absolute URL", site)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("site", ErrInvalidURL, "%q must use http or https", site)
	}
	return nil
}

func resolveAdapter(c *checker, a Adapter) (Adapter, error) {
	if a.name == "" {
		return Adapter{}, invalid("adapter.name", ErrInvalidValue, "must not be empty")
	}
	options := cloneOptions(a.options)
	if s, ok := adapterSchemas[a.name]; ok {
		if err := s.check(c, "adapter.options", options); err != nil {
			return Adapter{}, err
		}
	}
	return Adapter{name: a.name, options: normalizeOptions(options)}, nil
}

func resolveIntegrations(c *checker, list []Integration) ([]Integration, error) {
	out := make([]Integration, 0, len(list))
	seen := make(map[string]int, len(list))
	for i, integration := range list {
		field := fmt.Sprintf("integrations[%d]", i)
		if integration.name == "" {
			return nil, invalid(field+".name", ErrInvalidValue, "must not be empty")
		}
		if first, ok := seen[integration.name]; ok {
			return nil, invalid(field, ErrDuplicateIntegration, "%q already listed at integrations[%d]", integration.name, first)
		}
		seen[integration.name] = i

		options := cloneOptions(integration.options)
		if s, ok := integrationSchemas[integration.name]; ok {
			if err := s.check(c, field+".options", options); err != nil {
				return nil, err
			}
		}
		out = append(out, Integration{name: integration.name, options: normalizeOptions(options)})
	}
	return out, nil
}
