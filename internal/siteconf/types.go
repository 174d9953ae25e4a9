package siteconf

import "maps"

// Output selects how pages are produced.
type Output string

const (
	OutputStatic Output = "static"
	OutputServer Output = "server"
)

// Strategy controls when linked pages are prefetched.
type Strategy string

const (
	StrategyLoad     Strategy = "load"
	StrategyHover    Strategy = "hover"
	StrategyTap      Strategy = "tap"
	StrategyViewport Strategy = "viewport"
)

// TrailingSlash decides whether canonical URLs end with a slash.
type TrailingSlash string

const (
	TrailingSlashAlways TrailingSlash = "always"
	TrailingSlashNever  TrailingSlash = "never"
	TrailingSlashIgnore TrailingSlash = "ignore"
)

const (
	defaultOutput        = OutputStatic
	defaultStrategy      = StrategyHover
	defaultBase          = "/"
	defaultTrailingSlash = TrailingSlashIgnore
)

// Prefetch is the prefetch block of a document. Enabled false is an explicit
// opt-out and overrides an enabled base on merge.
type Prefetch struct {
	Enabled         bool
	PrefetchAll     bool
	DefaultStrategy Strategy
}

// Document is one declarative configuration layer. Nil fields were not
// written by the author and leave lower layers untouched on merge.
type Document struct {
	Site          *string
	Base          *string
	TrailingSlash *TrailingSlash
	Output        *Output
	Prefetch      *Prefetch

	// Integrations is nil when the document does not mention integrations.
	// A non-nil empty slice replaces the base list with nothing.
	Integrations []Integration
	Adapter      *Adapter

	// Extra holds unrecognised keys by dotted path.
	Extra map[string]any
}

// Ptr returns a pointer to v, for filling optional Document fields.
func Ptr[T any](v T) *T {
	return &v
}

func (d Document) clone() Document {
	out := Document{
		Site:          clonePtr(d.Site),
		Base:          clonePtr(d.Base),
		TrailingSlash: clonePtr(d.TrailingSlash),
		Output:        clonePtr(d.Output),
		Prefetch:      clonePtr(d.Prefetch),
		Adapter:       clonePtr(d.Adapter),
	}
	if d.Integrations != nil {
		out.Integrations = make([]Integration, len(d.Integrations))
		copy(out.Integrations, d.Integrations)
	}
	if d.Extra != nil {
		out.Extra = maps.Clone(d.Extra)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
