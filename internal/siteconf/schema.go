package siteconf

import (
	"regexp"
	"slices"
	"strconv"

	"github.com/gobwas/glob"
)

var methodPath = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

// checker walks option mappings and applies the unknown-key policy.
type checker struct {
	strict  bool
	ignored []string
}

func (c *checker) unknown(path string) error {
	if c.strict {
		return &ValidationError{Field: path, Err: ErrUnknownOption}
	}
	c.ignored = append(c.ignored, path)
	return nil
}

type validator func(c *checker, field string, v any) error

type schema struct {
	fields   map[string]validator
	required []string
}

// check validates opts in place, dropping ignored keys.
func (s schema) check(c *checker, field string, opts map[string]any) error {
	for _, key := range s.required {
		if _, ok := opts[key]; !ok {
			return invalid(field+"."+key, ErrInvalidValue, "required")
		}
	}
	for _, key := range sortedKeys(opts) {
		path := field + "." + key
		validate, ok := s.fields[key]
		if !ok {
			if err := c.unknown(path); err != nil {
				return err
			}
			delete(opts, key)
			continue
		}
		if err := validate(c, path, opts[key]); err != nil {
			return err
		}
	}
	return nil
}

var integrationSchemas = map[string]schema{
	IntegrationMDX: {},
	IntegrationSitemap: {fields: map[string]validator{
		"exclude":    listOf(isGlob),
		"changefreq": oneOf("always", "hourly", "daily", "weekly", "monthly", "yearly", "never"),
		"priority":   unitInterval,
	}},
	IntegrationPartytown: {fields: map[string]validator{
		"config": nested(schema{fields: map[string]validator{
			"forward": listOf(isMethodPath),
			"debug":   isBool,
		}}),
	}},
}

var adapterSchemas = map[string]schema{
	AdapterVercel: {fields: map[string]validator{
		"webAnalytics": nested(schema{fields: map[string]validator{
			"enabled": isBool,
		}}),
		"imageService":   isBool,
		"maxDuration":    positiveInt,
		"isr":            isBool,
		"edgeMiddleware": isBool,
	}},
	AdapterNode: {
		fields:   map[string]validator{"mode": oneOf("standalone", "middleware")},
		required: []string{"mode"},
	},
	AdapterNetlify: {fields: map[string]validator{
		"edgeMiddleware": isBool,
		"imageCDN":       isBool,
	}},
}

func nested(s schema) validator {
	return func(c *checker, field string, v any) error {
		m, ok := v.(map[string]any)
		if !ok {
			return invalid(field, ErrInvalidValue, "expected mapping, got %T", v)
		}
		return s.check(c, field, m)
	}
}

func listOf(item func(field string, v any) error) validator {
	return func(_ *checker, field string, v any) error {
		items, ok := v.([]any)
		if !ok {
			return invalid(field, ErrInvalidValue, "expected list, got %T", v)
		}
		for i, it := range items {
			if err := item(field+"["+strconv.Itoa(i)+"]", it); err != nil {
				return err
			}
		}
		return nil
	}
}

func oneOf(values ...string) validator {
	return func(_ *checker, field string, v any) error {
		s, ok := v.(string)
		if !ok || !slices.Contains(values, s) {
			return invalid(field, ErrInvalidValue, "expected one of %v, got %v", values, v)
		}
		return nil
	}
}

func isBool(_ *checker, field string, v any) error {
	if _, ok := v.(bool); !ok {
		return invalid(field, ErrInvalidValue, "expected boolean, got %T", v)
	}
	return nil
}

func positiveInt(_ *checker, field string, v any) error {
	n, ok := v.(int64)
	if !ok || n <= 0 {
		return invalid(field, ErrInvalidValue, "expected positive integer, got %v", v)
	}
	return nil
}

func unitInterval(_ *checker, field string, v any) error {
	var f float64
	switch n := v.(type) {
	case int64:
		f = float64(n)
	case float64:
		f = n
	default:
		return invalid(field, ErrInvalidValue, "expected number, got %T", v)
	}
	if f < 0 || f > 1 {
		return invalid(field, ErrInvalidValue, "expected value between 0 and 1, got %v", v)
	}
	return nil
}

func isGlob(field string, v any) error {
	s, ok := v.(string)
	if !ok {
		return invalid(field, ErrInvalidValue, "expected string, got %T", v)
	}
	if _, err := glob.Compile(s, '/'); err != nil {
		return invalid(field, ErrInvalidValue, "invalid glob pattern %q: %v", s, err)
	}
	return nil
}

func isMethodPath(field string, v any) error {
	s, ok := v.(string)
	if !ok || !methodPath.MatchString(s) {
		return invalid(field, ErrInvalidValue, "expected dotted global path such as dataLayer.push, got %v", v)
	}
	return nil
}
