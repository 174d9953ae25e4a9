package siteconf

import "fmt"

// ParseDocument converts a decoded mapping (from YAML, TOML or JSON) into a
// Document. Only type shapes are checked here; values are validated by the
// Resolver. Unrecognised keys land in Extra.
func ParseDocument(raw map[string]any) (Document, error) {
	var doc Document
	for _, key := range sortedKeys(raw) {
		value := raw[key]
		switch key {
		case "site":
			s, err := optionalString(key, value)
			if err != nil {
				return Document{}, err
			}
			doc.Site = &s
		case "base":
			s, err := optionalString(key, value)
			if err != nil {
				return Document{}, err
			}
			doc.Base = &s
		case "trailingSlash":
			s, err := requiredString(key, value)
			if err != nil {
				return Document{}, err
			}
			doc.TrailingSlash = Ptr(TrailingSlash(s))
		case "output":
			s, err := requiredString(key, value)
			if err != nil {
				return Document{}, err
			}
			doc.Output = Ptr(Output(s))
		case "prefetch":
			p, err := doc.parsePrefetch(value)
			if err != nil {
				return Document{}, err
			}
			doc.Prefetch = &p
		case "integrations":
			list, err := doc.parseIntegrations(value)
			if err != nil {
				return Document{}, err
			}
			doc.Integrations = list
		case "adapter":
			a, err := doc.parseAdapter(value)
			if err != nil {
				return Document{}, err
			}
			doc.Adapter = &a
		default:
			doc.addExtra(key, value)
		}
	}
	return doc, nil
}

func (d *Document) addExtra(path string, value any) {
	if d.Extra == nil {
		d.Extra = make(map[string]any)
	}
	d.Extra[path] = cloneValue(value)
}

func (d *Document) parsePrefetch(value any) (Prefetch, error) {
	switch v := value.(type) {
	case nil:
		return Prefetch{}, nil
	case bool:
		return Prefetch{Enabled: v}, nil
	case map[string]any:
		p := Prefetch{Enabled: true}
		for _, key := range sortedKeys(v) {
			field := "prefetch." + key
			switch key {
			case "defaultStrategy":
				s, err := requiredString(field, v[key])
				if err != nil {
					return Prefetch{}, err
				}
				p.DefaultStrategy = Strategy(s)
			case "prefetchAll":
				b, ok := v[key].(bool)
				if !ok {
					return Prefetch{}, invalid(field, ErrInvalidValue, "expected boolean, got %T", v[key])
				}
				p.PrefetchAll = b
			default:
				d.addExtra(field, v[key])
			}
		}
		return p, nil
	default:
		return Prefetch{}, invalid("prefetch", ErrInvalidValue, "expected boolean or mapping, got %T", value)
	}
}

func (d *Document) parseIntegrations(value any) ([]Integration, error) {
	if value == nil {
		return []Integration{}, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, invalid("integrations", ErrInvalidValue, "expected list, got %T", value)
	}
	list := make([]Integration, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("integrations[%d]", i)
		name, options, err := d.parseDescriptor(field, item)
		if err != nil {
			return nil, err
		}
		list = append(list, NewIntegration(name, options))
	}
	return list, nil
}

func (d *Document) parseAdapter(value any) (Adapter, error) {
	name, options, err := d.parseDescriptor("adapter", value)
	if err != nil {
		return Adapter{}, err
	}
	return NewAdapter(name, options), nil
}

// parseDescriptor accepts either a bare name or a {name, options} mapping.
func (d *Document) parseDescriptor(field string, value any) (string, map[string]any, error) {
	switch v := value.(type) {
	case string:
		return v, nil, nil
	case map[string]any:
		name, err := requiredString(field+".name", v["name"])
		if err != nil {
			return "", nil, err
		}
		var options map[string]any
		if raw, ok := v["options"]; ok && raw != nil {
			normalized, ok := cloneValue(raw).(map[string]any)
			if !ok {
				return "", nil, invalid(field+".options", ErrInvalidValue, "expected mapping, got %T", raw)
			}
			options = normalized
		}
		for _, key := range sortedKeys(v) {
			if key != "name" && key != "options" {
				d.addExtra(field+"."+key, v[key])
			}
		}
		return name, options, nil
	default:
		return "", nil, invalid(field, ErrInvalidValue, "expected name or mapping, got %T", value)
	}
}

func optionalString(field string, value any) (string, error) {
	if value == nil {
		return "", nil
	}
	return requiredString(field, value)
}

func requiredString(field string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", invalid(field, ErrInvalidValue, "expected string, got %T", value)
	}
	return s, nil
}
