package document

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/eugenenazirov/siteconf/internal/siteconf"
)

func TestLoadFormatsAgree(t *testing.T) {
	t.Parallel()

	loader := NewLoader(0)
	want, err := loader.Load(filepath.Join("testdata", "site.yaml"))
	if err != nil {
		t.Fatalf("load YAML: %v", err)
	}

	for _, name := range []string{"site.toml", "site.json"} {
		got, err := loader.Load(filepath.Join("testdata", name))
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s decoded differently\n got: %+v\nwant: %+v", name, got, want)
		}
	}

	resolved, err := siteconf.DefineConfig(want)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Output() != siteconf.OutputServer || !resolved.WebAnalyticsEnabled() {
		t.Fatalf("unexpected resolved configuration: %+v", resolved)
	}
}

func TestLoadAllAppliesOverlaysInOrder(t *testing.T) {
	t.Parallel()

	loader := NewLoader(0)
	docs, err := loader.LoadAll(filepath.Join("testdata", "site.yaml"), filepath.Join("testdata", "prefetch.yaml"))
	if err != nil {
		t.Fatalf("LoadAll returned error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	resolved, err := siteconf.New().Resolve(docs...)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Output() != siteconf.OutputServer {
		t.Fatalf("expected output from base document, got %s", resolved.Output())
	}
	if p, ok := resolved.Prefetch(); !ok || p.DefaultStrategy != siteconf.StrategyLoad {
		t.Fatalf("expected prefetch from overlay, got %+v", p)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := NewLoader(0).Load(filepath.Join("testdata", "site.ini"))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader(0).Load(filepath.Join("testdata", "missing.yaml"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected not exist error, got %v", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		_, err := NewLoader(16).Load(filepath.Join("testdata", "site.yaml"))
		if !errors.Is(err, ErrDocumentTooLarge) {
			t.Fatalf("expected ErrDocumentTooLarge, got %v", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.yaml")
		if err := os.WriteFile(path, []byte("site: [unterminated"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := NewLoader(0).Load(path); err == nil {
			t.Fatalf("expected parse error")
		}
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := NewLoader(0).Decode([]byte(`{"site": 1}`), FormatJSON)
		if !errors.Is(err, siteconf.ErrInvalidValue) {
			t.Fatalf("expected ErrInvalidValue, got %v", err)
		}
	})
}

func TestDecodeEmptyDocument(t *testing.T) {
	t.Parallel()

	doc, err := NewLoader(0).Decode(nil, FormatYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(doc, siteconf.Document{}) {
		t.Fatalf("expected empty document, got %+v", doc)
	}
}

func TestFormatFromContentType(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{
		"":                                FormatJSON,
		"application/json":                FormatJSON,
		"application/json; charset=utf-8": FormatJSON,
		"application/yaml":                FormatYAML,
		"text/yaml":                       FormatYAML,
		"application/toml":                FormatTOML,
	}
	for contentType, want := range tests {
		got, err := FormatFromContentType(contentType)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", contentType, err)
		}
		if got != want {
			t.Fatalf("%q: expected %s, got %s", contentType, want, got)
		}
	}

	if _, err := FormatFromContentType("text/plain"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
