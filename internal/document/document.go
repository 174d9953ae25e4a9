package document

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/siteconf/internal/siteconf"
)

// Format names a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// DefaultMaxSize bounds documents when no explicit limit is configured.
const DefaultMaxSize int64 = 1 << 20

// Loader decodes site documents.
type Loader struct {
	maxSize int64
}

// NewLoader creates a Loader rejecting documents larger than maxSize bytes.
// A non-positive maxSize selects DefaultMaxSize.
func NewLoader(maxSize int64) *Loader {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Loader{maxSize: maxSize}
}

// MaxSize returns the size limit in bytes.
func (l *Loader) MaxSize() int64 {
	return l.maxSize
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// FormatFromContentType maps an HTTP Content-Type to a format. An empty
// content type means JSON.
func FormatFromContentType(contentType string) (Format, error) {
	if strings.TrimSpace(contentType) == "" {
		return FormatJSON, nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	switch mediaType {
	case "application/json":
		return FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return FormatYAML, nil
	case "application/toml", "text/toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, mediaType)
	}
}

// Load reads and parses the document at path.
func (l *Loader) Load(path string) (siteconf.Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return siteconf.Document{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return siteconf.Document{}, fmt.Errorf("stat file: %w", err)
	}
	if info.Size() > l.maxSize {
		return siteconf.Document{}, fmt.Errorf("%s: %w (%d > %d bytes)", path, ErrDocumentTooLarge, info.Size(), l.maxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return siteconf.Document{}, fmt.Errorf("read file: %w", err)
	}

	doc, err := l.Decode(data, format)
	if err != nil {
		return siteconf.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// LoadAll loads base followed by overlays, in merge order.
func (l *Loader) LoadAll(base string, overlays ...string) ([]siteconf.Document, error) {
	paths := append([]string{base}, overlays...)
	docs := make([]siteconf.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := l.Load(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Decode parses an in-memory document.
func (l *Loader) Decode(data []byte, format Format) (siteconf.Document, error) {
	if int64(len(data)) > l.maxSize {
		return siteconf.Document{}, fmt.Errorf("%w (%d > %d bytes)", ErrDocumentTooLarge, len(data), l.maxSize)
	}

	var raw map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return siteconf.Document{}, fmt.Errorf("parse YAML: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return siteconf.Document{}, fmt.Errorf("parse TOML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return siteconf.Document{}, fmt.Errorf("parse JSON: %w", err)
		}
	default:
		return siteconf.Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return siteconf.ParseDocument(raw)
}
