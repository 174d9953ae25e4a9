package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/siteconf/internal/application"
	"github.com/eugenenazirov/siteconf/internal/config"
)

const serverSite = `site: https://example.test
integrations:
  - mdx
  - sitemap
  - name: partytown
    options:
      config:
        forward: [dataLayer.push]
output: server
adapter:
  name: vercel
  options:
    webAnalytics:
      enabled: true
`

const prefetchOverlay = `{
  "site": "https://example.test",
  "prefetch": {"defaultStrategy": "load"},
  "integrations": ["mdx", "sitemap", {"name": "partytown", "options": {"config": {"forward": ["dataLayer.push"]}}}],
  "adapter": {"name": "vercel", "options": {"webAnalytics": {"enabled": true}}}
}`

func newServer(t *testing.T) http.Handler {
	t.Helper()

	dir := t.TempDir()
	base := filepath.Join(dir, "site.yaml")
	overlay := filepath.Join(dir, "prefetch.json")
	if err := os.WriteFile(base, []byte(serverSite), 0o600); err != nil {
		t.Fatalf("write base: %v", err)
	}
	if err := os.WriteFile(overlay, []byte(prefetchOverlay), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	cfg := config.Config{
		Port:                ":0",
		SiteConfig:          base,
		Overlays:            []string{overlay},
		MaxDocumentSize:     1 << 20,
		ShutdownGracePeriod: time.Second,
		ReadHeaderTimeout:   time.Second,
		WriteTimeout:        time.Second,
		IdleTimeout:         time.Second,
	}
	app, err := application.New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("application.New: %v", err)
	}
	return app.Server().Handler
}

func performRequest(t *testing.T, handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIntegrationFlow(t *testing.T) {
	handler := newServer(t)

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/config", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from config, got %d", rec.Code)
	}
	var published struct {
		Config struct {
			Output   string `json:"output"`
			Prefetch struct {
				DefaultStrategy string `json:"defaultStrategy"`
			} `json:"prefetch"`
		} `json:"config"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&published); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// The overlay omits output, so the base document's server mode survives.
	if published.Config.Output != "server" || published.Config.Prefetch.DefaultStrategy != "load" {
		t.Fatalf("unexpected published configuration: %+v", published.Config)
	}

	override, _ := json.Marshal(map[string]any{"output": "static", "prefetch": false})
	rec = performRequest(t, handler, http.MethodPost, "/api/resolve?merge=true", override, map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from resolve, got %d: %s", rec.Code, rec.Body.String())
	}
	var resolved struct {
		Config map[string]any `json:"config"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resolved); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resolved.Config["output"] != "static" {
		t.Fatalf("expected override output, got %v", resolved.Config["output"])
	}
	if _, ok := resolved.Config["prefetch"]; ok {
		t.Fatalf("expected explicit false prefetch to disable prefetching")
	}

	rec = performRequest(t, handler, http.MethodPost, "/api/resolve", []byte(`{"site":"not-a-url"}`), map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for invalid site, got %d", rec.Code)
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/canonical?path=/posts/hello", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from canonical, got %d", rec.Code)
	}
	var canonical struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&canonical); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if canonical.URL != "https://example.test/posts/hello" {
		t.Fatalf("unexpected canonical url %s", canonical.URL)
	}
}
