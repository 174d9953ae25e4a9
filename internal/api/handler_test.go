package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/siteconf/internal/document"
	"github.com/eugenenazirov/siteconf/internal/siteconf"
	"github.com/eugenenazirov/siteconf/internal/storage"
)

var testNow = time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

func baseDocument() siteconf.Document {
	return siteconf.Document{
		Site: siteconf.Ptr("https://example.test"),
		Integrations: []siteconf.Integration{
			siteconf.MDX(),
			siteconf.NewIntegration("sitemap", map[string]any{"exclude": []any{"/admin/**"}}),
			siteconf.Partytown("dataLayer.push"),
		},
		Output:  siteconf.Ptr(siteconf.OutputServer),
		Adapter: siteconf.Ptr(siteconf.Vercel(siteconf.WebAnalytics(true))),
	}
}

func setupTestRouter(t *testing.T, publish bool, maxSize int64) http.Handler {
	t.Helper()

	store := storage.NewMemoryStorage()
	if publish {
		doc := baseDocument()
		resolved, err := siteconf.DefineConfig(doc)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if err := store.Publish(storage.Snapshot{Source: doc, Resolved: resolved, PublishedAt: testNow}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	handler := NewHandler(store, siteconf.New(), document.NewLoader(maxSize), WithClock(func() time.Time { return testNow }))
	logger := zaptest.NewLogger(t)
	return NewRouter(handler, logger, WithLogging(false), WithRateLimit(0, 0))
}

func serve(t *testing.T, router http.Handler, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

type resolvedPayload struct {
	Config struct {
		Site     string `json:"site"`
		Output   string `json:"output"`
		Prefetch *struct {
			DefaultStrategy string `json:"defaultStrategy"`
		} `json:"prefetch"`
		Integrations []struct {
			Name string `json:"name"`
		} `json:"integrations"`
		Adapter *struct {
			Name    string         `json:"name"`
			Options map[string]any `json:"options"`
		} `json:"adapter"`
	} `json:"config"`
	Ignored     []string  `json:"ignored"`
	PublishedAt time.Time `json:"publishedAt"`
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(t, false, 0)

	rec := serve(t, router, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	resp := decode[healthResponse](t, rec)
	if resp.Status != "ok" || !resp.Timestamp.Equal(testNow) {
		t.Fatalf("unexpected health response: %+v", resp)
	}
}

func TestGetConfig(t *testing.T) {
	router := setupTestRouter(t, true, 0)

	rec := serve(t, router, http.MethodGet, "/api/config", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	resp := decode[resolvedPayload](t, rec)
	if resp.Config.Site != "https://example.test" || resp.Config.Output != "server" {
		t.Fatalf("unexpected config: %+v", resp.Config)
	}
	if len(resp.Config.Integrations) != 3 || resp.Config.Integrations[2].Name != "partytown" {
		t.Fatalf("unexpected integrations: %+v", resp.Config.Integrations)
	}
	if !resp.PublishedAt.Equal(testNow) {
		t.Fatalf("expected publish time %s, got %s", testNow, resp.PublishedAt)
	}
}

func TestGetConfigBeforePublish(t *testing.T) {
	router := setupTestRouter(t, false, 0)

	rec := serve(t, router, http.MethodGet, "/api/config", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestResolveEndpoint(t *testing.T) {
	router := setupTestRouter(t, true, 0)

	t.Run("json document", func(t *testing.T) {
		body := []byte(`{"site":"https://example.test","prefetch":{"defaultStrategy":"load"},"integrations":["mdx"]}`)
		rec := serve(t, router, http.MethodPost, "/api/resolve", "application/json", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decode[resolvedPayload](t, rec)
		if resp.Config.Output != "static" {
			t.Fatalf("expected default static output, got %s", resp.Config.Output)
		}
		if resp.Config.Prefetch == nil || resp.Config.Prefetch.DefaultStrategy != "load" {
			t.Fatalf("expected load prefetch, got %+v", resp.Config.Prefetch)
		}
	})

	t.Run("yaml merged over active", func(t *testing.T) {
		body := []byte("prefetch:\n  defaultStrategy: load\nadapter:\n  name: vercel\n  options:\n    maxDuration: 30\n")
		rec := serve(t, router, http.MethodPost, "/api/resolve?merge=true", "application/yaml", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decode[resolvedPayload](t, rec)
		if resp.Config.Output != "server" {
			t.Fatalf("expected output from active base, got %s", resp.Config.Output)
		}
		if resp.Config.Adapter == nil {
			t.Fatalf("expected adapter in response")
		}
		if _, ok := resp.Config.Adapter.Options["webAnalytics"]; !ok {
			t.Fatalf("expected base adapter options to survive merge, got %v", resp.Config.Adapter.Options)
		}
		if resp.Config.Adapter.Options["maxDuration"] != float64(30) {
			t.Fatalf("expected override adapter option, got %v", resp.Config.Adapter.Options)
		}
	})

	t.Run("toml document", func(t *testing.T) {
		body := []byte("output = \"server\"\nadapter = \"netlify\"\n")
		rec := serve(t, router, http.MethodPost, "/api/resolve", "application/toml", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestResolveEndpointErrors(t *testing.T) {
	router := setupTestRouter(t, true, 256)

	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		wantStatus  int
		wantField   string
		wantRule    string
	}{
		{
			name:       "missing adapter",
			target:     "/api/resolve",
			body:       `{"output":"server"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "adapter",
			wantRule:   siteconf.ErrMissingAdapter.Error(),
		},
		{
			name:       "invalid url",
			target:     "/api/resolve",
			body:       `{"site":"not-a-url"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "site",
			wantRule:   siteconf.ErrInvalidURL.Error(),
		},
		{
			name:       "duplicate integration",
			target:     "/api/resolve",
			body:       `{"integrations":["mdx","mdx"]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "integrations[1]",
			wantRule:   siteconf.ErrDuplicateIntegration.Error(),
		},
		{
			name:       "unknown option",
			target:     "/api/resolve",
			body:       `{"vite":{}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "vite",
			wantRule:   siteconf.ErrUnknownOption.Error(),
		},
		{
			name:       "malformed json",
			target:     "/api/resolve",
			body:       `{"site":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad merge flag",
			target:     "/api/resolve?merge=maybe",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "unsupported content type",
			target:      "/api/resolve",
			contentType: "text/plain",
			body:        `site: x`,
			wantStatus:  http.StatusUnsupportedMediaType,
		},
		{
			name:       "too large",
			target:     "/api/resolve",
			body:       `{"site":"https://example.test/` + strings.Repeat("a", 512) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contentType := tt.contentType
			if contentType == "" {
				contentType = "application/json"
			}
			rec := serve(t, router, http.MethodPost, tt.target, contentType, []byte(tt.body))
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantField == "" {
				return
			}
			resp := decode[errorResponse](t, rec)
			if resp.Field != tt.wantField || resp.Rule != tt.wantRule {
				t.Fatalf("expected %s/%s, got %s/%s", tt.wantField, tt.wantRule, resp.Field, resp.Rule)
			}
		})
	}
}

func TestResolveMergeRequiresPublishedConfig(t *testing.T) {
	router := setupTestRouter(t, false, 0)

	rec := serve(t, router, http.MethodPost, "/api/resolve?merge=true", "application/json", []byte(`{}`))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestCanonicalEndpoint(t *testing.T) {
	router := setupTestRouter(t, true, 0)

	rec := serve(t, router, http.MethodGet, "/api/canonical?path=/blog/first-post", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	resp := decode[canonicalResponse](t, rec)
	if resp.URL != "https://example.test/blog/first-post" || !resp.InSitemap {
		t.Fatalf("unexpected canonical response: %+v", resp)
	}

	rec = serve(t, router, http.MethodGet, "/api/canonical?path=/admin/users", "", nil)
	resp = decode[canonicalResponse](t, rec)
	if resp.InSitemap {
		t.Fatalf("expected excluded route to be left out of the sitemap")
	}

	rec = serve(t, router, http.MethodGet, "/api/canonical", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without path, got %d", rec.Code)
	}
}
