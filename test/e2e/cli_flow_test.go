package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mekedron/placetour/internal/cli"
	"github.com/mekedron/placetour/internal/config"
	placesgateway "github.com/mekedron/placetour/internal/gateway/places"
	"github.com/mekedron/placetour/internal/logger"
	"github.com/mekedron/placetour/internal/service/profile"
)

type providerStub struct {
	mu      sync.Mutex
	nearby  string
	queries []string
}

func (p *providerStub) Do(req *http.Request) (*http.Response, error) {
	p.mu.Lock()
	p.queries = append(p.queries, req.URL.RawQuery)
	body := p.nearby
	p.mu.Unlock()
	if body == "" {
		body = `{"status":"ZERO_RESULTS","results":[]}`
	}
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func (p *providerStub) lastQuery(t *testing.T) string {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queries) == 0 {
		t.Fatal("expected a provider request")
	}
	return p.queries[len(p.queries)-1]
}

type harness struct {
	deps     cli.Dependencies
	provider *providerStub
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	provider := &providerStub{}
	store := config.NewStoreAt(filepath.Join(t.TempDir(), "config.json"))
	return &harness{
		provider: provider,
		deps: cli.Dependencies{
			Places: placesgateway.NewClient(
				placesgateway.WithHTTPClient(provider),
				placesgateway.WithAPIKey("e2e-key"),
				placesgateway.WithEndpoints(placesgateway.Endpoints{NearbySearch: "https://example.test/nearby"}),
			),
			Profiles: profile.NewResolver(store),
			Config:   store,
			Settings: config.Settings{
				APIKey:             "e2e-key",
				SearchRadiusMeters: config.DefaultSearchRadiusMeters,
				PhotoMaxWidth:      config.DefaultPhotoMaxWidth,
				PhotoConcurrency:   config.DefaultPhotoConcurrency,
			},
			Logger:  logger.Discard(),
			Version: "v0.0.0-e2e",
		},
	}
}

func (h *harness) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := cli.Execute(context.Background(), args, h.deps, stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func place(name string, lat, lon float64) map[string]any {
	return map[string]any{
		"name":     name,
		"types":    []string{"point_of_interest"},
		"geometry": map[string]any{"location": map[string]any{"lat": lat, "lng": lon}},
	}
}

func (h *harness) serve(t *testing.T, entries ...map[string]any) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"status": "OK", "results": entries})
	if err != nil {
		t.Fatalf("marshal provider payload: %v", err)
	}
	h.provider.mu.Lock()
	h.provider.nearby = string(payload)
	h.provider.mu.Unlock()
}

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("decode output: %v\n%s", err, raw)
	}
	return payload
}

func TestConfigureThenSearchFromSavedProfile(t *testing.T) {
	h := newHarness(t)

	code, stdout, stderr := h.run(t, "configure", "--profile-name", "harbour", "--lat", "60.1675", "--lon", "24.9527", "--radius", "300")
	if code != 0 {
		t.Fatalf("configure failed with %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, `Profile "harbour" created`) {
		t.Fatalf("unexpected configure output: %s", stdout)
	}

	code, stdout, _ = h.run(t, "profile", "list", "--format", "json")
	if code != 0 {
		t.Fatalf("profile list failed with %d: %s", code, stdout)
	}
	profiles, _ := decode(t, stdout)["data"].(map[string]any)["profiles"].([]any)
	if len(profiles) != 1 {
		t.Fatalf("expected one saved profile, got %v", profiles)
	}

	h.serve(t, place("Market Square", 60.16749, 24.95275))
	code, stdout, _ = h.run(t, "nearby", "--format", "json")
	if code != 0 {
		t.Fatalf("nearby failed with %d: %s", code, stdout)
	}
	query := h.provider.lastQuery(t)
	if !strings.Contains(query, "radius=300") || !strings.Contains(query, "location=60.167500%2C24.952700") {
		t.Fatalf("expected saved profile position and radius, got %s", query)
	}
	env := decode(t, stdout)
	if env["meta"].(map[string]any)["profile"] != "harbour" {
		t.Fatalf("expected harbour profile in meta, got %v", env["meta"])
	}
	if env["data"].(map[string]any)["count"] != float64(1) {
		t.Fatalf("expected one place, got %v", env["data"])
	}
}

func TestTourYAMLOutput(t *testing.T) {
	h := newHarness(t)
	h.serve(t,
		place("Third", 0, 0.003),
		place("First", 0, 0.001),
		place("Second", 0, 0.002),
	)

	code, stdout, stderr := h.run(t, "tour", "--lat", "0", "--lon", "0", "--format", "yaml")
	if code != 0 {
		t.Fatalf("tour failed with %d: %s %s", code, stdout, stderr)
	}
	first := strings.Index(stdout, "name: First")
	second := strings.Index(stdout, "name: Second")
	third := strings.Index(stdout, "name: Third")
	if first < 0 || second < first || third < second {
		t.Fatalf("expected stops in nearest-neighbour order:\n%s", stdout)
	}
	if !strings.Contains(stdout, "total_m:") {
		t.Fatalf("expected total distance in yaml:\n%s", stdout)
	}
}

func TestNearbyWithoutAnyPosition(t *testing.T) {
	h := newHarness(t)
	code, stdout, _ := h.run(t, "nearby", "--format", "json")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	errPayload, _ := decode(t, stdout)["error"].(map[string]any)
	if errPayload["code"] != "PLACETOUR_CONFIG_ERROR" {
		t.Fatalf("expected config error, got %v", errPayload)
	}
	if !strings.Contains(errPayload["message"].(string), "placetour configure") {
		t.Fatalf("expected configure hint, got %v", errPayload["message"])
	}
}

func TestVerboseTraceRedactsKey(t *testing.T) {
	h := newHarness(t)
	h.serve(t, place("Kiosk", 0, 0.001))

	code, _, stderr := h.run(t, "nearby", "--lat", "0", "--lon", "0", "--verbose")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (%s)", code, stderr)
	}
	for _, want := range []string{"[verbose] http trace enabled", "[http] -> GET", "[activity] network busy", "[activity] network idle"} {
		if !strings.Contains(stderr, want) {
			t.Fatalf("expected %q on stderr:\n%s", want, stderr)
		}
	}
	if strings.Contains(stderr, "e2e-key") {
		t.Fatalf("expected api key to be redacted:\n%s", stderr)
	}
}

func TestVersionFlag(t *testing.T) {
	h := newHarness(t)
	code, stdout, _ := h.run(t, "--version")
	if code != 0 || strings.TrimSpace(stdout) != "v0.0.0-e2e" {
		t.Fatalf("expected injected version, got %d %q", code, stdout)
	}
}
