package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/mekedron/placetour/internal/config"
	"github.com/mekedron/placetour/internal/domain"
	placesgateway "github.com/mekedron/placetour/internal/gateway/places"
)

type testPlacesAPI struct {
	mu         sync.Mutex
	queries    []placesgateway.NearbyQuery
	photoCalls []string
	nearbyFn   func(context.Context, placesgateway.NearbyQuery) (placesgateway.NearbyPage, error)
	photoFn    func(context.Context, string, int) (domain.Image, error)
}

func (m *testPlacesAPI) NearbySearch(ctx context.Context, query placesgateway.NearbyQuery) (placesgateway.NearbyPage, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.nearbyFn != nil {
		return m.nearbyFn(ctx, query)
	}
	return placesgateway.NearbyPage{Status: placesgateway.StatusZeroResults}, nil
}

func (m *testPlacesAPI) Photo(ctx context.Context, reference string, maxWidth int) (domain.Image, error) {
	m.mu.Lock()
	m.photoCalls = append(m.photoCalls, reference)
	m.mu.Unlock()
	if m.photoFn != nil {
		return m.photoFn(ctx, reference, maxWidth)
	}
	return domain.Image{}, fmt.Errorf("no photo for %s", reference)
}

func (m *testPlacesAPI) lastQuery(t *testing.T) placesgateway.NearbyQuery {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queries) == 0 {
		t.Fatal("expected a nearby search")
	}
	return m.queries[len(m.queries)-1]
}

type testProfiles struct {
	profile  domain.Profile
	profiles []domain.Profile
	err      error
}

func (m *testProfiles) Find(context.Context, string) (domain.Profile, error) {
	if m.err != nil {
		return domain.Profile{}, m.err
	}
	return m.profile, nil
}

func (m *testProfiles) List(context.Context) ([]domain.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profiles, nil
}

type testLocation struct {
	location domain.GeoPoint
	err      error
	calls    []string
}

func (m *testLocation) Get(_ context.Context, address string) (domain.GeoPoint, error) {
	m.calls = append(m.calls, address)
	if m.err != nil {
		return domain.GeoPoint{}, m.err
	}
	return m.location, nil
}

type testConfigManager struct {
	cfg     domain.Config
	loadErr error
	saved   int
}

func (m *testConfigManager) Path() string {
	return "/tmp/test-config.json"
}

func (m *testConfigManager) Load(context.Context) (domain.Config, error) {
	if m.loadErr != nil {
		return domain.Config{}, m.loadErr
	}
	return m.cfg, nil
}

func (m *testConfigManager) Save(_ context.Context, cfg domain.Config) error {
	m.cfg = cfg
	m.loadErr = nil
	m.saved++
	return nil
}

func testSettings() config.Settings {
	return config.Settings{
		APIKey:             "test-key",
		SearchRadiusMeters: config.DefaultSearchRadiusMeters,
		PhotoMaxWidth:      config.DefaultPhotoMaxWidth,
		PhotoConcurrency:   2,
	}
}

func rawPlace(name string, lat, lon float64, types []string, photoRef string) json.RawMessage {
	entry := map[string]any{
		"name":     name,
		"vicinity": name + " street",
		"geometry": map[string]any{"location": map[string]any{"lat": lat, "lng": lon}},
	}
	if types != nil {
		entry["types"] = types
	}
	if photoRef != "" {
		entry["photos"] = []map[string]any{{"photo_reference": photoRef}}
	}
	payload, _ := json.Marshal(entry)
	return payload
}

func okPage(entries ...json.RawMessage) func(context.Context, placesgateway.NearbyQuery) (placesgateway.NearbyPage, error) {
	return func(context.Context, placesgateway.NearbyQuery) (placesgateway.NearbyPage, error) {
		return placesgateway.NearbyPage{Status: placesgateway.StatusOK, Results: entries}, nil
	}
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func runCLI(t *testing.T, deps Dependencies, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := Execute(context.Background(), args, deps, stdout, stderr)
	return code, stdout.String(), stderr.String()
}
