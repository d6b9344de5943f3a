package output_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mekedron/placetour/internal/domain"
	"github.com/mekedron/placetour/internal/service/output"
)

func TestBuildEnvelope(t *testing.T) {
	env := output.BuildEnvelope("default", "fi", map[string]any{"ok": true}, nil)
	if env.Meta.Profile != "default" || env.Meta.Language != "fi" {
		t.Fatalf("unexpected meta: %+v", env.Meta)
	}
	if !strings.HasPrefix(env.Meta.RequestID, "req_") || len(env.Meta.RequestID) != len("req_")+32 {
		t.Fatalf("expected req_ prefixed uuid, got %q", env.Meta.RequestID)
	}
	if !strings.HasSuffix(env.Meta.GeneratedAt, "Z") {
		t.Fatalf("expected generated_at to end with Z, got %q", env.Meta.GeneratedAt)
	}
	if env.Warnings == nil || len(env.Warnings) != 0 {
		t.Fatalf("expected empty warnings, got %v", env.Warnings)
	}
	if env.Error != nil {
		t.Fatalf("expected no error, got %+v", env.Error)
	}
}

func TestBuildErrorEnvelope(t *testing.T) {
	env := output.BuildErrorEnvelope("anonymous", "", "PLACETOUR_UPSTREAM_ERROR", "boom")
	rendered, err := output.RenderPayload(env, output.FormatJSON)
	if err != nil {
		t.Fatalf("render json failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(rendered), &decoded); err != nil {
		t.Fatalf("decode rendered envelope: %v", err)
	}
	errBody, _ := decoded["error"].(map[string]any)
	if errBody["code"] != "PLACETOUR_UPSTREAM_ERROR" || errBody["message"] != "boom" {
		t.Fatalf("unexpected error body: %v", decoded["error"])
	}
	if decoded["data"] != nil {
		t.Fatalf("expected null data, got %v", decoded["data"])
	}
	meta, _ := decoded["meta"].(map[string]any)
	if _, ok := meta["language"]; ok {
		t.Fatalf("expected empty language to be omitted, got %v", meta)
	}
}

func TestRenderPayload(t *testing.T) {
	env := output.BuildEnvelope("default", "", map[string]any{"ok": true, "url": "a?b=1&c=2"}, []string{"warn"})

	jsonPayload, err := output.RenderPayload(env, output.FormatJSON)
	if err != nil {
		t.Fatalf("render json failed: %v", err)
	}
	if !strings.Contains(jsonPayload, "\"ok\": true") {
		t.Fatalf("expected json payload to include data, got %s", jsonPayload)
	}
	if !strings.Contains(jsonPayload, "a?b=1&c=2") {
		t.Fatalf("expected unescaped ampersand, got %s", jsonPayload)
	}

	yamlPayload, err := output.RenderPayload(env, output.FormatYAML)
	if err != nil {
		t.Fatalf("render yaml failed: %v", err)
	}
	if !strings.Contains(yamlPayload, "profile: default") {
		t.Fatalf("expected yaml payload to include profile, got %s", yamlPayload)
	}

	if _, err := output.RenderPayload(env, output.FormatTable); err == nil {
		t.Fatal("expected table format to be rejected")
	}
}

func TestParseFormat(t *testing.T) {
	if got, err := output.ParseFormat(""); err != nil || got != output.FormatTable {
		t.Fatalf("expected table default, got %q / %v", got, err)
	}
	if got, err := output.ParseFormat(" JSON "); err != nil || got != output.FormatJSON {
		t.Fatalf("expected json, got %q / %v", got, err)
	}
	if _, err := output.ParseFormat("xml"); err == nil {
		t.Fatal("expected xml to be rejected")
	}
}

func TestRenderTable(t *testing.T) {
	got := output.RenderTable("Places", []string{"#", "Name", "Distance"}, [][]string{
		{"1", "Café Ekberg", "120 m"},
		{"10", "Park", "1.2 km"},
	})
	want := "Places\n" +
		"#   Name         Distance\n" +
		"1   Café Ekberg  120 m\n" +
		"10  Park         1.2 km"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBuildGeoJSON(t *testing.T) {
	places := []domain.PlaceRecord{
		{Name: "Cafe", Category: "Cafe", Location: domain.GeoPoint{Lat: 60.1, Lon: 24.9}},
		{Location: domain.GeoPoint{Lat: 60.2, Lon: 25.0}, Photo: &domain.Image{Width: 200, Height: 150}},
	}
	origin := domain.GeoPoint{Lat: 60.0, Lon: 24.8}
	route := domain.Route{Points: []domain.GeoPoint{origin, places[0].Location, places[1].Location, origin}}

	collection := output.BuildGeoJSON(places, route)
	if collection.Type != output.GeoJSONFeatureCollectionType || len(collection.Features) != 3 {
		t.Fatalf("unexpected collection: %+v", collection)
	}
	first := collection.Features[0]
	coords, ok := first.Geometry.Coordinates.([]float64)
	if !ok || coords[0] != 24.9 || coords[1] != 60.1 {
		t.Fatalf("expected [lon, lat] point, got %v", first.Geometry.Coordinates)
	}
	if first.Properties["category"] != "Cafe" || first.Properties["rank"] != 1 {
		t.Fatalf("unexpected properties: %v", first.Properties)
	}
	if collection.Features[1].Properties["name"] != "(Unnamed place)" {
		t.Fatalf("expected unnamed placeholder, got %v", collection.Features[1].Properties["name"])
	}
	if collection.Features[1].Properties["photo"] != "200x150" {
		t.Fatalf("expected photo dimensions, got %v", collection.Features[1].Properties["photo"])
	}
	line := collection.Features[2]
	if line.Geometry.Type != output.GeoJSONLineStringType {
		t.Fatalf("expected LineString, got %q", line.Geometry.Type)
	}
	if points, ok := line.Geometry.Coordinates.([][]float64); !ok || len(points) != 4 {
		t.Fatalf("expected 4 route points, got %v", line.Geometry.Coordinates)
	}
}

func TestBuildGeoJSONWithoutRoute(t *testing.T) {
	collection := output.BuildGeoJSON(nil, domain.Route{})
	if len(collection.Features) != 0 {
		t.Fatalf("expected no features, got %d", len(collection.Features))
	}
	payload, err := json.Marshal(collection)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(payload), `"features":[]`) {
		t.Fatalf("expected empty features array, got %s", payload)
	}
}

func TestWriteGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tour.geojson")
	collection := output.BuildGeoJSON([]domain.PlaceRecord{{Name: "A"}}, domain.Route{})
	if err := output.WriteGeoJSON(path, collection); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid json written: %v", err)
	}
	if decoded["type"] != "FeatureCollection" {
		t.Fatalf("unexpected type %v", decoded["type"])
	}
}
