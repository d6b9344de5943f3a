package output

import (
	"encoding/json"
	"fmt"

	"github.com/mekedron/placetour/internal/domain"
)

// GeoJSON object types.
const (
	GeoJSONFeatureCollectionType = "FeatureCollection"
	GeoJSONFeatureType           = "Feature"
	GeoJSONPointType             = "Point"
	GeoJSONLineStringType        = "LineString"
)

// GeoJSONFeatureCollection is a GeoJSON FeatureCollection.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type" yaml:"type"`
	Features []GeoJSONFeature `json:"features" yaml:"features"`
}

// GeoJSONFeature is a single feature with geometry and properties.
type GeoJSONFeature struct {
	Type       string          `json:"type" yaml:"type"`
	Geometry   GeoJSONGeometry `json:"geometry" yaml:"geometry"`
	Properties map[string]any  `json:"properties" yaml:"properties"`
}

// GeoJSONGeometry holds [lon, lat] pairs: one for a Point, a list for a LineString.
type GeoJSONGeometry struct {
	Type        string `json:"type" yaml:"type"`
	Coordinates any    `json:"coordinates" yaml:"coordinates"`
}

// BuildGeoJSON converts places and an optional route into a FeatureCollection.
// Places become Point features in rank order; a non-empty route becomes a
// trailing LineString feature.
func BuildGeoJSON(places []domain.PlaceRecord, route domain.Route) GeoJSONFeatureCollection {
	features := make([]GeoJSONFeature, 0, len(places)+1)
	for i, place := range places {
		props := map[string]any{
			"rank": i + 1,
			"name": place.DisplayName(),
		}
		if place.PlaceID != "" {
			props["place_id"] = place.PlaceID
		}
		if place.HasCategory() {
			props["category"] = place.Category
		}
		if place.Address != "" {
			props["address"] = place.Address
		}
		if place.HasPhoto() {
			props["photo"] = place.FormatPhoto()
		}
		features = append(features, GeoJSONFeature{
			Type:       GeoJSONFeatureType,
			Geometry:   GeoJSONGeometry{Type: GeoJSONPointType, Coordinates: place.Location.CoordsToList()},
			Properties: props,
		})
	}

	if !route.Empty() {
		line := make([][]float64, 0, len(route.Points))
		for _, point := range route.Points {
			line = append(line, point.CoordsToList())
		}
		features = append(features, GeoJSONFeature{
			Type:     GeoJSONFeatureType,
			Geometry: GeoJSONGeometry{Type: GeoJSONLineStringType, Coordinates: line},
			Properties: map[string]any{
				"kind":     "tour",
				"length_m": route.Length(nil),
			},
		})
	}
	return GeoJSONFeatureCollection{Type: GeoJSONFeatureCollectionType, Features: features}
}

// WriteGeoJSON writes collection to path as indented JSON.
func WriteGeoJSON(path string, collection GeoJSONFeatureCollection) error {
	payload, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	if err := writeFile(path, payload); err != nil {
		return fmt.Errorf("write geojson file: %w", err)
	}
	return nil
}
