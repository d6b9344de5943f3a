package places

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mekedron/placetour/internal/domain"
	"github.com/mekedron/placetour/internal/gateway/location"
)

type rawPlace struct {
	PlaceID          string       `json:"place_id"`
	Name             string       `json:"name"`
	Vicinity         string       `json:"vicinity"`
	FormattedAddress string       `json:"formatted_address"`
	Types            []string     `json:"types"`
	Geometry         *rawGeometry `json:"geometry"`
	Photos           []rawPhoto   `json:"photos"`
}

type rawGeometry struct {
	Location *struct {
		Lat json.RawMessage `json:"lat"`
		Lng json.RawMessage `json:"lng"`
	} `json:"location"`
}

type rawPhoto struct {
	PhotoReference string `json:"photo_reference"`
}

// ParsePlace converts one nearby-search entry into a PlaceRecord. The entry
// must carry a location; every other field is optional.
func ParsePlace(raw json.RawMessage) (domain.PlaceRecord, error) {
	var entry rawPlace
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.PlaceRecord{}, fmt.Errorf("decode entry: %w", err)
	}
	if entry.Geometry == nil || entry.Geometry.Location == nil {
		return domain.PlaceRecord{}, errors.New("missing geometry.location")
	}
	lat, err := coordinate("lat", entry.Geometry.Location.Lat)
	if err != nil {
		return domain.PlaceRecord{}, err
	}
	lon, err := coordinate("lng", entry.Geometry.Location.Lng)
	if err != nil {
		return domain.PlaceRecord{}, err
	}

	address := strings.TrimSpace(entry.Vicinity)
	if address == "" {
		address = strings.TrimSpace(entry.FormattedAddress)
	}
	record := domain.PlaceRecord{
		PlaceID:  strings.TrimSpace(entry.PlaceID),
		Name:     strings.TrimSpace(entry.Name),
		Address:  address,
		Location: domain.GeoPoint{Lat: lat, Lon: lon},
		Category: domain.CategoryFromTokens(entry.Types),
	}
	if len(entry.Photos) > 0 {
		record.PhotoKey = strings.TrimSpace(entry.Photos[0].PhotoReference)
	}
	return record, nil
}

func coordinate(name string, raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing geometry.location.%s", name)
	}
	value, err := location.ParseCoordinate(raw)
	if err != nil {
		return 0, fmt.Errorf("geometry.location.%s: %w", name, err)
	}
	return value, nil
}

// parseBatch parses the first limit entries and drops the ones that fail.
func parseBatch(results []json.RawMessage, limit int) ([]domain.PlaceRecord, []*ParseError) {
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	records := make([]domain.PlaceRecord, 0, len(results))
	var dropped []*ParseError
	for i, raw := range results {
		record, err := ParsePlace(raw)
		if err != nil {
			dropped = append(dropped, &ParseError{Index: i, Reason: err.Error()})
			continue
		}
		records = append(records, record)
	}
	return records, dropped
}
