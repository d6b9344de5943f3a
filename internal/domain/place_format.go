package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const categoryWordSeparator = "_"

func capitalizeWords(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		first, size := utf8.DecodeRuneInString(v)
		out = append(out, string(unicode.ToUpper(first))+strings.ToLower(v[size:]))
	}
	return out
}

// HumanizeCategory turns a raw provider category token such as
// "tourist_attraction" into "Tourist Attraction".
func HumanizeCategory(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	return strings.Join(capitalizeWords(strings.Split(token, categoryWordSeparator)), " ")
}

// CategoryFromTokens derives the display category from the first raw token.
func CategoryFromTokens(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	return HumanizeCategory(tokens[0])
}

// DisplayName renders the place name for tables.
func (p PlaceRecord) DisplayName() string {
	if strings.TrimSpace(p.Name) == "" {
		return "(Unnamed place)"
	}
	return p.Name
}

// FormatCategory renders the category for tables.
func (p PlaceRecord) FormatCategory() string {
	if !p.HasCategory() {
		return "-"
	}
	return p.Category
}

// FormatAddress renders the address for tables.
func (p PlaceRecord) FormatAddress() string {
	if strings.TrimSpace(p.Address) == "" {
		return "-"
	}
	return p.Address
}

// FormatPhoto renders photo state for tables.
func (p PlaceRecord) FormatPhoto() string {
	switch {
	case p.Photo != nil:
		return fmt.Sprintf("%dx%d", p.Photo.Width, p.Photo.Height)
	case p.HasPhotoKey():
		return "not loaded"
	default:
		return "-"
	}
}

// String renders the point as "lat,lon".
func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// FormatMeters renders a distance for tables.
func FormatMeters(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.2f km", meters/1000)
	}
	return fmt.Sprintf("%.0f m", meters)
}
