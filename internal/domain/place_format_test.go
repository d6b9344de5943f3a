package domain

import "testing"

func TestHumanizeCategory(t *testing.T) {
	cases := map[string]string{
		"natural_feature":    "Natural Feature",
		"cafe":               "Cafe",
		"tourist_attraction": "Tourist Attraction",
		"point_of_interest":  "Point Of Interest",
		"":                   "",
		"  ":                 "",
		"double__sep":        "Double Sep",
		"ALL_CAPS":           "All Caps",
		"église_ancienne":    "Église Ancienne",
		"ünique_cafe":        "Ünique Cafe",
	}
	for raw, want := range cases {
		if got := HumanizeCategory(raw); got != want {
			t.Fatalf("HumanizeCategory(%q): expected %q, got %q", raw, want, got)
		}
	}
}

func TestCategoryFromTokensUsesFirstToken(t *testing.T) {
	if got := CategoryFromTokens([]string{"cafe", "food", "establishment"}); got != "Cafe" {
		t.Fatalf("expected Cafe, got %q", got)
	}
	if got := CategoryFromTokens(nil); got != "" {
		t.Fatalf("expected absent category, got %q", got)
	}
}

func TestPlaceRecordFormatting(t *testing.T) {
	place := PlaceRecord{PhotoKey: "ref"}
	if place.DisplayName() != "(Unnamed place)" {
		t.Fatalf("unexpected display name %q", place.DisplayName())
	}
	if place.FormatCategory() != "-" || place.FormatAddress() != "-" {
		t.Fatalf("expected dash placeholders, got %q / %q", place.FormatCategory(), place.FormatAddress())
	}
	if place.FormatPhoto() != "not loaded" {
		t.Fatalf("expected not loaded photo, got %q", place.FormatPhoto())
	}
	place.Photo = &Image{Width: 200, Height: 150}
	if place.FormatPhoto() != "200x150" {
		t.Fatalf("expected 200x150, got %q", place.FormatPhoto())
	}
}

func TestFormatMeters(t *testing.T) {
	if got := FormatMeters(742.4); got != "742 m" {
		t.Fatalf("expected 742 m, got %q", got)
	}
	if got := FormatMeters(1530); got != "1.53 km" {
		t.Fatalf("expected 1.53 km, got %q", got)
	}
}
