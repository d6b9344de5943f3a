package domain

// Image stores a downloaded place photo.
type Image struct {
	Data        []byte `json:"-" yaml:"-"`
	ContentType string `json:"content_type" yaml:"content_type"`
	Width       int    `json:"width" yaml:"width"`
	Height      int    `json:"height" yaml:"height"`
}

// Size returns the payload length in bytes.
func (i Image) Size() int {
	return len(i.Data)
}

// PlaceRecord stores one discovered place. Empty strings mean the provider
// supplied no value.
type PlaceRecord struct {
	PlaceID  string   `json:"place_id,omitempty" yaml:"place_id,omitempty"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Address  string   `json:"address,omitempty" yaml:"address,omitempty"`
	Location GeoPoint `json:"location" yaml:"location"`
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
	PhotoKey string   `json:"photo_key,omitempty" yaml:"photo_key,omitempty"`
	Photo    *Image   `json:"photo,omitempty" yaml:"photo,omitempty"`

	// Visited is scratch state for tour construction only.
	Visited bool `json:"-" yaml:"-"`
}

// HasCategory reports whether a category label was derived.
func (p PlaceRecord) HasCategory() bool {
	return p.Category != ""
}

// HasPhotoKey reports whether the provider supplied a photo reference.
func (p PlaceRecord) HasPhotoKey() bool {
	return p.PhotoKey != ""
}

// HasPhoto reports whether a photo was attached.
func (p PlaceRecord) HasPhoto() bool {
	return p.Photo != nil
}
