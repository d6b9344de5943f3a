package domain

// Profile stores a saved search position.
type Profile struct {
	Name         string   `json:"name" yaml:"name"`
	IsDefault    bool     `json:"is_default" yaml:"is_default"`
	Location     GeoPoint `json:"location" yaml:"location"`
	Address      string   `json:"address,omitempty" yaml:"address,omitempty"`
	RadiusMeters float64  `json:"radius_m,omitempty" yaml:"radius_m,omitempty"`
}

// Config stores all local profiles.
type Config struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}
