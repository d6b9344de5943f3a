package domain

// Route is an ordered closed tour that starts and ends at its origin.
type Route struct {
	Points []GeoPoint `json:"points" yaml:"points"`
}

// Leg is one straight segment of a route.
type Leg struct {
	From   GeoPoint `json:"from" yaml:"from"`
	To     GeoPoint `json:"to" yaml:"to"`
	Meters float64  `json:"meters" yaml:"meters"`
}

// Empty reports whether the route has no points.
func (r Route) Empty() bool {
	return len(r.Points) == 0
}

// Legs splits the route into consecutive segments measured with distance.
func (r Route) Legs(distance DistanceFunc) []Leg {
	if len(r.Points) < 2 {
		return nil
	}
	if distance == nil {
		distance = Distance
	}
	legs := make([]Leg, 0, len(r.Points)-1)
	for i := 1; i < len(r.Points); i++ {
		from, to := r.Points[i-1], r.Points[i]
		legs = append(legs, Leg{From: from, To: to, Meters: distance(from, to)})
	}
	return legs
}

// Length sums all leg distances.
func (r Route) Length(distance DistanceFunc) float64 {
	total := 0.0
	for _, leg := range r.Legs(distance) {
		total += leg.Meters
	}
	return total
}
