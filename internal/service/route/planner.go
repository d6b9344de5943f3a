// Package route builds closed walking tours through discovered places.
package route

import (
	"github.com/mekedron/placetour/internal/domain"
)

// Planner builds greedy nearest-neighbour tours.
type Planner struct {
	distance domain.DistanceFunc
}

// Option applies Planner options.
type Option func(*Planner)

// WithDistance replaces the geodesic distance, mostly for tests.
func WithDistance(distance domain.DistanceFunc) Option {
	return func(p *Planner) {
		if distance != nil {
			p.distance = distance
		}
	}
}

// NewPlanner creates a planner using great-circle distance.
func NewPlanner(opts ...Option) *Planner {
	p := &Planner{distance: domain.Distance}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildTour returns a closed tour that starts at origin, repeatedly walks to
// the nearest unvisited place and finally returns to origin. Ties go to the
// place listed first. The Visited flags of places are reset and then used as
// scratch state.
func (p *Planner) BuildTour(origin domain.GeoPoint, places []domain.PlaceRecord) domain.Route {
	for i := range places {
		places[i].Visited = false
	}

	points := make([]domain.GeoPoint, 0, len(places)+2)
	points = append(points, origin)
	current := origin
	for range places {
		next := -1
		best := 0.0
		for i := range places {
			if places[i].Visited {
				continue
			}
			d := p.distance(current, places[i].Location)
			if next == -1 || d < best {
				next = i
				best = d
			}
		}
		places[next].Visited = true
		current = places[next].Location
		points = append(points, current)
	}
	points = append(points, origin)
	return domain.Route{Points: points}
}

// Summary describes a tour leg by leg.
type Summary struct {
	Legs        []domain.Leg `json:"legs" yaml:"legs"`
	TotalMeters float64      `json:"total_m" yaml:"total_m"`
	Stops       int          `json:"stops" yaml:"stops"`
}

// Summarize measures route with the planner's distance function.
func (p *Planner) Summarize(route domain.Route) Summary {
	legs := route.Legs(p.distance)
	total := 0.0
	for _, leg := range legs {
		total += leg.Meters
	}
	stops := len(route.Points) - 2
	if stops < 0 {
		stops = 0
	}
	return Summary{Legs: legs, TotalMeters: total, Stops: stops}
}
