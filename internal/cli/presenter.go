package cli

import (
	"sync"

	"github.com/mekedron/placetour/internal/domain"
)

// tourPresenter collects what a session shows so a one-shot command can
// render it afterwards.
type tourPresenter struct {
	mu     sync.Mutex
	places []domain.PlaceRecord
	route  domain.Route

	shown  chan struct{}
	routed chan struct{}
	failed chan error
}

func newTourPresenter() *tourPresenter {
	return &tourPresenter{
		shown:  make(chan struct{}, 1),
		routed: make(chan struct{}, 1),
		failed: make(chan error, 1),
	}
}

func (p *tourPresenter) ShowPlaces(places []domain.PlaceRecord) {
	p.mu.Lock()
	p.places = places
	p.mu.Unlock()
	notify(p.shown)
}

func (p *tourPresenter) UpdatePlace(index int, place domain.PlaceRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index >= 0 && index < len(p.places) {
		p.places[index] = place
	}
}

func (p *tourPresenter) ShowRoute(route domain.Route) {
	p.mu.Lock()
	p.route = route
	p.mu.Unlock()
	notify(p.routed)
}

func (p *tourPresenter) ClearRoute() {
	p.mu.Lock()
	p.route = domain.Route{}
	p.mu.Unlock()
}

func (p *tourPresenter) SearchFailed(_ domain.GeoPoint, err error) {
	select {
	case p.failed <- err:
	default:
	}
}

func (p *tourPresenter) snapshot() ([]domain.PlaceRecord, domain.Route) {
	p.mu.Lock()
	defer p.mu.Unlock()
	places := make([]domain.PlaceRecord, len(p.places))
	copy(places, p.places)
	return places, p.route
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
