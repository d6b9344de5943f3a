// Package session connects position updates, place searches, photo delivery
// and tour requests to a Presenter. All presenter calls happen on the
// goroutine running Session.Run, one event at a time.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/mekedron/placetour/internal/domain"
	"github.com/mekedron/placetour/internal/logger"
	"github.com/mekedron/placetour/internal/service/places"
)

const eventBuffer = 32

// Presenter renders places and tours.
type Presenter interface {
	ShowPlaces(places []domain.PlaceRecord)
	UpdatePlace(index int, place domain.PlaceRecord)
	ShowRoute(route domain.Route)
	ClearRoute()
}

// FailureReporter is implemented by presenters that want to hear about
// failed searches.
type FailureReporter interface {
	SearchFailed(center domain.GeoPoint, err error)
}

// Searcher runs place searches.
type Searcher interface {
	Search(ctx context.Context, center domain.GeoPoint) (*places.ResultSet, error)
}

// Planner builds tours.
type Planner interface {
	BuildTour(origin domain.GeoPoint, places []domain.PlaceRecord) domain.Route
}

type event interface{}

type locationEvent struct {
	center domain.GeoPoint
}

type originEvent struct {
	origin domain.GeoPoint
}

type searchDoneEvent struct {
	center domain.GeoPoint
	set    *places.ResultSet
	err    error
}

type photoEvent struct {
	set   *places.ResultSet
	index int
}

// Session is a single-user interactive session.
type Session struct {
	searcher  Searcher
	planner   Planner
	presenter Presenter
	log       *logger.Logger

	events   chan event
	done     chan struct{}
	doneOnce sync.Once
	searches sync.WaitGroup

	// shown is owned by Run.
	shown *places.ResultSet
}

// Option applies Session options.
type Option func(*Session)

// WithLogger sets the diagnostics logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a session. Call Run to start processing events.
func New(searcher Searcher, planner Planner, presenter Presenter, opts ...Option) *Session {
	s := &Session{
		searcher:  searcher,
		planner:   planner,
		presenter: presenter,
		log:       logger.Discard(),
		events:    make(chan event, eventBuffer),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LocationUpdated starts a search around center.
func (s *Session) LocationUpdated(center domain.GeoPoint) {
	s.post(locationEvent{center: center})
}

// OriginSelected builds a tour from origin through the displayed places.
func (s *Session) OriginSelected(origin domain.GeoPoint) {
	s.post(originEvent{origin: origin})
}

// PhotoAttached reports a photo attached to set at index. It matches
// places.PhotoListener.
func (s *Session) PhotoAttached(set *places.ResultSet, index int) {
	s.post(photoEvent{set: set, index: index})
}

// Run processes events until ctx ends. Searches still in flight are
// cancelled and waited for before Run returns.
func (s *Session) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.doneOnce.Do(func() { close(s.done) })
		s.searches.Wait()
	}()

	for {
		select {
		case <-runCtx.Done():
			return ctx.Err()
		case ev := <-s.events:
			s.handle(runCtx, ev)
		}
	}
}

func (s *Session) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *Session) handle(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case locationEvent:
		s.startSearch(ctx, ev.center)
	case searchDoneEvent:
		s.searchDone(ev)
	case photoEvent:
		if ev.set != s.shown {
			s.log.Discarded("photo", "result set no longer shown")
			return
		}
		if place, ok := ev.set.Place(ev.index); ok {
			s.presenter.UpdatePlace(ev.index, place)
		}
	case originEvent:
		var snapshot []domain.PlaceRecord
		if s.shown != nil {
			snapshot = s.shown.Snapshot()
		}
		s.presenter.ShowRoute(s.planner.BuildTour(ev.origin, snapshot))
	}
}

func (s *Session) startSearch(ctx context.Context, center domain.GeoPoint) {
	s.searches.Add(1)
	go func() {
		defer s.searches.Done()
		set, err := s.searcher.Search(ctx, center)
		s.post(searchDoneEvent{center: center, set: set, err: err})
	}()
}

func (s *Session) searchDone(ev searchDoneEvent) {
	if errors.Is(ev.err, places.ErrSuperseded) {
		return
	}
	if ev.err != nil {
		s.log.Warn("search_failed", "center", ev.center.String(), "error", ev.err.Error())
		if reporter, ok := s.presenter.(FailureReporter); ok {
			reporter.SearchFailed(ev.center, ev.err)
		}
		return
	}
	if ev.set.Superseded() {
		return
	}
	s.shown = ev.set
	s.presenter.ShowPlaces(ev.set.Snapshot())
	s.presenter.ClearRoute()
}
