// Package places runs nearby searches and keeps the current result set.
//
// Only one search is current at a time. Starting a search cancels the one in
// flight, and a result that arrives after a newer search started is dropped
// with ErrSuperseded. Photos are fetched in the background for every place
// that has a photo key and attached only while their result set is current.
package places

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mekedron/placetour/internal/domain"
	placesgateway "github.com/mekedron/placetour/internal/gateway/places"
	"github.com/mekedron/placetour/internal/logger"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxResults is the largest number of places kept from one search.
	MaxResults = 20

	defaultRadiusMeters     = 1000.0
	defaultPhotoConcurrency = 4
)

// NearbyAPI runs a nearby search against the places provider.
type NearbyAPI interface {
	NearbySearch(ctx context.Context, query placesgateway.NearbyQuery) (placesgateway.NearbyPage, error)
}

// PhotoFetcher returns the photo for a photo key.
type PhotoFetcher interface {
	Fetch(ctx context.Context, key string) (*domain.Image, error)
}

// PhotoListener is called after a photo was attached to set at index.
type PhotoListener func(set *ResultSet, index int)

// Fetcher searches for places and owns the current result set.
type Fetcher struct {
	api    NearbyAPI
	photos PhotoFetcher

	radius           float64
	rankBy           string
	language         string
	limit            int
	photoConcurrency int
	activity         ActivityReporter
	log              *logger.Logger
	onPhoto          PhotoListener

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	current    *ResultSet
	photoWork  sync.WaitGroup
}

// Option applies Fetcher options.
type Option func(*Fetcher)

// WithRadius sets the search radius in metres.
func WithRadius(meters float64) Option {
	return func(f *Fetcher) {
		if meters > 0 {
			f.radius = meters
		}
	}
}

// WithRankBy sets the provider ranking mode.
func WithRankBy(rankBy string) Option {
	return func(f *Fetcher) {
		f.rankBy = rankBy
	}
}

// WithLanguage sets the response language.
func WithLanguage(language string) Option {
	return func(f *Fetcher) {
		f.language = language
	}
}

// WithLimit caps the number of places kept per search. Values outside
// 1..MaxResults fall back to MaxResults.
func WithLimit(limit int) Option {
	return func(f *Fetcher) {
		if limit <= 0 || limit > MaxResults {
			limit = MaxResults
		}
		f.limit = limit
	}
}

// WithPhotoConcurrency bounds parallel photo fetches per result set.
func WithPhotoConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.photoConcurrency = n
		}
	}
}

// WithActivity sets the network activity reporter.
func WithActivity(activity ActivityReporter) Option {
	return func(f *Fetcher) {
		if activity != nil {
			f.activity = activity
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(log *logger.Logger) Option {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// WithPhotoListener registers a callback for attached photos. It runs on a
// background goroutine.
func WithPhotoListener(listener PhotoListener) Option {
	return func(f *Fetcher) {
		f.onPhoto = listener
	}
}

// NewFetcher creates a fetcher. photos may be nil to skip photo retrieval.
func NewFetcher(api NearbyAPI, photos PhotoFetcher, opts ...Option) *Fetcher {
	f := &Fetcher{
		api:              api,
		photos:           photos,
		radius:           defaultRadiusMeters,
		rankBy:           placesgateway.RankByProminence,
		limit:            MaxResults,
		photoConcurrency: defaultPhotoConcurrency,
		activity:         noopActivity{},
		log:              logger.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Search looks up places around center and makes them the current result set.
func (f *Fetcher) Search(ctx context.Context, center domain.GeoPoint) (*ResultSet, error) {
	searchCtx, generation := f.begin(ctx)
	defer f.finish(generation)

	f.activity.Begin()
	page, err := f.api.NearbySearch(searchCtx, placesgateway.NearbyQuery{
		Center:       center,
		RadiusMeters: f.radius,
		RankBy:       f.rankBy,
		Language:     f.language,
	})
	f.activity.End()

	if f.stale(generation) {
		f.log.Discarded("search", fmt.Sprintf("result near %s arrived after a newer search", center))
		return nil, ErrSuperseded
	}
	if err != nil {
		searchErr := &SearchError{Kind: KindTransport, Center: center, Err: err}
		if errors.Is(err, placesgateway.ErrMalformedResponse) {
			searchErr.Kind = KindParse
		}
		f.log.UpstreamError("nearby_search", searchErr)
		return nil, searchErr
	}

	records, dropped := parseBatch(page.Results, f.limit)
	for _, parseErr := range dropped {
		f.log.Discarded("place", parseErr.Error())
	}

	set := newResultSet(center, records)
	if !f.promote(generation, set) {
		set.cancel()
		f.log.Discarded("search", fmt.Sprintf("result near %s arrived after a newer search", center))
		return nil, ErrSuperseded
	}
	f.startPhotos(set)
	return set, nil
}

// Current returns the current result set, or nil before the first
// successful search.
func (f *Fetcher) Current() *ResultSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Wait blocks until background photo work of every result set has ended.
func (f *Fetcher) Wait() {
	f.photoWork.Wait()
}

func (f *Fetcher) begin(ctx context.Context) (context.Context, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
	}
	searchCtx, cancel := context.WithCancel(ctx)
	f.generation++
	f.cancel = cancel
	return searchCtx, f.generation
}

func (f *Fetcher) finish(generation uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generation == generation && f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Fetcher) stale(generation uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation != generation
}

// promote makes set current if no newer search started in the meantime.
func (f *Fetcher) promote(generation uint64, set *ResultSet) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generation != generation {
		return false
	}
	if f.current != nil {
		f.current.supersede()
	}
	f.current = set
	return true
}

func (f *Fetcher) startPhotos(set *ResultSet) {
	jobs := set.photoJobs()
	if f.photos == nil || len(jobs) == 0 {
		close(set.photosDone)
		return
	}

	f.photoWork.Add(1)
	go func() {
		defer f.photoWork.Done()
		defer close(set.photosDone)

		g, gctx := errgroup.WithContext(set.ctx)
		g.SetLimit(f.photoConcurrency)
		for _, job := range jobs {
			job := job
			g.Go(func() error {
				f.fetchPhoto(gctx, set, job)
				return nil
			})
		}
		_ = g.Wait()
	}()
}

func (f *Fetcher) fetchPhoto(ctx context.Context, set *ResultSet, job photoJob) {
	f.activity.Begin()
	img, err := f.photos.Fetch(ctx, job.key)
	f.activity.End()

	if err != nil {
		if ctx.Err() != nil {
			f.log.Discarded("photo", "result set superseded before download finished")
			return
		}
		f.log.With("photo_key", job.key, "place_index", job.index).UpstreamError("photo", err)
		return
	}
	if img == nil {
		return
	}
	if !set.attach(job.index, img) {
		f.log.Discarded("photo", "result set superseded")
		return
	}
	if f.onPhoto != nil {
		f.onPhoto(set, job.index)
	}
}
