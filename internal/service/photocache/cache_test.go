package photocache

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mekedron/placetour/internal/domain"
	"github.com/mekedron/placetour/internal/logger"
)

type countingSource struct {
	calls   atomic.Int32
	started chan string
	release chan struct{}
	fail    atomic.Int32
}

func newCountingSource() *countingSource {
	return &countingSource{started: make(chan string, 16)}
}

func (s *countingSource) Photo(ctx context.Context, key string) (domain.Image, error) {
	s.calls.Add(1)
	s.started <- key
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return domain.Image{}, ctx.Err()
		}
	}
	if s.fail.Load() > 0 {
		s.fail.Add(-1)
		return domain.Image{}, errors.New("photo download failed")
	}
	return domain.Image{Data: []byte(key), ContentType: "image/png", Width: 10, Height: 5}, nil
}

func waitStarted(t *testing.T, source *countingSource) {
	t.Helper()
	select {
	case <-source.started:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for download to start")
	}
}

func TestFetchDownloadsOnceForConcurrentCallers(t *testing.T) {
	source := newCountingSource()
	source.release = make(chan struct{})
	cache := New(source)

	const callers = 12
	var wg sync.WaitGroup
	results := make([]*domain.Image, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Fetch(context.Background(), "ref-1")
		}(i)
	}

	waitStarted(t, source)
	close(source.release)
	wg.Wait()

	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one download, got %d", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error %v", i, errs[i])
		}
		if results[i] == nil || string(results[i].Data) != "ref-1" || results[i].Width != 10 {
			t.Fatalf("caller %d: unexpected image %+v", i, results[i])
		}
	}
	if cache.Len() != 1 {
		t.Fatalf("expected one cached entry, got %d", cache.Len())
	}
}

func TestFetchServesCachedImageWithoutDownload(t *testing.T) {
	source := newCountingSource()
	cache := New(source)

	first, err := cache.Fetch(context.Background(), "ref-1")
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	second, err := cache.Fetch(context.Background(), "ref-1")
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected one download, got %d", got)
	}
	if string(first.Data) != string(second.Data) {
		t.Fatalf("expected identical images, got %q and %q", first.Data, second.Data)
	}
}

func TestFetchFailureIsNotCached(t *testing.T) {
	source := newCountingSource()
	source.fail.Store(1)
	cache := New(source)

	img, err := cache.Fetch(context.Background(), "ref-1")
	if err == nil || img != nil {
		t.Fatalf("expected failure, got %+v / %v", img, err)
	}
	if _, ok := cache.Peek("ref-1"); ok {
		t.Fatal("expected failed download to leave cache empty")
	}

	img, err = cache.Fetch(context.Background(), "ref-1")
	if err != nil || img == nil {
		t.Fatalf("expected retry to succeed, got %+v / %v", img, err)
	}
	if got := source.calls.Load(); got != 2 {
		t.Fatalf("expected two downloads, got %d", got)
	}
}

func TestFetchDistinctKeysDownloadSeparately(t *testing.T) {
	source := newCountingSource()
	cache := New(source)
	for _, key := range []string{"a", "b", "a", "c", "b"} {
		if _, err := cache.Fetch(context.Background(), key); err != nil {
			t.Fatalf("fetch %s failed: %v", key, err)
		}
	}
	if got := source.calls.Load(); got != 3 {
		t.Fatalf("expected three downloads, got %d", got)
	}
}

func TestFetchWaiterCancellationDoesNotFailOthers(t *testing.T) {
	source := newCountingSource()
	source.release = make(chan struct{})
	cache := New(source)

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		_, err := cache.Fetch(ctx, "ref-1")
		cancelled <- err
	}()
	waitStarted(t, source)

	patient := make(chan *domain.Image, 1)
	go func() {
		img, _ := cache.Fetch(context.Background(), "ref-1")
		patient <- img
	}()

	cancel()
	select {
	case err := <-cancelled:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled waiter did not return")
	}

	close(source.release)
	select {
	case img := <-patient:
		if img == nil {
			t.Fatal("expected patient waiter to receive the image")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("patient waiter did not return")
	}
	if _, ok := cache.Peek("ref-1"); !ok {
		t.Fatal("expected image to be cached after the shared download finished")
	}
	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected one download, got %d", got)
	}
}

func TestFetchLogsCachedPayloadSize(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: "debug", Output: &buf})
	cache := New(SourceFunc(func(context.Context, string) (domain.Image, error) {
		return domain.Image{Data: []byte("jpeg-bytes")}, nil
	}), WithLogger(log))

	if _, err := cache.Fetch(context.Background(), "ref-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "photo_cached") || !strings.Contains(out, "photo_key=ref-1") || !strings.Contains(out, "bytes=10") {
		t.Fatalf("expected cache log line with key and size, got %q", out)
	}
}

func TestFetchFailureIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: "debug", Output: &buf})
	cache := New(SourceFunc(func(context.Context, string) (domain.Image, error) {
		return domain.Image{}, errors.New("boom")
	}), WithLogger(log))

	if _, err := cache.Fetch(context.Background(), "ref-1"); err == nil {
		t.Fatal("expected download error")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected the caller to report failures, got %q", buf.String())
	}
}
