package suggest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinefinder/cinefinder-server/internal/domain"
)

type fakeCatalog struct {
	calls   atomic.Int32
	queries chan string
	err     error
}

func (c *fakeCatalog) SearchMovies(_ context.Context, q string) ([]domain.Movie, error) {
	c.calls.Add(1)
	if c.queries != nil {
		c.queries <- q
	}
	if c.err != nil {
		return nil, c.err
	}
	movies := make([]domain.Movie, 8)
	for i := range movies {
		movies[i] = domain.Movie{ID: i + 1, Title: q + " " + strconv.Itoa(i+1)}
	}
	return movies, nil
}

type published struct {
	userID string
	query  string
	movies []domain.Movie
}

type fakePublisher struct{ ch chan published }

func (p *fakePublisher) PublishSuggestions(userID, query string, movies []domain.Movie) {
	p.ch <- published{userID, query, movies}
}

func TestDebouncer_FiresLastInputOnce(t *testing.T) {
	var (
		mu    sync.Mutex
		fired []string
	)
	d := NewDebouncer(30*time.Millisecond, func(s string) {
		mu.Lock()
		defer mu.Unlock()
		fired = append(fired, s)
	})

	for _, s := range []string{"m", "ma", "mat", "matr"} {
		d.Trigger(s)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"matr"}, fired)
}

func TestDebouncer_Stop(t *testing.T) {
	var fired atomic.Bool
	d := NewDebouncer(20*time.Millisecond, func(string) { fired.Store(true) })

	d.Trigger("x")
	d.Stop()
	d.Trigger("y")

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestSuggester_Suggest(t *testing.T) {
	cat := &fakeCatalog{}
	s := NewSuggester(cat, &fakePublisher{}, nil)

	got := s.Suggest(context.Background(), "  the   matrix ")
	assert.Len(t, got, Limit)
	assert.Equal(t, "the matrix 1", got[0].Title)

	got = s.Suggest(context.Background(), "   ")
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, int32(1), cat.calls.Load())

	cat.err = errors.New("boom")
	got = s.Suggest(context.Background(), "matrix")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSuggester_InputIsDebouncedPerUser(t *testing.T) {
	cat := &fakeCatalog{queries: make(chan string, 10)}
	pub := &fakePublisher{ch: make(chan published, 10)}
	s := NewSuggester(cat, pub, nil)
	s.delay = 20 * time.Millisecond
	defer s.Close()

	s.Input("uA", "ma")
	s.Input("uB", "am")
	s.Input("uA", "mat")

	got := map[string]published{}
	for range 2 {
		select {
		case p := <-pub.ch:
			got[p.userID] = p
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for suggestions")
		}
	}

	assert.Equal(t, "mat", got["uA"].query)
	assert.Len(t, got["uA"].movies, Limit)
	assert.Equal(t, "am", got["uB"].query)
	assert.Equal(t, int32(2), cat.calls.Load())
}

func TestSuggester_ForgetOnSignOut(t *testing.T) {
	cat := &fakeCatalog{}
	pub := &fakePublisher{ch: make(chan published, 1)}
	s := NewSuggester(cat, pub, nil)
	s.delay = 20 * time.Millisecond
	defer s.Close()

	s.Input("uA", "matrix")
	s.SessionChanged(domain.SessionEvent{Type: domain.SessionSignedOut, Session: domain.Session{UserID: "uA"}})

	select {
	case <-pub.ch:
		t.Fatal("suggestions published after sign-out")
	case <-time.After(60 * time.Millisecond):
	}
	assert.Zero(t, cat.calls.Load())
}

func TestSuggester_InputAfterClose(t *testing.T) {
	s := NewSuggester(&fakeCatalog{}, &fakePublisher{}, nil)
	s.Close()
	s.Input("uA", "matrix")
	assert.Empty(t, s.debouncers)
}
