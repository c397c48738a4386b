package ranking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justestif/go-release-radar/internal/music"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func daysAgo(n int) time.Time { return testNow.Add(-time.Duration(n) * 24 * time.Hour) }

func release(id string, date time.Time, artists ...music.ArtistRef) music.Release {
	return music.Release{ID: id, Name: "Release " + id, ReleaseDate: date, Artists: artists}
}

func artist(id, name string) music.ArtistRef {
	return music.ArtistRef{ID: id, Name: name}
}

type fakeCatalog struct {
	mu sync.Mutex

	search      *music.SearchResult
	searchErr   error
	byArtist    map[string][]music.Release
	artistErr   map[string]error
	newReleases []music.Release
	newErr      error
	artists     map[string]music.Artist

	searchCalls      atomic.Int32
	artistCalls      atomic.Int32
	newReleasesCalls atomic.Int32
	artistLookups    atomic.Int32
	lastMarket       string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		byArtist:  map[string][]music.Release{},
		artistErr: map[string]error{},
		artists:   map[string]music.Artist{},
	}
}

func (f *fakeCatalog) Search(ctx context.Context, query, market string, limit int) (*music.SearchResult, error) {
	f.searchCalls.Add(1)
	f.mu.Lock()
	f.lastMarket = market
	f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.search == nil {
		return &music.SearchResult{}, nil
	}
	return f.search, nil
}

func (f *fakeCatalog) ArtistReleases(ctx context.Context, id string, limit int) ([]music.Release, error) {
	f.artistCalls.Add(1)
	if err, ok := f.artistErr[id]; ok {
		return nil, err
	}
	return f.byArtist[id], nil
}

func (f *fakeCatalog) NewReleases(ctx context.Context, limit int) ([]music.Release, error) {
	f.newReleasesCalls.Add(1)
	if f.newErr != nil {
		return nil, f.newErr
	}
	return f.newReleases, nil
}

// Artist serves entries from artists and fails for any other id.
func (f *fakeCatalog) Artist(ctx context.Context, id string) (music.Artist, error) {
	f.artistLookups.Add(1)
	if a, ok := f.artists[id]; ok {
		return a, nil
	}
	return music.Artist{}, fmt.Errorf("artist %s: upstream 502", id)
}

func (f *fakeCatalog) Artists(ctx context.Context, ids []string) ([]music.Artist, error) {
	return nil, errors.New("not used")
}

type fakeTokens struct {
	err   error
	calls atomic.Int32
}

func (f *fakeTokens) Token(ctx context.Context) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return "token", nil
}

// fakeGenres maps artist id to genres. Unknown ids get no genres.
type fakeGenres struct {
	genres map[string][]string
	calls  atomic.Int32
}

func (f *fakeGenres) ArtistGenres(ctx context.Context, a music.ArtistRef) []string {
	f.calls.Add(1)
	if g, ok := f.genres[a.ID]; ok {
		return g
	}
	return []string{}
}

type fakeImages struct {
	images map[string]string
	mu     sync.Mutex
	asked  [][]string
}

func (f *fakeImages) GetMany(ctx context.Context, ids []string) map[string]string {
	f.mu.Lock()
	f.asked = append(f.asked, ids)
	f.mu.Unlock()
	out := map[string]string{}
	for _, id := range ids {
		if url, ok := f.images[id]; ok {
			out[id] = url
		}
	}
	return out
}
