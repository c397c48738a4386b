package lastfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func tagsResponse(tags ...Tag) artistTagsResponse {
	var resp artistTagsResponse
	resp.TopTags.Tag = tags
	return resp
}

func newTestClient(serverURL string, httpClient *http.Client) *Client {
	return &Client{
		apiKey:      "test-api-key",
		httpClient:  httpClient,
		baseURL:     serverURL + "/",
		cache:       make(map[string][]Tag),
		retryDelays: []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond},
	}
}

func TestArtistTags(t *testing.T) {
	tests := []struct {
		name     string
		response any
		wantTags []Tag
		wantErr  error
	}{
		{
			name: "artist has tags",
			response: tagsResponse(
				Tag{Name: "k-pop", Count: 100, URL: "http://last.fm/tag/k-pop"},
				Tag{Name: "korean", Count: 80, URL: "http://last.fm/tag/korean"},
			),
			wantTags: []Tag{
				{Name: "k-pop", Count: 100},
				{Name: "korean", Count: 80},
			},
		},
		{
			name:     "no tags returns empty slice",
			response: tagsResponse(),
			wantTags: []Tag{},
		},
		{
			name:     "invalid API key",
			response: apiError{Error: 10, Message: "Invalid API key"},
			wantErr:  ErrInvalidAPIKey,
		},
		{
			name:     "unknown artist",
			response: apiError{Error: 6, Message: "The artist you supplied could not be found"},
			wantErr:  ErrArtistNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if method := r.URL.Query().Get("method"); method != "artist.getTopTags" {
					t.Errorf("unexpected method: %s", method)
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			client := newTestClient(server.URL, server.Client())
			tags, err := client.ArtistTags(context.Background(), "NewJeans")

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ArtistTags() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr == nil {
				if tags == nil {
					t.Fatal("ArtistTags() returned nil slice")
				}
				if len(tags) != len(tt.wantTags) {
					t.Fatalf("ArtistTags() got %d tags, want %d", len(tags), len(tt.wantTags))
				}
				for i, tag := range tags {
					if tag.Name != tt.wantTags[i].Name {
						t.Errorf("ArtistTags() tag[%d].Name = %s, want %s", i, tag.Name, tt.wantTags[i].Name)
					}
				}
			}
		})
	}
}

func TestArtistTags_Caching(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tagsResponse(Tag{Name: "rock", Count: 100}))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.Client())

	if _, err := client.ArtistTags(context.Background(), "Artist"); err != nil {
		t.Fatalf("first ArtistTags() error = %v", err)
	}
	// Cache keys ignore case.
	if _, err := client.ArtistTags(context.Background(), "ARTIST"); err != nil {
		t.Fatalf("second ArtistTags() error = %v", err)
	}

	if count := requestCount.Load(); count != 1 {
		t.Errorf("Expected 1 request, got %d", count)
	}
}

func TestArtistTags_RateLimitRetry(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		w.Header().Set("Content-Type", "application/json")

		if count < 3 {
			json.NewEncoder(w).Encode(apiError{Error: 29, Message: "Rate limit exceeded"})
			return
		}
		json.NewEncoder(w).Encode(tagsResponse(Tag{Name: "rock", Count: 100}))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.Client())

	tags, err := client.ArtistTags(context.Background(), "Artist")
	if err != nil {
		t.Fatalf("ArtistTags() error = %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "rock" {
		t.Errorf("ArtistTags() got unexpected tags: %v", tags)
	}
	if count := requestCount.Load(); count != 3 {
		t.Errorf("Expected 3 requests, got %d", count)
	}
}

func TestArtistTags_RateLimitExhausted(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(apiError{Error: 29, Message: "Rate limit exceeded"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.Client())

	_, err := client.ArtistTags(context.Background(), "Artist")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("ArtistTags() error = %v, want ErrRateLimited", err)
	}

	// 1 initial + 3 retries
	if count := requestCount.Load(); count != 4 {
		t.Errorf("Expected 4 requests, got %d", count)
	}
}

func TestTopTagNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tagsResponse(
			Tag{Name: "K-Pop"}, Tag{Name: "Korean"}, Tag{Name: "Dance"},
		))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.Client())

	names, err := client.TopTagNames(context.Background(), "IVE", 2)
	if err != nil {
		t.Fatalf("TopTagNames() error = %v", err)
	}
	want := []string{"k-pop", "korean"}
	if len(names) != len(want) {
		t.Fatalf("TopTagNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("TopTagNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(&Config{APIKey: "test-key"})

	if client.apiKey != "test-key" {
		t.Errorf("NewClient() apiKey = %s, want test-key", client.apiKey)
	}
	if client.httpClient == nil {
		t.Error("NewClient() httpClient is nil")
	}
	if client.cache == nil {
		t.Error("NewClient() cache is nil")
	}
	if client.baseURL != baseURL {
		t.Errorf("NewClient() baseURL = %s, want %s", client.baseURL, baseURL)
	}
	if len(client.retryDelays) != 3 {
		t.Errorf("NewClient() retryDelays = %v, want 3 delays", client.retryDelays)
	}
}
