package geocoder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-scraper/internal/models"
)

func testOptions(url string) Options {
	return Options{
		BaseURL:    url,
		UserAgent:  "school-scraper-test",
		Email:      "ops@example.com",
		Timeout:    time.Second,
		MaxRetries: 2,
		ErrorWait:  time.Millisecond,
	}
}

func TestClient_Geocode(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expected    models.Coordinates
		expectError error
		anyError    bool
	}{
		{
			name:     "found",
			status:   http.StatusOK,
			body:     `[{"lat":"33.6846","lon":"-117.8265","display_name":"Irvine"}]`,
			expected: models.Coordinates{Latitude: 33.6846, Longitude: -117.8265},
		},
		{
			name:        "no result",
			status:      http.StatusOK,
			body:        `[]`,
			expectError: ErrNoResult,
		},
		{
			name:     "malformed body",
			status:   http.StatusOK,
			body:     `{"oops"`,
			anyError: true,
		},
		{
			name:     "bad coordinates",
			status:   http.StatusOK,
			body:     `[{"lat":"north","lon":"-117.8"}]`,
			anyError: true,
		},
		{
			name:     "client error is not retried",
			status:   http.StatusForbidden,
			body:     `blocked`,
			anyError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				assert.Equal(t, "/search", r.URL.Path)
				assert.Equal(t, "json", r.URL.Query().Get("format"))
				assert.Equal(t, "1", r.URL.Query().Get("limit"))
				assert.Equal(t, "4515 Portola Pkwy, Irvine", r.URL.Query().Get("q"))
				assert.Equal(t, "school-scraper-test", r.Header.Get("User-Agent"))
				assert.Equal(t, "ops@example.com", r.Header.Get("From"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			coords, err := NewClient(testOptions(srv.URL)).Geocode(context.Background(), "4515 Portola Pkwy, Irvine")

			switch {
			case tt.expectError != nil:
				assert.ErrorIs(t, err, tt.expectError)
			case tt.anyError:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expected, coords)
			}
			assert.EqualValues(t, 1, hits.Load())
		})
	}
}

func TestClient_RetriesAreBounded(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(testOptions(srv.URL)).Geocode(context.Background(), "1 Main St")
	assert.Error(t, err)
	assert.EqualValues(t, 3, hits.Load(), "one attempt plus two retries")
}

func TestClient_RetryRecovers(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"1.5","lon":"2.5"}]`))
	}))
	defer srv.Close()

	coords, err := NewClient(testOptions(srv.URL)).Geocode(context.Background(), "1 Main St")
	require.NoError(t, err)
	assert.Equal(t, models.Coordinates{Latitude: 1.5, Longitude: 2.5}, coords)
	assert.EqualValues(t, 2, hits.Load())
}

func TestClient_SerializesAndSpacesRequests(t *testing.T) {
	const delay = 30 * time.Millisecond

	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
		stamps   []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inFlight++
		maxSeen = max(maxSeen, inFlight)
		stamps = append(stamps, time.Now())
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)
		_, _ = w.Write([]byte(`[{"lat":"1","lon":"2"}]`))

		mu.Lock()
		inFlight--
		mu.Unlock()
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.MinDelay = delay
	client := NewClient(opts)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Geocode(context.Background(), "1 Main St")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	require.Len(t, stamps, 4)
	for i := 1; i < len(stamps); i++ {
		// allow for timer slack on the server side
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), delay-5*time.Millisecond)
	}
}

func TestClient_EmptyAddress(t *testing.T) {
	_, err := NewClient(testOptions("http://127.0.0.1:0")).Geocode(context.Background(), "  ")
	assert.Error(t, err)
}
