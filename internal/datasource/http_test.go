package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource_Rows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/kaspa_hashrate_api.csv", r.URL.Path)
		assert.Equal(t, "text/csv", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("Start,Open\n2024-01-01,1.5e17\n"))
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL+"/data/", 5*time.Second, quietLogger())
	rows, err := src.Rows(context.Background(), "kaspa_hashrate_api.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1.5e17", rows[0].Open)
}

func TestHTTPSource_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, 5*time.Second, quietLogger())
	_, err := src.Rows(context.Background(), "missing.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPSource_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, 5*time.Second, quietLogger())
	for i := 0; i < 8; i++ {
		_, err := src.Rows(context.Background(), "a.csv")
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	}

	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
	assert.Equal(t, Open, src.breaker.State())
	assert.ErrorIs(t, src.HealthCheck(context.Background()), ErrCircuitOpen)
}

func TestHTTPSource_CoalescesConcurrentFetches(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		_, _ = w.Write([]byte("Start,Open\n2024-01-01,1\n"))
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, 5*time.Second, quietLogger())

	const callers = 5
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rows, err := src.Rows(context.Background(), "shared.csv")
			if assert.NoError(t, err) {
				results[i] = len(rows)
			}
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	for _, n := range results {
		assert.Equal(t, 1, n)
	}
}

func TestHTTPSource_SharedFetchSurvivesCallerCancellation(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		_, _ = w.Write([]byte("Start,Open\n2024-01-01,1\n2024-01-02,2\n"))
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, 5*time.Second, quietLogger())

	staleCtx, cancelStale := context.WithCancel(context.Background())
	staleErr := make(chan error, 1)
	go func() {
		_, err := src.Rows(staleCtx, "a.csv")
		staleErr <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, 5*time.Millisecond)

	type outcome struct {
		rows []models.RawRow
		err  error
	}
	const callers = 2
	results := make(chan outcome, callers)
	for i := 0; i < callers; i++ {
		go func() {
			rows, err := src.Rows(context.Background(), "a.csv")
			results <- outcome{rows, err}
		}()
	}
	time.Sleep(50 * time.Millisecond)

	cancelStale()
	select {
	case err := <-staleErr:
		assert.ErrorIs(t, err, ErrSourceUnavailable)
		assert.Contains(t, err.Error(), context.Canceled.Error())
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	first, second := <-results, <-results
	require.NoError(t, first.err)
	require.NoError(t, second.err)
	require.Len(t, first.rows, 2)
	require.Len(t, second.rows, 2)

	first.rows[0].Open = "mutated"
	assert.Equal(t, "1", second.rows[0].Open)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, Closed, src.breaker.State())
}
