package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gomera-scraper/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tableSelector = "div.tabla-evolucion-content"

func TestSession_StopWithoutStartIsNoop(t *testing.T) {
	s := NewSession(SessionOptions{})

	assert.False(t, s.Started())
	assert.Nil(t, s.Browser())
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
}

func TestSession_StartLaunchError(t *testing.T) {
	s := NewSession(SessionOptions{ChromeBin: "/nonexistent/chrome"})

	err := s.Start()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindLaunch))
	assert.False(t, s.Started())

	err = s.Start()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindLaunch))
	assert.False(t, s.Started())
	assert.Nil(t, s.launcher)
	assert.NoError(t, s.Stop())
}

// startedSession starts a browser, skipping the test when none is installed
func startedSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(SessionOptions{})
	if s.chromeBin() == "" {
		t.Skip("no Chrome or Chromium installed")
	}
	require.NoError(t, s.Start())
	t.Cleanup(func() { s.Stop() })
	return s
}

func TestSession_StartIsIdempotent(t *testing.T) {
	s := startedSession(t)
	browser := s.Browser()
	require.NotNil(t, browser)

	require.NoError(t, s.Start())
	assert.Same(t, browser, s.Browser())

	require.NoError(t, s.Stop())
	assert.False(t, s.Started())
	assert.NoError(t, s.Stop())
}

func TestRodFetcher_NavigationTimeout(t *testing.T) {
	s := startedSession(t)

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	rf := NewRodFetcher(s, 500*time.Millisecond)
	started := time.Now()
	_, err := rf.TableHTML(context.Background(), srv.URL+"/2024-02-01/1", tableSelector)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindExtractionTimeout), "got %v", err)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestRodFetcher_NotInitialized(t *testing.T) {
	rf := NewRodFetcher(NewSession(SessionOptions{}), time.Second)

	_, err := rf.TableHTML(context.Background(), "https://example.com/2024-02-01/1", tableSelector)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotInitialized))
}

func TestNewRodFetcher_DefaultTimeout(t *testing.T) {
	rf := NewRodFetcher(NewSession(SessionOptions{}), 0)
	assert.Equal(t, DefaultWaitTimeout, rf.timeout)
}

func TestCollyFetcher_TableHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><div class="tabla-evolucion-content"><table><tbody>`+
			`<tr><th>Hora</th><th>Demanda (MW)</th></tr>`+
			`<tr><td>2024-02-01 00:00</td><td>120.5</td></tr>`+
			`</tbody></table></div></body></html>`)
	}))
	defer srv.Close()

	html, err := NewCollyFetcher(5*time.Second).TableHTML(context.Background(), srv.URL+"/2024-02-01/1", tableSelector)
	require.NoError(t, err)
	assert.Contains(t, html, `class="tabla-evolucion-content"`)
	assert.Contains(t, html, "120.5")
}

func TestCollyFetcher_MissingContainer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><div id="app"></div></body></html>`)
	}))
	defer srv.Close()

	_, err := NewCollyFetcher(5*time.Second).TableHTML(context.Background(), srv.URL, tableSelector)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindExtractionTimeout))
}

func TestCollyFetcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewCollyFetcher(5*time.Second).TableHTML(context.Background(), srv.URL, tableSelector)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindExtraction))
}
