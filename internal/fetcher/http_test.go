package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bench-cli-test/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("model,score\ngpt-4,88.0\n"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{UserAgent: "bench-cli-test/1.0"})
	body, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gpt-4")
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{MaxRetries: 3})
	body, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPFetcher_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{})
	_, err := f.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestHTTPFetcher_SaveSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>leaderboard</html>"))
	}))
	defer srv.Close()

	rawDir := t.TempDir()
	f := NewHTTPFetcher(HTTPOptions{RawDir: rawDir})

	path, err := f.SaveSnapshot(context.Background(), srv.URL+"/leaderboard", "swebench_official")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "swebench_official_"))
	assert.True(t, strings.HasSuffix(path, ".html"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "leaderboard")
}

func TestExtFor(t *testing.T) {
	assert.Equal(t, "csv", extFor("https://epoch.ai/data/swe_bench.csv"))
	assert.Equal(t, "xlsx", extFor("https://example.com/report.xlsx?v=2"))
	assert.Equal(t, "html", extFor("https://www.swebench.com/"))
	assert.Equal(t, "html", extFor("https://example.com/page.php"))
}
