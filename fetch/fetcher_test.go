package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPFetcherHappyPath(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(string(body), "hello") {
		t.Errorf("body = %q", body)
	}
	if !strings.Contains(gotUA, "Mozilla") {
		t.Errorf("user agent not sent: %q", gotUA)
	}
}

func TestHTTPFetcherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for status 404")
	} else if !strings.Contains(err.Error(), "404") {
		t.Errorf("err = %v, want it to name the status", err)
	}
}

func TestHTTPFetcherEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for an empty body")
	}
}

func TestHTTPFetcherBotWall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>Checking your browser before accessing</html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected a bot wall error")
	}
	if !strings.Contains(err.Error(), "bot protection") {
		t.Errorf("err = %v, want a bot protection reason", err)
	}
}

func TestHTTPFetcherContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewHTTPFetcher(5 * time.Second)
	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
