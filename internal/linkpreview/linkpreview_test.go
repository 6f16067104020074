package linkpreview

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractFirstURL(t *testing.T) {
	got := ExtractFirstURL("check this out https://example.com/path and more text")
	if got != "https://example.com/path" {
		t.Fatalf("got %q", got)
	}
	if ExtractFirstURL("no links here") != "" {
		t.Fatalf("expected empty string for text with no URL")
	}
}

func TestFetchParsesOpenGraphTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<title>Fallback Title</title>
			<meta property="og:title" content="Cool Page">
			<meta property="og:description" content="A cool page about things">
			<meta property="og:image" content="https://example.com/img.png">
		</head><body>hello</body></html>`))
	}))
	defer srv.Close()

	p, err := Fetch(srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.Title != "Cool Page" {
		t.Fatalf("expected og:title to win over <title>, got %q", p.Title)
	}
	if p.Desc != "A cool page about things" {
		t.Fatalf("unexpected desc %q", p.Desc)
	}
	if p.Image != "https://example.com/img.png" {
		t.Fatalf("unexpected image %q", p.Image)
	}
}

func TestFetchNonHTMLReturnsBareURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p, err := Fetch(srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.Title != "" || p.URL != srv.URL {
		t.Fatalf("expected bare preview for non-HTML content, got %+v", p)
	}
}
