// Package linkpreview fetches OpenGraph metadata for the first URL found in
// a chat message (SPEC_FULL supplement to §4.5 ChatMessage), so the server
// can emit a LinkPreviewBroadcast a moment after relaying the chat line
// itself. Adapted near-verbatim from the teacher's linkpreview.go.
package linkpreview

import (
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// FetchTimeout bounds how long the server will spend fetching a URL for
// preview metadata, so chat delivery is never delayed by it (the fetch
// always happens after the ChatMessage has already been broadcast).
const FetchTimeout = 4 * time.Second

// MaxBody caps how much of a page is read while looking for <head> tags.
const MaxBody = 256 * 1024

var urlPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// ExtractFirstURL returns the first http(s) URL found in text, or "".
func ExtractFirstURL(text string) string {
	return urlPattern.FindString(text)
}

// Preview holds OpenGraph metadata extracted from a web page.
type Preview struct {
	URL      string
	Title    string
	Desc     string
	Image    string
	SiteName string
}

// Fetch retrieves rawURL and extracts OpenGraph metadata. Callers run this
// in a goroutine (or hand it to the scheduler's immediate queue) so it never
// blocks the chat relay path.
func Fetch(rawURL string) (Preview, error) {
	client := &http.Client{
		Timeout: FetchTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return Preview{}, err
	}
	req.Header.Set("User-Agent", "ringhub-linkpreview/1.0")
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	if err != nil {
		return Preview{}, err
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "text/html") && !strings.Contains(ct, "application/xhtml") {
		return Preview{URL: rawURL}, nil
	}

	body := io.LimitReader(resp.Body, MaxBody)
	return parseOGTags(rawURL, body)
}

func parseOGTags(rawURL string, r io.Reader) (Preview, error) {
	p := Preview{URL: rawURL}
	tokenizer := html.NewTokenizer(r)
	var inTitle bool
	var titleText string

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if p.Title == "" && titleText != "" {
				p.Title = titleText
			}
			return p, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tag := string(tn)

			if tag == "title" {
				inTitle = true
				continue
			}
			if tag == "body" {
				if p.Title == "" && titleText != "" {
					p.Title = titleText
				}
				return p, nil
			}
			if tag == "meta" && hasAttr {
				parseMeta(tokenizer, &p)
			}

		case html.TextToken:
			if inTitle {
				titleText += string(tokenizer.Text())
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = false
			}
		}
	}
}

func parseMeta(tokenizer *html.Tokenizer, p *Preview) {
	var property, name, content string
	for {
		key, val, more := tokenizer.TagAttr()
		k, v := string(key), string(val)
		switch k {
		case "property":
			property = v
		case "name":
			name = v
		case "content":
			content = v
		}
		if !more {
			break
		}
	}

	if content == "" {
		return
	}

	switch property {
	case "og:title":
		p.Title = content
	case "og:description":
		p.Desc = content
	case "og:image":
		p.Image = content
	case "og:site_name":
		p.SiteName = content
	}

	if name == "description" && p.Desc == "" {
		p.Desc = content
	}
}
