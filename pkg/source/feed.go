// Package source lists article links from RSS and Atom feeds.
package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Entry is one article link taken from a feed.
type Entry struct {
	Feed        string    `json:"feed"`
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Categories  []string  `json:"categories"`
	PublishedAt time.Time `json:"published_at"`
}

// Key identifies the entry across polls.
func (e Entry) Key() string {
	if e.GUID != "" {
		return e.Feed + ":" + e.GUID
	}
	return e.Feed + ":" + e.URL
}

// Feed is a named RSS/Atom feed.
type Feed struct {
	Name string
	URL  string

	client *http.Client
	parser *gofeed.Parser
	filter *Filter
	maxAge time.Duration
}

// NewFeed creates a feed reader. Entries older than maxAge are skipped
// (maxAge <= 0 keeps everything); a nil filter keeps every entry.
func NewFeed(name, url string, filter *Filter, maxAge time.Duration) *Feed {
	if name == "" {
		name = url
	}
	return &Feed{
		Name:   name,
		URL:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		filter: filter,
		maxAge: maxAge,
	}
}

// List fetches the feed and returns the entries that pass the filter, in
// feed order. Entries without a link are dropped.
func (f *Feed) List(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", f.Name, err)
	}
	req.Header.Set("User-Agent", "lens/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", f.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s status %d", f.Name, resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.Name, err)
	}

	now := time.Now().UTC()
	var entries []Entry
	for _, item := range parsed.Items {
		published := now
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			published = item.UpdatedParsed.UTC()
		}
		if f.maxAge > 0 && published.Before(now.Add(-f.maxAge)) {
			continue
		}

		desc := plainText(item.Description)
		if !f.filter.Matches(item.Title + " " + desc) {
			continue
		}

		link := item.Link
		if link == "" && len(item.Links) > 0 {
			link = item.Links[0]
		}
		if link == "" {
			continue
		}

		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}

		entries = append(entries, Entry{
			Feed:        f.Name,
			GUID:        item.GUID,
			Title:       item.Title,
			URL:         link,
			Description: truncate(desc, 500),
			Author:      author,
			Categories:  item.Categories,
			PublishedAt: published,
		})
	}

	return entries, nil
}

// plainText drops the markup many feeds put in descriptions.
func plainText(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

func (f *Feed) String() string { return f.Name }
