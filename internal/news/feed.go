package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

// DefaultFeeds are the national-news RSS sources the refresh endpoint pulls.
var DefaultFeeds = map[string]string{
	"The Hindu":      "https://www.thehindu.com/news/national/feeder/default.rss",
	"Indian Express": "https://indianexpress.com/section/india/feed/",
	"PIB":            "https://pib.gov.in/RssMain.aspx?ModId=1&Lang=1&Regid=0",
}

type Article struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Summary   string    `json:"summary"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

type Fetcher struct {
	feeds      map[string]string
	maxPerFeed int
	httpClient *http.Client
}

func NewFetcher(feeds map[string]string, maxPerFeed int) *Fetcher {
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	if maxPerFeed <= 0 {
		maxPerFeed = 5
	}
	return &Fetcher{
		feeds:      feeds,
		maxPerFeed: maxPerFeed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchHeadlines pulls up to maxPerFeed articles from every configured feed,
// newest first. A feed that fails to fetch or parse is skipped, not fatal.
func (f *Fetcher) FetchHeadlines(ctx context.Context) []Article {
	var all []Article
	for source, url := range f.feeds {
		articles, err := f.fetchFeed(ctx, source, url)
		if err != nil {
			log.Printf("fetch feed %s failed: %v", source, err)
			continue
		}
		all = append(all, articles...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Published.After(all[j].Published)
	})
	return all
}

func (f *Fetcher) fetchFeed(ctx context.Context, source, url string) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request failed: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("feed response status %d", resp.StatusCode)
	}

	var doc rssDocument
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode feed failed: %w", err)
	}

	items := doc.Channel.Items
	if len(items) > f.maxPerFeed {
		items = items[:f.maxPerFeed]
	}

	articles := make([]Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, Article{
			Title:     CleanText(item.Title),
			Link:      strings.TrimSpace(item.Link),
			Summary:   CleanText(item.Description),
			Source:    source,
			Published: parsePubDate(item.PubDate),
		})
	}
	return articles, nil
}

// CleanText collapses runs of whitespace and trims the result.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func parsePubDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
