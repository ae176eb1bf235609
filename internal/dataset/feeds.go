package dataset

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Feed is one news outlet and the RSS feeds or sitemaps harvested for it.
// A feed with no URLs is kept in the list but contributes nothing.
type Feed struct {
	Name string   `yaml:"name"`
	URLs []string `yaml:"urls"`
}

// LoadFeeds reads the feed list from a YAML file of the form
//
//	- name: BBC
//	  urls: [http://feeds.bbci.co.uk/news/rss.xml]
//
// An empty path returns DefaultFeeds.
func LoadFeeds(path string) ([]Feed, error) {
	if path == "" {
		return DefaultFeeds(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feeds file: %w", err)
	}

	var feeds []Feed
	if err := yaml.Unmarshal(data, &feeds); err != nil {
		return nil, fmt.Errorf("parsing feeds file %s: %w", path, err)
	}

	for i := range feeds {
		feeds[i].Name = strings.TrimSpace(feeds[i].Name)
		if feeds[i].Name == "" {
			return nil, fmt.Errorf("feeds file %s: entry %d has no name", path, i+1)
		}
		urls := feeds[i].URLs[:0]
		for _, u := range feeds[i].URLs {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		feeds[i].URLs = urls
	}
	return feeds, nil
}

// DefaultFeeds returns the built-in outlet list: English, Arabic and Russian
// language news. Outlets without a usable feed have no URLs.
func DefaultFeeds() []Feed {
	return []Feed{
		{Name: "CNN", URLs: []string{"http://rss.cnn.com/rss/cnn_topstories.rss"}},
		{Name: "BBC", URLs: []string{"http://feeds.bbci.co.uk/news/rss.xml"}},
		{Name: "New York Times", URLs: []string{"https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml"}},
		{Name: "The Guardian", URLs: []string{"https://www.theguardian.com/international/rss"}},
		{Name: "Reuters", URLs: []string{"https://www.reuters.com/rssFeed/topNews/"}},
		{Name: "Washington Post", URLs: []string{"https://feeds.washingtonpost.com/rss/rss_politics"}},
		{Name: "Forbes", URLs: []string{"https://www.forbes.com/real-time/feed2/"}},
		{Name: "TechCrunch", URLs: []string{"https://techcrunch.com/feed/"}},
		{Name: "The Next Web", URLs: []string{"https://thenextweb.com/feed/"}},
		{Name: "Medium", URLs: []string{"https://medium.com/feed/"}},
		{Name: "Dev.to", URLs: []string{"https://dev.to/feed"}},
		{Name: "Mashable", URLs: []string{"https://mashable.com/feed"}},
		{Name: "Wall Street Journal", URLs: []string{"https://feeds.a.dj.com/rss/RSSWorldNews.xml"}},
		{Name: "Wired", URLs: []string{"https://www.wired.com/feed/rss"}},
		{Name: "NPR", URLs: []string{"https://feeds.npr.org/1001/rss.xml"}},
		{Name: "Vox", URLs: []string{"https://www.vox.com/rss/index.xml"}},
		{Name: "Bloomberg", URLs: []string{"https://www.bloomberg.com/feed/podcast/onboard.xml"}},
		{Name: "Seeking Alpha", URLs: []string{"https://seekingalpha.com/feed.xml"}},
		{Name: "Engadget", URLs: []string{"https://www.engadget.com/rss.xml"}},
		{Name: "The Verge", URLs: []string{"https://www.theverge.com/rss/index.xml"}},
		{Name: "Financial Times", URLs: []string{"https://www.ft.com/rss/home"}},
		{Name: "Ars Technica", URLs: []string{"https://arstechnica.com/feed/"}},
		{Name: "CNET", URLs: []string{"https://www.cnet.com/rss/news/"}},
		{Name: "Slashdot", URLs: []string{"https://rss.slashdot.org/Slashdot/slashdotMain"}},
		{Name: "HuffPost", URLs: []string{"https://www.huffpost.com/section/front-page/feed"}},
		{Name: "Al Jazeera", URLs: []string{"https://www.aljazeera.net/xml/rss/all"}},
		{Name: "Sky News Arabia", URLs: []string{"https://www.skynewsarabia.com/sitemap.xml"}},
		{Name: "Al Arabiya", URLs: []string{"https://www.alarabiya.net/ar/rss"}},
		{Name: "Akhbaar24", URLs: []string{"https://www.akhbaar24.com/rss"}},
		{Name: "Middle East Online"},
		{Name: "The National", URLs: []string{"https://www.thenationalnews.com/uae/rss-feeds-1.536712"}},
		{Name: "Arabic CNN", URLs: []string{"https://arabic.cnn.com/sitemap.xml"}},
		{Name: "BBC Arabic", URLs: []string{"https://www.bbc.com/arabic/index.xml"}},
		{Name: "Masaar"},
		{Name: "9elp"},
		{Name: "RT", URLs: []string{"https://www.rt.com/rss/"}},
		{Name: "TASS", URLs: []string{"https://tass.com/rss/v2.xml"}},
		{Name: "RBC", URLs: []string{"https://rssexport.rbc.ru/rbcnews/news"}},
		{Name: "Meduza", URLs: []string{"https://meduza.io/rss/en"}},
		{Name: "Echo Moscow", URLs: []string{"https://echo.msk.ru/sitemap.xml"}},
	}
}
