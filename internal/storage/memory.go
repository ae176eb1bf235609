package storage

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/IshaanNene/InsightBot/internal/types"
)

// MemoryStore is an in-process ArticleStore for tests and dry runs.
type MemoryStore struct {
	mu       sync.RWMutex
	articles []*types.Article
	index    map[string]int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Exists(_ context.Context, url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[url]
	return ok, nil
}

func (s *MemoryStore) Get(_ context.Context, url string) (*types.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[url]
	if !ok {
		return nil, types.ErrNotFound
	}
	return s.articles[i].Clone(), nil
}

func (s *MemoryStore) InsertMany(_ context.Context, articles []*types.Article) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, a := range articles {
		if _, ok := s.index[a.URL]; ok {
			continue
		}
		s.index[a.URL] = len(s.articles)
		s.articles = append(s.articles, a.Clone())
		inserted++
	}
	return inserted, nil
}

func (s *MemoryStore) UpdateFields(_ context.Context, url string, fields map[string]any) error {
	if err := checkUpdate(s.Name(), url, fields); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[url]
	if !ok {
		return types.ErrNotFound
	}
	a := s.articles[i]
	for k, v := range fields {
		switch k {
		case "title":
			a.Title, _ = v.(string)
		case "body":
			a.Body, _ = v.(string)
		case "language":
			a.Language, _ = v.(string)
		case "sentiment":
			switch label := v.(type) {
			case types.Sentiment:
				a.Sentiment = label
			case string:
				a.Sentiment = types.Sentiment(label)
			}
		case "author":
			a.Author, _ = v.(string)
		case "category":
			a.Category, _ = v.(string)
		case "summary":
			a.Summary, _ = v.(string)
		case "word_count":
			a.WordCount, _ = v.(int)
		}
	}
	return nil
}

func (s *MemoryStore) FindBySource(_ context.Context, source string, limit int) ([]*types.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*types.Article{}
	for _, a := range s.articles {
		if a.Source != source {
			continue
		}
		out = append(out, a.Clone())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Latest(_ context.Context, source string, n int) ([]*types.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*types.Article{}
	for i := len(s.articles) - 1; i >= 0 && len(out) < n; i-- {
		if s.articles[i].Source == source {
			out = append(out, s.articles[i].Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) Sample(_ context.Context, n int) ([]*types.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*types.Article{}
	for _, i := range rand.Perm(len(s.articles)) {
		if len(out) >= n {
			break
		}
		out = append(out, s.articles[i].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.articles)), nil
}

func (s *MemoryStore) Distinct(_ context.Context, field string) ([]string, error) {
	if err := checkDistinct(s.Name(), field); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	out := []string{}
	for _, a := range s.articles {
		var v string
		switch field {
		case "source":
			v = a.Source
		case "language":
			v = a.Language
		case "sentiment":
			v = string(a.Sentiment)
		case "author":
			v = a.Author
		case "category":
			v = a.Category
		}
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Drop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = nil
	s.index = make(map[string]int)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
