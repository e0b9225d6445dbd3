package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/sirupsen/logrus"
)

// Synthesizer fabricates mention drafts for a query from its sources
type Synthesizer struct {
	sources []Source
	rng     *rand.Rand
	rngMu   sync.Mutex
	now     func() time.Time
}

// Option customises a Synthesizer
type Option func(*Synthesizer)

// WithRand sets the random source used for publishedAt offsets
func WithRand(r *rand.Rand) Option {
	return func(s *Synthesizer) { s.rng = r }
}

// WithClock overrides the reference time of generated drafts
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// WithSources replaces the default template and corpus sources
func WithSources(sources ...Source) Option {
	return func(s *Synthesizer) { s.sources = sources }
}

// NewSynthesizer creates a synthesizer backed by the review templates and
// the embedded corpus unless WithSources is given
func NewSynthesizer(opts ...Option) (*Synthesizer, error) {
	s := &Synthesizer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sources == nil {
		corpus, err := NewCorpusSource(nil, s.now)
		if err != nil {
			return nil, err
		}
		s.sources = []Source{
			NewTemplateSource(s.random, s.now),
			corpus,
		}
	}
	return s, nil
}

func (s *Synthesizer) random() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

// Synthesize runs every enabled source concurrently and merges their drafts in
// source order. A failing source is logged and skipped, so the result may be
// partial or empty but never an error.
func (s *Synthesizer) Synthesize(ctx context.Context, query string) []models.MentionDraft {
	query = strings.TrimSpace(query)
	drafts := []models.MentionDraft{}
	if query == "" {
		return drafts
	}

	results := make([][]models.MentionDraft, len(s.sources))
	var wg sync.WaitGroup

	for i, source := range s.sources {
		if !source.IsEnabled() {
			logrus.Debugf("Skipping disabled source %s", source.GetName())
			continue
		}

		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()

			found, err := fetchSafely(ctx, src, query)
			if err != nil {
				logrus.Errorf("Error generating mentions from %s: %v", src.GetName(), err)
			}
			results[i] = found
		}(i, source)
	}
	wg.Wait()

	for _, found := range results {
		for _, d := range found {
			d.Content = models.SanitizeText(d.Content)
			if d.Content == "" || d.Source == "" {
				continue
			}
			d.Author = models.SanitizeText(d.Author)
			drafts = append(drafts, d)
		}
	}

	logrus.Debugf("Synthesized %d mentions for query %q", len(drafts), query)
	return drafts
}

// fetchSafely converts a panicking source into an error
func fetchSafely(ctx context.Context, src Source, query string) (drafts []models.MentionDraft, err error) {
	defer func() {
		if r := recover(); r != nil {
			drafts, err = nil, fmt.Errorf("source panicked: %v", r)
		}
	}()
	return src.FetchMentions(ctx, query)
}
