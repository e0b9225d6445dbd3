package scraper

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// MockSource is a mock implementation of Source
type MockSource struct {
	mock.Mock
}

func (m *MockSource) GetName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSource) IsEnabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockSource) FetchMentions(ctx context.Context, query string) ([]models.MentionDraft, error) {
	args := m.Called(ctx, query)
	drafts, _ := args.Get(0).([]models.MentionDraft)
	return drafts, args.Error(1)
}

func TestTemplateSource_FetchMentions(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	source := NewTemplateSource(rng.Float64, clock)

	drafts, err := source.FetchMentions(context.Background(), "Acme Corp")
	require.NoError(t, err)
	require.Len(t, drafts, 4)

	windows := map[string]time.Duration{
		"Google Reviews":  7 * 24 * time.Hour,
		"Reclame Aqui":    5 * 24 * time.Hour,
		"Trustpilot":      3 * 24 * time.Hour,
		"Specialist Blog": 2 * 24 * time.Hour,
	}

	for _, d := range drafts {
		window, ok := windows[d.Source]
		require.True(t, ok, "Unexpected source %s", d.Source)

		assert.Contains(t, d.Content, "Acme Corp")
		assert.Contains(t, d.SourceURL, "Acme+Corp")
		assert.NotEmpty(t, d.Author)
		assert.False(t, d.PublishedAt.After(fixedNow), "publishedAt must not be in the future")
		assert.False(t, d.PublishedAt.Before(fixedNow.Add(-window)), "publishedAt must fall inside the %s window", window)
	}

	t.Run("Blank query", func(t *testing.T) {
		drafts, err := source.FetchMentions(context.Background(), "   ")
		require.NoError(t, err)
		assert.Empty(t, drafts)
	})
}

func TestCorpusSource_FetchMentions(t *testing.T) {
	source, err := NewCorpusSource(nil, clock)
	require.NoError(t, err)
	assert.True(t, source.IsEnabled())

	tests := []struct {
		name     string
		query    string
		expected int
	}{
		{"Case-insensitive match", "PRODUCT", 3},
		{"Single match", "technical support", 1},
		{"No match", "zeppelin", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts, err := source.FetchMentions(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Len(t, drafts, tt.expected)
			for _, d := range drafts {
				assert.Contains(t, strings.ToLower(d.Content), strings.ToLower(tt.query))
				assert.True(t, d.PublishedAt.Before(fixedNow))
			}
		})
	}

	t.Run("Invalid corpus", func(t *testing.T) {
		_, err := NewCorpusSource([]byte("mentions: [unterminated"), clock)
		assert.Error(t, err)
	})

	t.Run("Custom corpus", func(t *testing.T) {
		custom, err := NewCorpusSource([]byte(`
mentions:
  - content: "Acme shipped fast"
    source: Blog
    hoursAgo: 1.5
`), clock)
		require.NoError(t, err)

		drafts, err := custom.FetchMentions(context.Background(), "acme")
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, "Blog", drafts[0].Source)
		assert.Equal(t, fixedNow.Add(-90*time.Minute), drafts[0].PublishedAt)
	})
}

func TestSynthesizer_Synthesize(t *testing.T) {
	t.Run("Default sources", func(t *testing.T) {
		s, err := NewSynthesizer(WithRand(rand.New(rand.NewSource(1))), WithClock(clock))
		require.NoError(t, err)

		drafts := s.Synthesize(context.Background(), "product")
		// four templates plus three corpus entries mentioning "product"
		assert.Len(t, drafts, 7)
		for _, d := range drafts {
			assert.NotEmpty(t, d.Content)
			assert.NotEmpty(t, d.Source)
			assert.False(t, d.PublishedAt.IsZero())
		}
		assert.Equal(t, "Google Reviews", drafts[0].Source)
	})

	t.Run("Structure is stable across calls", func(t *testing.T) {
		s, err := NewSynthesizer()
		require.NoError(t, err)

		first := s.Synthesize(context.Background(), "Acme")
		second := s.Synthesize(context.Background(), "Acme")
		require.Len(t, first, 4)
		require.Len(t, second, 4)
		for i := range first {
			assert.Equal(t, first[i].Source, second[i].Source)
			assert.Equal(t, first[i].Content, second[i].Content)
		}
	})

	t.Run("Empty query", func(t *testing.T) {
		s, err := NewSynthesizer(WithSources())
		require.NoError(t, err)
		assert.Equal(t, []models.MentionDraft{}, s.Synthesize(context.Background(), " "))
	})

	t.Run("Failing and panicking sources yield partial results", func(t *testing.T) {
		good := new(MockSource)
		good.On("IsEnabled").Return(true)
		good.On("FetchMentions", mock.Anything, "acme").Return([]models.MentionDraft{
			{Content: "<b>Acme</b> rocks", Source: "Blog", Author: "<i>ann</i>", PublishedAt: fixedNow},
			{Content: "<script></script>", Source: "Blog", PublishedAt: fixedNow},
		}, nil)

		failing := new(MockSource)
		failing.On("GetName").Return("failing")
		failing.On("IsEnabled").Return(true)
		failing.On("FetchMentions", mock.Anything, "acme").Return(nil, errors.New("boom"))

		panicking := new(MockSource)
		panicking.On("GetName").Return("panicking")
		panicking.On("IsEnabled").Return(true)
		panicking.On("FetchMentions", mock.Anything, "acme").Panic("unexpected")

		disabled := new(MockSource)
		disabled.On("GetName").Return("disabled")
		disabled.On("IsEnabled").Return(false)

		s, err := NewSynthesizer(WithSources(failing, good, panicking, disabled))
		require.NoError(t, err)

		drafts := s.Synthesize(context.Background(), "acme")
		require.Len(t, drafts, 1)
		assert.Equal(t, "Acme rocks", drafts[0].Content)
		assert.Equal(t, "ann", drafts[0].Author)

		good.AssertExpectations(t)
		failing.AssertExpectations(t)
		disabled.AssertNotCalled(t, "FetchMentions", mock.Anything, mock.Anything)
	})
}
