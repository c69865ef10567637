// Package models holds the core data entities shared by every component:
// articles, user preferences, read records, cache envelopes, and metrics.
package models

import "time"

// Sentiment is the closed set of sentiment labels a summarizer may attach
// to an article.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Valid reports whether s is empty or one of the three known labels.
func (s Sentiment) Valid() bool {
	switch s {
	case "", SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	default:
		return false
	}
}

// Source identifies where an article came from. Name is used as a tag
// filter in search queries.
type Source struct {
	Name string `json:"name"`
}

// Article is a stable, content-addressed news item. Id is the hash of
// title||publishedAt and never changes once set. Vector length must match
// the index's configured dimension once non-empty.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Summary     string    `json:"summary"`
	Sentiment   Sentiment `json:"sentiment,omitempty"`
	Keywords    []string  `json:"keywords,omitempty"`
	Source      Source    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage,omitempty"`
	Author      string    `json:"author,omitempty"`
	Vector      []float32 `json:"vector,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SearchText returns the text SimilarityEngine should embed/query with:
// the joined keywords when present, else the title (spec.md §4.2 step 4).
func (a *Article) SearchText() string {
	if len(a.Keywords) > 0 {
		out := a.Keywords[0]
		for _, k := range a.Keywords[1:] {
			out += " " + k
		}
		return out
	}
	return a.Title
}

// UserPreferences is the per-user ordered topic list; earlier entries carry
// higher weight in personalization (spec.md §4.3 step 4).
type UserPreferences struct {
	UserID      string    `json:"userId"`
	Preferences []string  `json:"preferences"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
