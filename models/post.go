package models

import "time"

// Sentiment is the polarity label assigned to a post.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Post is a raw item returned by the social search API.
type Post struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
	RetweetCount int       `json:"retweet_count"`
}

// SentimentRecord is a classified post. Two records are duplicates only if
// every field matches.
type SentimentRecord struct {
	Text      string    `json:"text"`
	Time      time.Time `json:"time"`
	Sentiment Sentiment `json:"sentiment"`
}
