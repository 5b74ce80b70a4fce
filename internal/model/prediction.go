package model

// PredictionPoint is one forecast step. Day is 1-based.
type PredictionPoint struct {
	Day            int     `json:"day"`
	PredictedPrice float64 `json:"predictedPrice"`
	Confidence     float64 `json:"confidence"`
}

// Sentiment is a classified short-term price change.
type Sentiment struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
	Color string  `json:"color"`
	Class string  `json:"sentiment"`
}

// MarketSentiment bundles the predictor's summaries.
type MarketSentiment struct {
	Sentiment  Sentiment `json:"sentiment"`
	Momentum   float64   `json:"momentum"`
	Volatility float64   `json:"volatility"`
}
