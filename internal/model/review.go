package model

import "time"

// Scores rate how strongly a period relates to work, life and growth (0-100 each).
type Scores struct {
	Work   int `json:"work" yaml:"work"`
	Life   int `json:"life" yaml:"life"`
	Growth int `json:"growth" yaml:"growth"`
}

// AnalysisDimensions is the emotional and thematic breakdown of a review.
type AnalysisDimensions struct {
	Mood   string `json:"mood" yaml:"mood"`
	Scores Scores `json:"scores" yaml:"scores"`
}

// ReviewPayload is a generated review before identity is attached.
type ReviewPayload struct {
	PeriodStart     int64              `json:"periodStart" yaml:"periodStart"`
	PeriodEnd       int64              `json:"periodEnd" yaml:"periodEnd"`
	Frequency       ReviewFrequency    `json:"frequency" yaml:"frequency"`
	Summary         string             `json:"summary" yaml:"summary"`
	Connections     []string           `json:"connections" yaml:"connections"`
	ActionableItems []string           `json:"actionableItems" yaml:"actionableItems"`
	Tags            []string           `json:"tags" yaml:"tags"`
	Dimensions      AnalysisDimensions `json:"dimensions" yaml:"dimensions"`
}

// AIReviewResult is a persisted review. It is never mutated once stored.
type AIReviewResult struct {
	ID            string `json:"id" yaml:"id"`
	CreatedAt     int64  `json:"createdAt" yaml:"createdAt"`
	ReviewPayload `yaml:",inline"`
}

// NewReviewResult attaches identity and creation time to a payload.
func NewReviewResult(id string, createdAt time.Time, payload ReviewPayload) AIReviewResult {
	return AIReviewResult{
		ID:            id,
		CreatedAt:     createdAt.UnixMilli(),
		ReviewPayload: payload,
	}
}
