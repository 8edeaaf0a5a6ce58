package review

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/pathakanu/memoflow/internal/model"
)

// SchemaName identifies the structured output requested from the service.
const SchemaName = "memo_review"

// Schema is the JSON schema the analysis service must answer with.
func Schema() map[string]any {
	stringArray := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary":         map[string]any{"type": "string"},
			"connections":     stringArray,
			"actionableItems": stringArray,
			"tags":            stringArray,
			"dimensions": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"mood": map[string]any{"type": "string"},
					"scores": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"work":   map[string]any{"type": "number"},
							"life":   map[string]any{"type": "number"},
							"growth": map[string]any{"type": "number"},
						},
						"required":             []string{"work", "life", "growth"},
						"additionalProperties": false,
					},
				},
				"required":             []string{"mood", "scores"},
				"additionalProperties": false,
			},
		},
		"required":             []string{"summary", "connections", "actionableItems", "tags", "dimensions"},
		"additionalProperties": false,
	}
}

// rawReview mirrors Schema with pointers so absent fields can be told apart
// from zero values.
type rawReview struct {
	Summary         *string        `json:"summary" validate:"required"`
	Connections     []string       `json:"connections" validate:"required"`
	ActionableItems []string       `json:"actionableItems" validate:"required"`
	Tags            []string       `json:"tags" validate:"required"`
	Dimensions      *rawDimensions `json:"dimensions" validate:"required"`
}

type rawDimensions struct {
	Mood   *string    `json:"mood" validate:"required"`
	Scores *rawScores `json:"scores" validate:"required"`
}

type rawScores struct {
	Work   *float64 `json:"work" validate:"required,gte=0,lte=100"`
	Life   *float64 `json:"life" validate:"required,gte=0,lte=100"`
	Growth *float64 `json:"growth" validate:"required,gte=0,lte=100"`
}

var validate = validator.New()

// parsePayload decodes body into a payload without the period fields.
// Any missing field or out-of-range score is an ErrMalformedResponse.
func parsePayload(body []byte) (model.ReviewPayload, error) {
	var raw rawReview
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.ReviewPayload{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := validate.Struct(raw); err != nil {
		return model.ReviewPayload{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return model.ReviewPayload{
		Summary:         *raw.Summary,
		Connections:     raw.Connections,
		ActionableItems: raw.ActionableItems,
		Tags:            raw.Tags,
		Dimensions: model.AnalysisDimensions{
			Mood: *raw.Dimensions.Mood,
			Scores: model.Scores{
				Work:   score(*raw.Dimensions.Scores.Work),
				Life:   score(*raw.Dimensions.Scores.Life),
				Growth: score(*raw.Dimensions.Scores.Growth),
			},
		},
	}, nil
}

func score(v float64) int {
	return int(math.Round(v))
}
