package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/pathakanu/memoflow/internal/review"
)

const systemPrompt = "You review a person's short personal notes and answer only with JSON matching the provided schema."

// Client wraps the OpenAI SDK as a structured-output analysis service.
type Client struct {
	client  *openai.Client
	model   openai.ChatModel
	timeout time.Duration
}

// New returns a Client. Without apiKey the client reports itself as not
// configured and never reaches the network.
func New(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) *Client {
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	if apiKey == "" {
		return &Client{model: openai.ChatModel(model), timeout: timeout}
	}
	// One request per review: the SDK's automatic retries are disabled.
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := openai.NewClient(opts...)
	return &Client{
		client:  &client,
		model:   openai.ChatModel(model),
		timeout: timeout,
	}
}

// Configured reports whether an API key was supplied.
func (c *Client) Configured() bool {
	return c != nil && c.client != nil
}

// Analyze sends one chat completion constrained to req.Schema and returns the
// message content.
func (c *Client) Analyze(ctx context.Context, req review.Request) (string, error) {
	if !c.Configured() {
		return "", review.ErrConfiguration
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(req.Prompt),
					},
				},
			},
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: req.Schema,
					Strict: openai.Bool(true),
				},
			},
		},
		Temperature: openai.Float(0.4),
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion received", review.ErrEmptyResponse)
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return "", fmt.Errorf("%w: model refused: %s", review.ErrEmptyResponse, msg.Refusal)
	}
	return strings.TrimSpace(msg.Content), nil
}
