package assessment

import (
	"context"
	"encoding/json"
	"log/slog"

	apperrors "pillarscan/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const anthropicVersion = "bedrock-2023-05-31"

// ModelClient is the prompt-in/text-out boundary to the language model.
type ModelClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type invokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient implements ModelClient against the Bedrock runtime using the
// Anthropic messages body format.
type BedrockClient struct {
	api       invokeAPI
	modelID   string
	maxTokens int32
	logger    *slog.Logger
}

func NewBedrockClient(cfg aws.Config, modelID string, maxTokens int32, log *slog.Logger) *BedrockClient {
	return &BedrockClient{
		api:       bedrockruntime.NewFromConfig(cfg),
		modelID:   modelID,
		maxTokens: maxTokens,
		logger:    log,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int32              `json:"max_tokens"`
	Messages         []anthropicMessage `json:"messages"`
	System           string             `json:"system"`
	Temperature      float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *BedrockClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        c.maxTokens,
		Messages:         []anthropicMessage{{Role: "user", Content: userPrompt}},
		System:           systemPrompt,
		Temperature:      0.7,
	})
	if err != nil {
		return "", apperrors.ErrModelError("failed to encode model request", err)
	}

	c.logger.Debug("calling external service",
		"service", "bedrock", "operation", "InvokeModel", "model_id", c.modelID)

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", apperrors.ErrModelError("model invocation failed", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return "", apperrors.ErrModelError("failed to decode model response", err)
	}
	if len(parsed.Content) == 0 {
		return "", apperrors.ErrModelError("model returned empty content", nil)
	}
	return parsed.Content[0].Text, nil
}
