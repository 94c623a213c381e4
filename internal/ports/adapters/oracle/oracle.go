package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/vgrishin/shortreel/internal/ports"
	"github.com/vgrishin/shortreel/internal/types"
)

const (
	defaultModel   = "gpt-4.1-mini"
	requestTimeout = 90 * time.Second
)

const analyzeSystemPrompt = "You are an expert content analyst specializing in viral social media content and short-form video. " +
	"Analyze the given transcript segment for its potential as an engaging short clip. " +
	"Score engagement_score, emotion_score, viral_potential and quotability in [0,1], " +
	"list detected emotions and the keywords that make the content engaging, " +
	"and give a one-sentence reason. Favor strong emotional hooks, surprise, humor, " +
	"inspiration, debate-worthy topics, clear storytelling and quotable moments. " +
	"Output JSON only."

const metadataSystemPrompt = "You are an expert short-form video creator. " +
	"Generate upload metadata for a vertical clip: a catchy clickable title (50-60 characters), " +
	"an engaging description (100-200 words) with relevant hashtags, and 10-15 discoverability tags. " +
	"Output JSON only."

// Adapter talks to an OpenAI-compatible chat completion endpoint. All
// failures are wrapped as ScoreError; the scoring adapter absorbs them into
// its deterministic fallback, so nothing here is user-visible as an error.
type Adapter struct {
	client openai.Client
	model  string
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = defaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Adapter{client: openai.NewClient(opts...), model: model}
}

var _ ports.ScoringOracle = (*Adapter)(nil)
var _ ports.MetadataOracle = (*Adapter)(nil)

func (a *Adapter) AnalyzeSegment(ctx context.Context, text string) (types.ScoreResult, error) {
	raw, err := a.complete(ctx, analyzeSystemPrompt,
		"Analyze this content segment for short-form clip potential:\n\n"+text,
		"segment_analysis", scoreResultSchema())
	if err != nil {
		return types.ScoreResult{}, &ports.ScoreError{Err: err}
	}
	res, err := parseScoreResult(raw)
	if err != nil {
		return types.ScoreResult{}, &ports.ScoreError{Err: err}
	}
	return res, nil
}

func (a *Adapter) GenerateMetadata(ctx context.Context, segmentText, originalTitle string) (types.MetadataResult, error) {
	prompt := fmt.Sprintf("Original video title: %s\n\nContent segment: %s\n\nGenerate optimized upload metadata for this clip.",
		originalTitle, segmentText)
	raw, err := a.complete(ctx, metadataSystemPrompt, prompt, "clip_metadata", metadataResultSchema())
	if err != nil {
		return types.MetadataResult{}, &ports.ScoreError{Err: err}
	}
	res, err := parseMetadataResult(raw)
	if err != nil {
		return types.MetadataResult{}, &ports.ScoreError{Err: err}
	}
	return res, nil
}

func (a *Adapter) complete(ctx context.Context, system, user, schemaName string, schema map[string]interface{}) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       a.model,
		Temperature: openai.Float(0.2),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Strict: openai.Bool(true),
					Schema: schema,
				},
			},
		},
	}
	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil && shouldFallbackJSONMode(err) {
		// Some gateways support only json_object; the parsers below still
		// validate field by field.
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		}
		resp, err = a.client.Chat.Completions.New(ctx, params)
	}
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if raw == "" {
		return "", errors.New("empty completion content")
	}
	return raw, nil
}

func shouldFallbackJSONMode(err error) bool {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "json_schema") || strings.Contains(msg, "response_format") {
		return true
	}
	return strings.Contains(msg, "unsupported") && strings.Contains(msg, "schema")
}

func scoreResultSchema() map[string]interface{} {
	num := map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1}
	strArr := map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}}
	return map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"engagement_score", "emotion_score", "viral_potential", "quotability", "emotions", "keywords", "reason"},
		"properties": map[string]interface{}{
			"engagement_score": num,
			"emotion_score":    num,
			"viral_potential":  num,
			"quotability":      num,
			"emotions":         strArr,
			"keywords":         strArr,
			"reason":           map[string]interface{}{"type": "string"},
		},
	}
}

func metadataResultSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"title", "description", "tags"},
		"properties": map[string]interface{}{
			"title":       map[string]interface{}{"type": "string"},
			"description": map[string]interface{}{"type": "string"},
			"tags":        map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		},
	}
}
