package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// generateRequest is one call to the language model.
type generateRequest struct {
	Model       string
	Temperature float32
	JSON        bool
	System      string
	History     []*genai.Content
	Parts       []genai.Part
}

// AIRouter sends extraction, drafting and transcription prompts to Gemini models.
type AIRouter struct {
	client   *genai.Client
	generate func(ctx context.Context, req generateRequest) (string, error)
	training TrainingSource
}

// TrainingSource provides accepted narratives used as few-shot examples.
type TrainingSource interface {
	ListTrainingExamples(ctx context.Context, caso string, limit int) ([]model.TrainingExample, error)
}

// NewAIRouter creates an AIRouter with the Gemini API key from Secret Manager or the environment.
// training may be nil, which drafts without examples.
func NewAIRouter(ctx context.Context, training TrainingSource) (*AIRouter, error) {
	apiKey, err := LoadSecret(ctx, config.SecretGeminiAPIKey)
	if err != nil {
		return nil, model.Kind(model.ErrLLM, fmt.Errorf("failed to get API key: %w", err))
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, model.Kind(model.ErrLLM, fmt.Errorf("failed to create genai client: %w", err))
	}

	r := &AIRouter{client: client, training: training}
	r.generate = r.callGemini
	return r, nil
}

// callGemini runs one request and returns the concatenated text of the first candidate.
func (r *AIRouter) callGemini(ctx context.Context, req generateRequest) (string, error) {
	genModel := r.client.GenerativeModel(req.Model)
	genModel.SetTemperature(req.Temperature)
	if req.JSON {
		genModel.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if req.System != "" {
		genModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	var (
		resp *genai.GenerateContentResponse
		err  error
	)
	if len(req.History) > 0 {
		chat := genModel.StartChat()
		chat.History = req.History
		resp, err = chat.SendMessage(ctx, req.Parts...)
	} else {
		resp, err = genModel.GenerateContent(ctx, req.Parts...)
	}
	if err != nil {
		return "", model.Kind(model.ErrLLM, fmt.Errorf("gemini API call failed (%s): %w", req.Model, err))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", model.Kind(model.ErrLLM, fmt.Errorf("no response from gemini API"))
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	log.Printf("Gemini %s responded (%d chars)", req.Model, sb.Len())
	return sb.String(), nil
}

// Close releases the underlying client.
func (r *AIRouter) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
