package clients

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/maastricht-university/dream-pipeline/emotion"
)

// transcriptionPrompt nudges whisper towards a literal transcript.
const transcriptionPrompt = "Extrait le texte de l'audio de la manière la plus factuelle possible"

// OpenAITranscriber calls an OpenAI-compatible /audio/transcriptions endpoint (Groq by default).
type OpenAITranscriber struct {
	client openai.Client
	model  string
}

func NewOpenAITranscriber(baseURL, apiKey, model string, opts ...option.RequestOption) *OpenAITranscriber {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)}, opts...)
	return &OpenAITranscriber{client: openai.NewClient(all...), model: model}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:        f,
		Model:       openai.AudioModel(t.model),
		Prompt:      openai.String(transcriptionPrompt),
		Temperature: openai.Float(0),
	}
	if language != "" {
		params.Language = openai.String(language)
	}

	tr, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return strings.TrimSpace(tr.Text), nil
}

// OpenAIClassifier asks an OpenAI-compatible chat model (Mistral by default) for raw
// per-emotion scores in JSON-object mode.
type OpenAIClassifier struct {
	client       openai.Client
	model        string
	instructions string
}

func NewOpenAIClassifier(baseURL, apiKey, model, instructions string, opts ...option.RequestOption) *OpenAIClassifier {
	if strings.TrimSpace(instructions) == "" {
		instructions = ComposeClassifierInstructions(DefaultClassifierHeader)
	}
	all := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)}, opts...)
	return &OpenAIClassifier{client: openai.NewClient(all...), model: model, instructions: instructions}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, transcript string) (emotion.Scores, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.instructions),
			openai.UserMessage(classifierUserMessage(transcript)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, fmt.Errorf("classification: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("classification: empty response")
	}

	var scores emotion.Scores
	if err := decodeModelJSON(resp.Choices[0].Message.Content, &scores); err != nil {
		return nil, fmt.Errorf("classification: decode scores: %w", err)
	}
	return scores, nil
}
