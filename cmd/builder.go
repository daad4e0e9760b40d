package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/maastricht-university/dream-pipeline/clients"
	cfg "github.com/maastricht-university/dream-pipeline/config"
	"github.com/maastricht-university/dream-pipeline/orchestrator"
	"github.com/maastricht-university/dream-pipeline/store"
)

const (
	collaboratorTimeout = 60 * time.Second
	transcriptCacheTTL  = 30 * time.Minute
)

// buildPipeline wires the collaborators from config. Without withLLM only the image
// generator is built, which is all Generate needs.
func buildPipeline(ctx context.Context, c *cfg.Root, withLLM bool) (*orchestrator.Pipeline, func() error, error) {
	styles, err := cfg.LoadStyles(c.Paths.Styles)
	if err != nil {
		return nil, nil, err
	}

	var (
		transcriber orchestrator.Transcriber
		classifier  orchestrator.Classifier
	)
	if withLLM {
		if transcriber, err = newTranscriber(c.Services.Transcription); err != nil {
			return nil, nil, err
		}
		if classifier, err = newClassifier(c.Services.Classification); err != nil {
			return nil, nil, err
		}
	}

	gen := c.Services.Generation
	generator := clients.NewImageGenerator(clients.NewBearerHTTP(ctx, gen.Timeout, gen.Token), gen.URL, gen.Timeout)

	options := []orchestrator.Option{
		orchestrator.WithStyles(styles),
		orchestrator.WithLogger(logger),
	}
	closer := func() error { return nil }
	if c.Paths.History != "" {
		h, err := store.Open(c.Paths.History)
		if err != nil {
			return nil, nil, err
		}
		options = append(options, orchestrator.WithHistory(h))
		closer = h.Close
	}

	return orchestrator.NewPipeline(c, transcriber, classifier, generator, options...), closer, nil
}

func newTranscriber(s cfg.Transcription) (orchestrator.Transcriber, error) {
	var t clients.Transcriber
	switch s.Backend {
	case cfg.BackendHTTP:
		t = clients.NewHTTPTranscriber(clients.NewHTTP(collaboratorTimeout), s.URL)
	default:
		if s.APIKey == "" {
			return nil, errors.New("missing GROQ_API_KEY (or services.transcription.api_key)")
		}
		t = clients.NewOpenAITranscriber(s.URL, s.APIKey, s.Model)
	}
	return clients.NewCachedTranscriber(t, transcriptCacheTTL), nil
}

func newClassifier(s cfg.Classification) (orchestrator.Classifier, error) {
	if s.Backend == cfg.BackendHTTP {
		return clients.NewHTTPClassifier(clients.NewHTTP(collaboratorTimeout), s.URL), nil
	}
	if s.APIKey == "" {
		return nil, errors.New("missing MISTRAL_API_KEY (or services.classification.api_key)")
	}

	header := clients.DefaultClassifierHeader
	if s.PromptFile != "" {
		h, err := clients.LoadClassifierHeader(s.PromptFile)
		if err != nil {
			return nil, err
		}
		header = h
	}
	return clients.NewOpenAIClassifier(s.URL, s.APIKey, s.Model, clients.ComposeClassifierInstructions(header)), nil
}
