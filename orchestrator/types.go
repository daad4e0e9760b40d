package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/maastricht-university/dream-pipeline/clients"
	"github.com/maastricht-university/dream-pipeline/emotion"
	"github.com/maastricht-university/dream-pipeline/store"
)

type Transcriber = clients.Transcriber

type Classifier interface {
	Classify(ctx context.Context, transcript string) (emotion.Scores, error)
}

type ImageGenerator interface {
	Generate(ctx context.Context, prompt emotion.Prompt) ([]byte, error)
}

type RunRecorder interface {
	Save(ctx context.Context, r store.Run) error
}

// Artifact is the image written for one run.
type Artifact struct {
	Path string
	Size int
}

// Report collects what a full run produced, including partial results on failure.
type Report struct {
	ID           string
	AudioPath    string
	Transcript   string
	Distribution map[string]float64
	Dominant     emotion.Dominant
	Style        string
	Prompt       emotion.Prompt
	Artifact     Artifact
	Err          error
}

func (r *Report) record() store.Run {
	run := store.Run{
		ID:           r.ID,
		AudioPath:    r.AudioPath,
		Transcript:   r.Transcript,
		Emotion:      r.Dominant.Label,
		Probability:  r.Dominant.Probability,
		Style:        r.Style,
		Prompt:       r.Prompt.String(),
		ArtifactPath: r.Artifact.Path,
	}
	if r.Err != nil {
		run.Error = r.Err.Error()
	}
	return run
}

var ErrGeneration = errors.New("generation failed")

// GenerationError is an expected operational failure of the image step: request,
// response or write. It is never retried and renders as
// "generation failed: <stage>: <reason>".
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s: %v", ErrGeneration.Error(), e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// Describe renders the outcome of Generate as one line for the user.
func Describe(a Artifact, err error) string {
	if err != nil {
		return err.Error()
	}
	return "image generated: " + a.Path
}
