package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/dream-pipeline/clients"
	cfg "github.com/maastricht-university/dream-pipeline/config"
	"github.com/maastricht-university/dream-pipeline/emotion"
)

// Pipeline holds no per-run state and is safe for concurrent use across output dirs.
type Pipeline struct {
	cfg         *cfg.Root
	transcriber Transcriber
	classifier  Classifier
	generator   ImageGenerator
	styles      *emotion.StyleTable
	history     RunRecorder
	log         logrus.FieldLogger
}

type Option func(*Pipeline)

func WithStyles(t *emotion.StyleTable) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.styles = t
		}
	}
}

// WithHistory records every Run. A nil recorder disables recording.
func WithHistory(r RunRecorder) Option {
	return func(p *Pipeline) { p.history = r }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

func NewPipeline(c *cfg.Root, t Transcriber, cl Classifier, g ImageGenerator, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:         c,
		transcriber: t,
		classifier:  cl,
		generator:   g,
		styles:      emotion.DefaultStyles(),
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate turns raw scores and a transcript into an image written to
// outputDir/ArtifactName. Score contract violations wrap emotion.ErrInvalidInput;
// image request and write failures are *GenerationError.
func (p *Pipeline) Generate(ctx context.Context, scores emotion.Scores, transcript, outputDir string) (Artifact, error) {
	rep := &Report{ID: uuid.NewString(), Transcript: transcript}
	err := p.generate(ctx, rep, scores, outputDir)
	return rep.Artifact, err
}

func (p *Pipeline) generate(ctx context.Context, rep *Report, scores emotion.Scores, outputDir string) error {
	dist, err := emotion.Normalize(scores)
	if err != nil {
		return err
	}
	rep.Distribution = dist.Map()
	rep.Dominant = emotion.Select(dist)
	rep.Style = p.styles.Resolve(rep.Dominant.Label)
	rep.Prompt = emotion.Compose(rep.Transcript, rep.Dominant.Label, rep.Dominant.Probability, rep.Style)

	log := p.log.WithFields(logrus.Fields{
		"run_id":      rep.ID,
		"emotion":     rep.Dominant.Label,
		"probability": fmt.Sprintf("%d%%", emotion.Percent(rep.Dominant.Probability)),
		"output_dir":  outputDir,
	})
	log.WithField("prompt", rep.Prompt.String()).Debug("prompt composed")

	img, err := p.generator.Generate(ctx, rep.Prompt)
	if err != nil {
		log.WithError(err).Warn("image generation failed")
		return &GenerationError{Stage: "request", Err: err}
	}

	path, err := writeArtifact(outputDir, img)
	if err != nil {
		log.WithError(err).Warn("artifact write failed")
		return &GenerationError{Stage: "write", Err: err}
	}
	rep.Artifact = Artifact{Path: path, Size: len(img)}
	log.WithField("path", path).Info("image generated")
	return nil
}

// Run transcribes audioPath, classifies the transcript and generates the image into
// outputDir. The returned Report is never nil and carries partial results on failure.
func (p *Pipeline) Run(ctx context.Context, audioPath, outputDir string) (*Report, error) {
	rep := &Report{ID: uuid.NewString(), AudioPath: audioPath}
	rep.Err = p.run(ctx, rep, outputDir)

	if p.history != nil {
		// a cancelled run is still recorded
		if err := p.history.Save(context.WithoutCancel(ctx), rep.record()); err != nil {
			p.log.WithError(err).WithField("run_id", rep.ID).Warn("history save failed")
		}
	}
	return rep, rep.Err
}

func (p *Pipeline) run(ctx context.Context, rep *Report, outputDir string) error {
	log := p.log.WithFields(logrus.Fields{"run_id": rep.ID, "audio": rep.AudioPath})

	info, err := clients.ProbeAudio(rep.AudioPath)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"format": info.Format, "bytes": info.Size, "duration": info.Duration}).Debug("audio probed")

	text, err := p.transcriber.Transcribe(ctx, rep.AudioPath, p.cfg.Pipeline.Language)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	rep.Transcript = text
	log.WithField("chars", len(text)).Info("transcribed")

	scores, err := p.classifier.Classify(ctx, text)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	log.WithField("labels", len(scores)).Debug("classified")

	return p.generate(ctx, rep, scores, outputDir)
}
