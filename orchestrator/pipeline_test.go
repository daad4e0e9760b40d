package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/dream-pipeline/clients"
	cfg "github.com/maastricht-university/dream-pipeline/config"
	"github.com/maastricht-university/dream-pipeline/emotion"
	"github.com/maastricht-university/dream-pipeline/store"
)

type mockTranscriber struct {
	text string
	err  error
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	return m.text, m.err
}

type mockClassifier struct {
	scores emotion.Scores
	err    error
	got    string
}

func (m *mockClassifier) Classify(ctx context.Context, transcript string) (emotion.Scores, error) {
	m.got = transcript
	return m.scores, m.err
}

type mockGenerator struct {
	mu      sync.Mutex
	body    []byte
	err     error
	prompts []emotion.Prompt
}

func (m *mockGenerator) Generate(ctx context.Context, prompt emotion.Prompt) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return nil, m.err
	}
	return m.body, nil
}

type mockRecorder struct {
	mu   sync.Mutex
	runs []store.Run
	err  error
}

func (m *mockRecorder) Save(ctx context.Context, r store.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return m.err
}

func testConfig() *cfg.Root {
	c := &cfg.Root{}
	c.Pipeline.Language = "fr"
	c.Batch.Concurrency = 2
	return c
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func writeAudio(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPipeline_Generate(t *testing.T) {
	transcript := "J'ai rêvé que je volais au-dessus d'un magnifique lac cristallin."
	gen := &mockGenerator{body: []byte("png-bytes")}
	p := NewPipeline(testConfig(), nil, nil, gen, WithLogger(quietLogger()))
	outDir := filepath.Join(t.TempDir(), "generated_images")

	art, err := p.Generate(context.Background(), emotion.Scores{"heureux": 0.8, "anxieux": 0.1}, transcript, outDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPath := filepath.Join(outDir, ArtifactName)
	if art.Path != wantPath || art.Size != len("png-bytes") {
		t.Fatalf("unexpected artifact %+v", art)
	}
	got, err := os.ReadFile(wantPath)
	if err != nil || string(got) != "png-bytes" {
		t.Fatalf("artifact not written: %q %v", got, err)
	}
	if names := listDir(t, outDir); len(names) != 1 {
		t.Fatalf("expected only the artifact in %s, got %v", outDir, names)
	}

	if len(gen.prompts) != 1 {
		t.Fatalf("expected one generation call, got %d", len(gen.prompts))
	}
	prompt := gen.prompts[0].String()
	for _, part := range []string{"heureux", "100%", "style fantastique, couleurs pastel, lumière douce", transcript} {
		if !strings.Contains(prompt, part) {
			t.Errorf("prompt %q missing %q", prompt, part)
		}
	}
	if Describe(art, err) != "image generated: "+wantPath {
		t.Fatalf("unexpected description %q", Describe(art, err))
	}
}

func TestPipeline_Generate_Failure(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	gen := &mockGenerator{err: errors.New("imagegen 500 Internal Server Error: boom")}
	p := NewPipeline(testConfig(), nil, nil, gen, WithLogger(quietLogger()))

	art, err := p.Generate(context.Background(), emotion.Scores{"anxieux": 0.9}, "un couloir sans fin", outDir)
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Stage != "request" {
		t.Fatalf("expected request-stage GenerationError, got %#v", err)
	}
	if art != (Artifact{}) {
		t.Fatalf("expected empty artifact, got %+v", art)
	}
	if names := listDir(t, outDir); len(names) != 0 {
		t.Fatalf("expected no files after failure, got %v", names)
	}
	if msg := Describe(art, err); !strings.Contains(msg, "500") {
		t.Fatalf("description should carry the cause, got %q", msg)
	}
}

func TestPipeline_Generate_WriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	p := NewPipeline(testConfig(), nil, nil, &mockGenerator{body: []byte("img")}, WithLogger(quietLogger()))

	_, err := p.Generate(context.Background(), emotion.Scores{"neutre": 0.2}, "", blocker)
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Stage != "write" {
		t.Fatalf("expected write-stage GenerationError, got %v", err)
	}
}

func TestPipeline_Generate_InvalidScores(t *testing.T) {
	gen := &mockGenerator{body: []byte("img")}
	p := NewPipeline(testConfig(), nil, nil, gen, WithLogger(quietLogger()))

	_, err := p.Generate(context.Background(), emotion.Scores{}, "texte", t.TempDir())
	if !errors.Is(err, emotion.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if errors.Is(err, ErrGeneration) {
		t.Fatalf("invalid input must not be reported as a generation failure")
	}
	if len(gen.prompts) != 0 {
		t.Fatalf("generator must not be called on invalid input")
	}
}

func TestPipeline_Generate_Overwrites(t *testing.T) {
	outDir := t.TempDir()
	gen := &mockGenerator{body: []byte("deterministic")}
	p := NewPipeline(testConfig(), nil, nil, gen, WithLogger(quietLogger()))
	scores := emotion.Scores{"bizarre": 0.6, "neutre": 0.3}

	first, err := p.Generate(context.Background(), scores, "le frigo négociait", outDir)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b1, _ := os.ReadFile(first.Path)

	second, err := p.Generate(context.Background(), scores, "le frigo négociait", outDir)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	b2, _ := os.ReadFile(second.Path)

	if first.Path != second.Path || !bytes.Equal(b1, b2) {
		t.Fatalf("expected identical artifact at the same path")
	}
	if gen.prompts[0] != gen.prompts[1] {
		t.Fatalf("expected identical prompts, got %q and %q", gen.prompts[0], gen.prompts[1])
	}
	if names := listDir(t, outDir); len(names) != 1 {
		t.Fatalf("expected a single artifact, got %v", names)
	}

	gen.body = []byte("newer")
	if _, err := p.Generate(context.Background(), scores, "autre", outDir); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if b, _ := os.ReadFile(first.Path); string(b) != "newer" {
		t.Fatalf("expected overwrite, got %q", b)
	}
}

func TestPipeline_Generate_CustomStyles(t *testing.T) {
	gen := &mockGenerator{body: []byte("img")}
	styles := emotion.NewStyleTable(map[string]string{"joyeux": "aquarelle"}, "crayonné")
	p := NewPipeline(testConfig(), nil, nil, gen, WithStyles(styles), WithLogger(quietLogger()))

	if _, err := p.Generate(context.Background(), emotion.Scores{"inconnu": 1}, "x", t.TempDir()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.prompts[0].String(), "crayonné") {
		t.Fatalf("expected custom fallback in prompt %q", gen.prompts[0])
	}
}

func TestPipeline_Run(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudio(t, dir, "reve_heureux_01.wav")
	outDir := filepath.Join(dir, "out")

	tests := []struct {
		name        string
		transcriber *mockTranscriber
		classifier  *mockClassifier
		generator   *mockGenerator
		wantErr     bool
		wantGenErr  bool
		wantFile    bool
	}{
		{
			name:        "Happy Path",
			transcriber: &mockTranscriber{text: "des oiseaux colorés"},
			classifier:  &mockClassifier{scores: emotion.Scores{"heureux": 0.9, "neutre": 0.2}},
			generator:   &mockGenerator{body: []byte("img")},
			wantFile:    true,
		},
		{
			name:        "Transcription error",
			transcriber: &mockTranscriber{err: errors.New("groq down")},
			classifier:  &mockClassifier{},
			generator:   &mockGenerator{body: []byte("img")},
			wantErr:     true,
		},
		{
			name:        "Classification error",
			transcriber: &mockTranscriber{text: "texte"},
			classifier:  &mockClassifier{err: errors.New("mistral down")},
			generator:   &mockGenerator{body: []byte("img")},
			wantErr:     true,
		},
		{
			name:        "Generation error",
			transcriber: &mockTranscriber{text: "texte"},
			classifier:  &mockClassifier{scores: emotion.Scores{"anxieux": 0.5}},
			generator:   &mockGenerator{err: errors.New("timeout")},
			wantErr:     true,
			wantGenErr:  true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_ = os.RemoveAll(outDir)
			rec := &mockRecorder{}
			p := NewPipeline(testConfig(), tc.transcriber, tc.classifier, tc.generator,
				WithHistory(rec), WithLogger(quietLogger()))

			rep, err := p.Run(context.Background(), audio, outDir)
			if rep == nil {
				t.Fatalf("report must never be nil")
			}
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected err=%v, got %v", tc.wantErr, err)
			}
			if errors.Is(err, ErrGeneration) != tc.wantGenErr {
				t.Fatalf("expected generation error=%v, got %v", tc.wantGenErr, err)
			}
			if _, statErr := os.Stat(filepath.Join(outDir, ArtifactName)); (statErr == nil) != tc.wantFile {
				t.Fatalf("expected artifact present=%v", tc.wantFile)
			}

			if len(rec.runs) != 1 {
				t.Fatalf("expected one recorded run, got %d", len(rec.runs))
			}
			run := rec.runs[0]
			if run.ID != rep.ID || run.AudioPath != audio {
				t.Fatalf("unexpected recorded run %+v", run)
			}
			if (run.Error != "") != tc.wantErr {
				t.Fatalf("recorded error mismatch: %q", run.Error)
			}
			if tc.wantFile {
				if tc.classifier.got != "des oiseaux colorés" {
					t.Fatalf("classifier got %q", tc.classifier.got)
				}
				if run.Emotion != "heureux" || rep.Artifact.Path == "" || run.ArtifactPath != rep.Artifact.Path {
					t.Fatalf("unexpected report %+v / run %+v", rep, run)
				}
				if len(rep.Distribution) != 2 {
					t.Fatalf("expected distribution in report, got %v", rep.Distribution)
				}
			}
		})
	}
}

func TestPipeline_Run_MissingAudio(t *testing.T) {
	tr := &mockTranscriber{text: "x"}
	p := NewPipeline(testConfig(), tr, &mockClassifier{}, &mockGenerator{}, WithLogger(quietLogger()))
	rep, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"), t.TempDir())
	if err == nil || rep.Err == nil {
		t.Fatalf("expected missing audio error")
	}
}

func TestPipeline_Run_HistoryFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudio(t, dir, "a.wav")
	rec := &mockRecorder{err: errors.New("disk full")}
	p := NewPipeline(testConfig(), &mockTranscriber{text: "x"},
		&mockClassifier{scores: emotion.Scores{"neutre": 0.1}}, &mockGenerator{body: []byte("img")},
		WithHistory(rec), WithLogger(quietLogger()))

	if _, err := p.Run(context.Background(), audio, filepath.Join(dir, "out")); err != nil {
		t.Fatalf("history errors must not fail the run: %v", err)
	}
}

func TestGenerationError(t *testing.T) {
	cause := context.DeadlineExceeded
	err := error(&GenerationError{Stage: "request", Err: cause})
	if !errors.Is(err, ErrGeneration) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected both sentinel and cause to match: %v", err)
	}
	want := "generation failed: request: context deadline exceeded"
	if got := Describe(Artifact{}, err); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := Describe(Artifact{Path: "out/" + ArtifactName}, nil); got != "image generated: out/"+ArtifactName {
		t.Fatalf("unexpected success description %q", got)
	}
}

type countingGenerator struct {
	n atomic.Int64
}

func (g *countingGenerator) Generate(ctx context.Context, prompt emotion.Prompt) ([]byte, error) {
	return []byte(fmt.Sprintf("image-%d", g.n.Add(1))), nil
}

func TestPipeline_Generate_ConcurrentSameDir(t *testing.T) {
	const runs = 16
	gen := &countingGenerator{}
	p := NewPipeline(testConfig(), nil, nil, gen, WithLogger(quietLogger()))
	outDir := t.TempDir()

	var wg sync.WaitGroup
	errs := make(chan error, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scores := emotion.Scores{"heureux": float64(i) / runs, "anxieux": 0.5}
			if _, err := p.Generate(context.Background(), scores, fmt.Sprintf("rêve %d", i), outDir); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}

	names := listDir(t, outDir)
	if len(names) != 1 || names[0] != ArtifactName {
		t.Fatalf("expected only %s, got %v", ArtifactName, names)
	}
	b, err := os.ReadFile(filepath.Join(outDir, ArtifactName))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	valid := false
	for i := 1; i <= runs; i++ {
		if string(b) == fmt.Sprintf("image-%d", i) {
			valid = true
			break
		}
	}
	if !valid {
		t.Fatalf("artifact is not one of the generated bodies: %q", b)
	}
}

type ctxRecorder struct {
	ctxErr error
	saved  int
}

func (r *ctxRecorder) Save(ctx context.Context, run store.Run) error {
	r.ctxErr = ctx.Err()
	r.saved++
	return nil
}

type ctxTranscriber struct{}

func (ctxTranscriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	return "", ctx.Err()
}

func TestPipeline_Run_CancelledIsRecorded(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudio(t, dir, "dream.wav")
	rec := &ctxRecorder{}
	p := NewPipeline(testConfig(), ctxTranscriber{}, &mockClassifier{}, &mockGenerator{},
		WithHistory(rec), WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := p.Run(ctx, audio, filepath.Join(dir, "out"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if rep.Err == nil {
		t.Fatalf("report must carry the failure")
	}
	if rec.saved != 1 || rec.ctxErr != nil {
		t.Fatalf("expected one save on a live context, got saved=%d ctxErr=%v", rec.saved, rec.ctxErr)
	}
}

var _ Transcriber = (*clients.CachedTranscriber)(nil)
