package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/dream-pipeline/emotion"
	"github.com/maastricht-university/dream-pipeline/orchestrator"
)

var renderOpts struct {
	Scores     string
	Transcript string
}

// renderCmd runs the scoring and image steps on scores that are already known.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Generate the image from raw emotion scores and a transcript",
	Long: `Normalizes the raw scores, picks the dominant emotion and its style, composes the
prompt and writes the generated image. No transcription or classification call is made.

--scores and --transcript accept either a literal value or @path to read it from a file.`,
	Args: cobra.NoArgs,
	RunE: renderCommand,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOpts.Scores, "scores", "s", "", `raw scores as a JSON object, e.g. '{"heureux": 0.8}'`)
	renderCmd.Flags().StringVarP(&renderOpts.Transcript, "transcript", "t", "", "narrative transcript")
	_ = renderCmd.MarkFlagRequired("scores")
}

func renderCommand(cmd *cobra.Command, args []string) error {
	raw, err := valueOrFile(renderOpts.Scores)
	if err != nil {
		return err
	}
	scores, err := parseScores(raw)
	if err != nil {
		return err
	}
	transcript, err := valueOrFile(renderOpts.Transcript)
	if err != nil {
		return err
	}

	p, closer, err := buildPipeline(cmd.Context(), conf, false)
	if err != nil {
		return err
	}
	defer closer()

	art, err := p.Generate(cmd.Context(), scores, transcript, outputDir())
	fmt.Fprintln(cmd.OutOrStdout(), orchestrator.Describe(art, err))
	return err
}

func parseScores(raw string) (emotion.Scores, error) {
	var scores emotion.Scores
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil, fmt.Errorf("scores: expected a JSON object of label to number: %w", err)
	}
	return scores, nil
}

func valueOrFile(v string) (string, error) {
	path, ok := strings.CutPrefix(v, "@")
	if !ok {
		return v, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
