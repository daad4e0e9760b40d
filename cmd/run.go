package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/dream-pipeline/emotion"
	"github.com/maastricht-university/dream-pipeline/orchestrator"
)

var runCmd = &cobra.Command{
	Use:   "run <audio>",
	Short: "Transcribe, classify and illustrate one narrative",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommand,
}

func runCommand(cmd *cobra.Command, args []string) error {
	p, closer, err := buildPipeline(cmd.Context(), conf, true)
	if err != nil {
		return err
	}
	defer closer()

	rep, err := p.Run(cmd.Context(), args[0], outputDir())
	printReport(cmd.OutOrStdout(), rep)
	return err
}

func printReport(w io.Writer, rep *orchestrator.Report) {
	fmt.Fprintf(w, "run %s (%s)\n", rep.ID, rep.AudioPath)
	if rep.Transcript != "" {
		fmt.Fprintf(w, "  transcript: %s\n", rep.Transcript)
	}
	if rep.Dominant.Label != "" {
		fmt.Fprintf(w, "  emotion:    %s (%d%%)\n", rep.Dominant.Label, emotion.Percent(rep.Dominant.Probability))
		fmt.Fprintf(w, "  style:      %s\n", rep.Style)
	}
	fmt.Fprintf(w, "  %s\n", orchestrator.Describe(rep.Artifact, rep.Err))
}
