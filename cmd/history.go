package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/dream-pipeline/emotion"
	"github.com/maastricht-university/dream-pipeline/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs recorded in paths.history",
	Args:  cobra.NoArgs,
	RunE:  historyCommand,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	if conf.Paths.History == "" {
		return errors.New("paths.history is not configured")
	}
	h, err := store.Open(conf.Paths.History)
	if err != nil {
		return err
	}
	defer h.Close()

	runs, err := h.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tID\tEMOTION\tRESULT")
	for _, r := range runs {
		result := r.ArtifactPath
		if r.Error != "" {
			result = "error: " + r.Error
		}
		emo := "-"
		if r.Emotion != "" {
			emo = fmt.Sprintf("%s %d%%", r.Emotion, emotion.Percent(r.Probability))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.CreatedAt.Local().Format(time.DateTime), r.ID, emo, result)
	}
	return tw.Flush()
}
