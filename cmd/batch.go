package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var audioExts = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".ogg": true, ".flac": true, ".webm": true,
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir-or-file>...",
	Short: "Illustrate many narratives, one output directory per audio file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  batchCommand,
}

func batchCommand(cmd *cobra.Command, args []string) error {
	paths, err := collectAudio(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no audio files found in %s", strings.Join(args, ", "))
	}

	p, closer, err := buildPipeline(cmd.Context(), conf, true)
	if err != nil {
		return err
	}
	defer closer()

	reports, err := p.RunBatch(cmd.Context(), paths, outputDir())
	failed := 0
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		if rep.Err != nil {
			failed++
		}
		printReport(cmd.OutOrStdout(), rep)
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d narratives failed", failed, len(paths))
	}
	return nil
}

// collectAudio expands directories (non-recursive) into their audio files, sorted.
func collectAudio(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			out = append(out, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || !audioExts[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			found = append(found, filepath.Join(arg, e.Name()))
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}
