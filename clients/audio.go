package clients

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

type AudioInfo struct {
	Format   string
	Size     int64
	Duration time.Duration // zero when unknown
}

// ProbeAudio checks that path is a non-empty file. mp3 files are decoded far enough to
// read their duration; other formats are passed through to the transcriber as is.
func ProbeAudio(path string) (AudioInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return AudioInfo{}, fmt.Errorf("audio: %w", err)
	}
	if st.IsDir() {
		return AudioInfo{}, fmt.Errorf("audio %s: is a directory", path)
	}
	if st.Size() == 0 {
		return AudioInfo{}, fmt.Errorf("audio %s: empty file", path)
	}

	info := AudioInfo{
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Size:   st.Size(),
	}
	if info.Format != "mp3" {
		return info, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return AudioInfo{}, fmt.Errorf("audio: %w", err)
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return AudioInfo{}, fmt.Errorf("audio %s: decode mp3: %w", path, err)
	}
	// decoded stream is 16-bit stereo: 4 bytes per sample
	if sr, n := d.SampleRate(), d.Length(); sr > 0 && n > 0 {
		info.Duration = time.Duration(n/4) * time.Second / time.Duration(sr)
	}
	return info, nil
}
