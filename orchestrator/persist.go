package orchestrator

import (
	"os"
	"path/filepath"
)

// ArtifactName is the same for every run, so a rerun into a directory overwrites.
const ArtifactName = "dream_visualization.png"

// writeArtifact renames a fully synced temp file over ArtifactName. Concurrent writers
// into the same dir never leave a torn file; the last rename wins.
func writeArtifact(dir string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, ArtifactName)
	tmp, err := os.CreateTemp(dir, ".dream_visualization-*.tmp")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return "", err
	}
	return dst, nil
}
