package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// VersionID derives a stable dataset version identifier from the file
// contents plus the schema sidecar, when one exists. Re-uploading identical
// bytes yields the same version, so profiles and baselines computed for it
// remain valid; editing the sidecar (outcome designation, type pins) yields a
// new version, so stale cached profiles are never served.
func VersionID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", eris.Wrapf(err, "dataset: hash %s", path)
	}

	sidecar, err := os.ReadFile(SidecarPath(path))
	if err != nil && !os.IsNotExist(err) {
		return "", eris.Wrapf(err, "dataset: read schema sidecar for %s", path)
	}
	h.Write(sidecar)

	return hex.EncodeToString(h.Sum(nil))[:16], nil
}
