package dataset

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionID_StableForSameBytes(t *testing.T) {
	p1 := writeFile(t, "a.csv", "revenue\n100\n")
	p2 := writeFile(t, "b.csv", "revenue\n100\n")

	id1, err := VersionID(p1)
	require.NoError(t, err)
	id2, err := VersionID(p2)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 16)
}

func TestVersionID_ChangesWithContent(t *testing.T) {
	p1 := writeFile(t, "a.csv", "revenue\n100\n")
	p2 := writeFile(t, "b.csv", "revenue\n101\n")

	id1, err := VersionID(p1)
	require.NoError(t, err)
	id2, err := VersionID(p2)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}

func TestVersionID_ChangesWithSidecar(t *testing.T) {
	path := writeFile(t, "a.csv", "revenue\n100\n")

	before, err := VersionID(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(SidecarPath(path), []byte("outcome_column: converted\n"), 0o644))
	after, err := VersionID(path)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)

	// The same sidecar bytes map back to the same version.
	again, err := VersionID(path)
	require.NoError(t, err)
	assert.Equal(t, after, again)
}

func TestVersionID_MissingFile(t *testing.T) {
	_, err := VersionID(t.TempDir() + "/nope.csv")
	require.Error(t, err)
}
