package parsers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/classmap/internal/model"
)

// writeSource writes content to name under a fresh temp dir and returns the path.
func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func findRecord(t *testing.T, records []model.ClassRecord, name string) model.ClassRecord {
	t.Helper()
	for _, r := range records {
		if r.Name == name {
			return r
		}
	}
	require.Failf(t, "class not found", "no record named %s", name)
	return model.ClassRecord{}
}

func edge(from, to string, typ model.RelationshipType) model.EdgeKey {
	return model.EdgeKey{From: from, To: to, Type: typ}
}

func edgeKeys(edges []model.RelationshipEdge) []model.EdgeKey {
	keys := make([]model.EdgeKey, 0, len(edges))
	for _, e := range edges {
		keys = append(keys, e.Key())
	}
	return keys
}
