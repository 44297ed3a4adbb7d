package batch_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/smv/internal/batch"
	"github.com/temirov/smv/internal/submodule"
)

const (
	manifestTestFileName     = "moves.yaml"
	validManifestContent     = "moves:\n  - source: lib/foo\n    destination: vendor/\n  - source: lib/bar\n    destination: third_party/bar\n"
	emptyManifestContent     = "moves: []\n"
	missingSourceManifest    = "moves:\n  - destination: vendor/\n"
	missingDestinationManifest = "moves:\n  - source: lib/foo\n"
	malformedManifestContent = "moves: {not: [a, list\n"
)

func writeManifestFile(testInstance *testing.T, content string) string {
	testInstance.Helper()
	manifestPath := filepath.Join(testInstance.TempDir(), manifestTestFileName)
	require.NoError(testInstance, os.WriteFile(manifestPath, []byte(content), 0o644))
	return manifestPath
}

func TestLoadManifest(testInstance *testing.T) {
	testCases := []struct {
		name          string
		content       string
		expectError   bool
		expectedMoves int
	}{
		{name: "loads ordered moves", content: validManifestContent, expectedMoves: 2},
		{name: "rejects empty move list", content: emptyManifestContent, expectError: true},
		{name: "rejects missing source", content: missingSourceManifest, expectError: true},
		{name: "rejects missing destination", content: missingDestinationManifest, expectError: true},
		{name: "rejects malformed yaml", content: malformedManifestContent, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			manifestPath := writeManifestFile(subtestInstance, testCase.content)

			manifest, loadError := batch.LoadManifest(submodule.OSFileSystem{}, manifestPath)
			if testCase.expectError {
				require.Error(subtestInstance, loadError)
				return
			}
			require.NoError(subtestInstance, loadError)
			require.Len(subtestInstance, manifest.Moves, testCase.expectedMoves)
			require.Equal(subtestInstance, "lib/foo", manifest.Moves[0].Source)
			require.Equal(subtestInstance, "vendor/", manifest.Moves[0].Destination)
		})
	}
}

func TestLoadManifestRequiresPath(testInstance *testing.T) {
	_, loadError := batch.LoadManifest(submodule.OSFileSystem{}, "   ")
	require.Error(testInstance, loadError)
}

func TestLoadManifestReportsMissingFile(testInstance *testing.T) {
	_, loadError := batch.LoadManifest(submodule.OSFileSystem{}, filepath.Join(testInstance.TempDir(), "absent.yaml"))
	require.Error(testInstance, loadError)
}
