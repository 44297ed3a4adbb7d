package submodule_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/smv/internal/submodule"
)

func TestClassifyURL(testInstance *testing.T) {
	testCases := []struct {
		name         string
		entryURL     string
		expectedKind submodule.URLKind
	}{
		{name: "relative current prefix is local", entryURL: "./lib/foo", expectedKind: submodule.URLKindLocal},
		{name: "relative parent prefix is external", entryURL: "../upstream/foo.git", expectedKind: submodule.URLKindExternal},
		{name: "https is external", entryURL: "https://example.com/foo.git", expectedKind: submodule.URLKindExternal},
		{name: "ssh is external", entryURL: "git@example.com:foo.git", expectedKind: submodule.URLKindExternal},
		{name: "absolute path is external", entryURL: "/srv/git/foo.git", expectedKind: submodule.URLKindExternal},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			require.Equal(subtestInstance, testCase.expectedKind, submodule.ClassifyURL(testCase.entryURL))
		})
	}
}

func TestPreconditionErrorExitCodes(testInstance *testing.T) {
	testCases := []struct {
		name             string
		preconditionError submodule.PreconditionError
		expectedExitCode int
	}{
		{name: "missing source", preconditionError: submodule.NewMissingSourceError("lib/foo"), expectedExitCode: submodule.ExitCodeMissingSource},
		{name: "destination outside tree", preconditionError: submodule.NewDestinationOutsideTreeError("../foo", "/repo"), expectedExitCode: submodule.ExitCodeDestinationOutsideTree},
		{name: "storage unreadable", preconditionError: submodule.NewStorageUnreadableError("/repo/.git"), expectedExitCode: submodule.ExitCodeStorageUnreadable},
		{name: "destination inside storage", preconditionError: submodule.NewDestinationInsideStorageError(".git/foo", "/repo/.git"), expectedExitCode: submodule.ExitCodeDestinationInsideStorage},
		{name: "registry missing", preconditionError: submodule.NewRegistryMissingError("/repo/.gitmodules"), expectedExitCode: submodule.ExitCodeRegistryMissing},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			require.Equal(subtestInstance, testCase.expectedExitCode, testCase.preconditionError.ExitCode())
			require.NotEmpty(subtestInstance, testCase.preconditionError.Error())
		})
	}
}
