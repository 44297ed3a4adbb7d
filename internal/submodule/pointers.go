package submodule

import (
	"bytes"
	"fmt"
	"strings"

	gitconfigformat "github.com/go-git/go-git/v5/plumbing/format/config"
)

const (
	coreSectionNameConstant            = "core"
	worktreeOptionKeyConstant          = "worktree"
	gitdirPointerPrefixConstant        = "gitdir: "
	storageParseErrorTemplateConstant  = "parse storage configuration: %w"
	pointerLineTerminatorConstant      = "\n"
)

// RewriteWorktreePointer replaces the core worktree option in a storage
// configuration document and returns the updated content.
func RewriteWorktreePointer(content []byte, worktreePath string) ([]byte, error) {
	document := gitconfigformat.New()
	decoder := gitconfigformat.NewDecoder(bytes.NewReader(content))
	if decodeError := decoder.Decode(document); decodeError != nil {
		return nil, fmt.Errorf(storageParseErrorTemplateConstant, decodeError)
	}

	document.Section(coreSectionNameConstant).SetOption(worktreeOptionKeyConstant, worktreePath)

	serializedBuffer := &bytes.Buffer{}
	encoder := gitconfigformat.NewEncoder(serializedBuffer)
	if encodeError := encoder.Encode(document); encodeError != nil {
		return nil, encodeError
	}
	return serializedBuffer.Bytes(), nil
}

// ReadGitdirPointer extracts the storage path from a gitdir link file.
func ReadGitdirPointer(content []byte) (string, bool) {
	firstLine := strings.SplitN(string(content), pointerLineTerminatorConstant, 2)[0]
	trimmedLine := strings.TrimSpace(firstLine)
	if !strings.HasPrefix(trimmedLine, strings.TrimSpace(gitdirPointerPrefixConstant)) {
		return "", false
	}
	pointerValue := strings.TrimSpace(strings.TrimPrefix(trimmedLine, strings.TrimSpace(gitdirPointerPrefixConstant)))
	return pointerValue, pointerValue != ""
}

// FormatGitdirPointer renders a gitdir link file referencing the provided storage path.
func FormatGitdirPointer(storagePath string) []byte {
	return []byte(gitdirPointerPrefixConstant + storagePath + pointerLineTerminatorConstant)
}
