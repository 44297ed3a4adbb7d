package submodule

import (
	"bytes"
	"fmt"

	gitconfigformat "github.com/go-git/go-git/v5/plumbing/format/config"
)

const (
	submoduleSectionNameConstant         = "submodule"
	pathOptionKeyConstant                = "path"
	urlOptionKeyConstant                 = "url"
	registryParseErrorTemplateConstant   = "parse %s: %w"
	registryEntryMissingTemplateConstant = "registry entry %q not found"
)

// Registry provides structured access to a module-registry document.
type Registry struct {
	document *gitconfigformat.Config
}

// ParseRegistry decodes module-registry content into a Registry.
func ParseRegistry(content []byte) (*Registry, error) {
	document := gitconfigformat.New()
	decoder := gitconfigformat.NewDecoder(bytes.NewReader(content))
	if decodeError := decoder.Decode(document); decodeError != nil {
		return nil, fmt.Errorf(registryParseErrorTemplateConstant, RegistryFileName, decodeError)
	}
	return &Registry{document: document}, nil
}

// Entries lists every submodule record in document order.
func (registry *Registry) Entries() []Entry {
	collectedEntries := []Entry{}
	submoduleSection := registry.submoduleSection()
	if submoduleSection == nil {
		return collectedEntries
	}
	for _, subsection := range submoduleSection.Subsections {
		collectedEntries = append(collectedEntries, Entry{
			Name: subsection.Name,
			Path: subsection.Option(pathOptionKeyConstant),
			URL:  subsection.Option(urlOptionKeyConstant),
		})
	}
	return collectedEntries
}

// FindByPath locates the entry whose path option matches the provided path.
func (registry *Registry) FindByPath(entryPath string) (Entry, bool) {
	for _, candidateEntry := range registry.Entries() {
		if candidateEntry.Path == entryPath {
			return candidateEntry, true
		}
	}
	return Entry{}, false
}

// FindByName locates the entry registered under the provided subsection name.
func (registry *Registry) FindByName(entryName string) (Entry, bool) {
	for _, candidateEntry := range registry.Entries() {
		if candidateEntry.Name == entryName {
			return candidateEntry, true
		}
	}
	return Entry{}, false
}

// Rename updates the subsection name, path, and optionally the URL of an entry.
func (registry *Registry) Rename(update RegistryUpdate) error {
	submoduleSection := registry.submoduleSection()
	if submoduleSection == nil || !submoduleSection.HasSubsection(update.OldName) {
		return fmt.Errorf(registryEntryMissingTemplateConstant, update.OldName)
	}

	entrySubsection := submoduleSection.Subsection(update.OldName)
	entrySubsection.Name = update.NewName
	entrySubsection.SetOption(pathOptionKeyConstant, update.NewPath)
	if update.UpdateURL {
		entrySubsection.SetOption(urlOptionKeyConstant, update.NewURL)
	}
	return nil
}

// Serialize renders the registry back to module-registry file content.
func (registry *Registry) Serialize() ([]byte, error) {
	serializedBuffer := &bytes.Buffer{}
	encoder := gitconfigformat.NewEncoder(serializedBuffer)
	if encodeError := encoder.Encode(registry.document); encodeError != nil {
		return nil, encodeError
	}
	return serializedBuffer.Bytes(), nil
}

func (registry *Registry) submoduleSection() *gitconfigformat.Section {
	for _, candidateSection := range registry.document.Sections {
		if candidateSection.IsName(submoduleSectionNameConstant) {
			return candidateSection
		}
	}
	return nil
}
