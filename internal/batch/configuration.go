package batch

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	manifestLoadErrorTemplateConstant          = "failed to load relocation manifest: %w"
	manifestParseErrorTemplateConstant         = "failed to parse relocation manifest: %w"
	manifestPathRequiredMessageConstant        = "relocation manifest path must be provided"
	manifestEmptyMovesMessageConstant          = "relocation manifest must define at least one move"
	manifestSourceMissingTemplateConstant      = "relocation manifest move %d missing source"
	manifestDestinationMissingTemplateConstant = "relocation manifest move %d missing destination"
)

// ManifestFileReader loads manifest content from disk.
type ManifestFileReader interface {
	ReadFile(path string) ([]byte, error)
}

// Manifest describes the ordered submodule moves loaded from YAML.
type Manifest struct {
	Moves []MoveConfiguration `yaml:"moves"`
}

// MoveConfiguration captures one source/destination relocation pair.
type MoveConfiguration struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
}

// LoadManifest reads the manifest from disk and performs basic validation.
func LoadManifest(fileReader ManifestFileReader, filePath string) (Manifest, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Manifest{}, errors.New(manifestPathRequiredMessageConstant)
	}

	contentBytes, readError := fileReader.ReadFile(trimmedPath)
	if readError != nil {
		return Manifest{}, fmt.Errorf(manifestLoadErrorTemplateConstant, readError)
	}

	var manifest Manifest
	if unmarshalError := yaml.Unmarshal(contentBytes, &manifest); unmarshalError != nil {
		return Manifest{}, fmt.Errorf(manifestParseErrorTemplateConstant, unmarshalError)
	}

	if len(manifest.Moves) == 0 {
		return Manifest{}, errors.New(manifestEmptyMovesMessageConstant)
	}

	for moveIndex := range manifest.Moves {
		manifest.Moves[moveIndex].Source = strings.TrimSpace(manifest.Moves[moveIndex].Source)
		manifest.Moves[moveIndex].Destination = strings.TrimSpace(manifest.Moves[moveIndex].Destination)
		if len(manifest.Moves[moveIndex].Source) == 0 {
			return Manifest{}, fmt.Errorf(manifestSourceMissingTemplateConstant, moveIndex)
		}
		if len(manifest.Moves[moveIndex].Destination) == 0 {
			return Manifest{}, fmt.Errorf(manifestDestinationMissingTemplateConstant, moveIndex)
		}
	}

	return manifest, nil
}
