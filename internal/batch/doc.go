// Package batch executes multiple submodule relocations described by a YAML
// manifest, applying each move with the same planner and interpreter the
// single-move command uses.
package batch
