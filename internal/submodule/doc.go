// Package submodule implements the submodule relocator: it validates a
// source/destination pair, computes the registry, worktree, and gitdir
// rewrites required to move a submodule inside its parent repository, and
// applies them as an ordered action plan followed by index staging.
package submodule
