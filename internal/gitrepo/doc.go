// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// It exposes RepositoryManager for index staging, cached removals, worktree
// status checks, and repository root resolution, built on top of the
// execshell command abstractions.
package gitrepo
