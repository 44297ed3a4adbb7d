// Package ui renders command lifecycle events for human-readable sessions.
package ui
