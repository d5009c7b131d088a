// Package gitrepo provides repository-level git operations used by the sync
// services, including worktree inspection, remote management, and revision
// resolution, all executed through the shared shell executor.
package gitrepo
