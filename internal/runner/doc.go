// Package runner orchestrates a single fork synchronization run: it verifies
// the repository is a fork, clears stale failure notices, fast-forwards the
// default branch, and raises a notice when the run fails.
package runner
