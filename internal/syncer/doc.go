// Package syncer fast-forwards a fork's local branch onto its upstream
// counterpart and optionally pushes the result back to origin.
package syncer
