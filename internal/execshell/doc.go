// Package execshell wraps operating-system command execution for the git
// invocations forksync performs, logging command lifecycles through zap and
// translating failures into typed errors.
package execshell
