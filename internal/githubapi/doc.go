// Package githubapi wraps the GitHub REST API operations used to inspect fork
// relationships and manage tracking issues.
package githubapi
