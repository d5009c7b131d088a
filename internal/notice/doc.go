// Package notice maintains the tracking issue that reports failed
// synchronization runs on the fork repository.
package notice
