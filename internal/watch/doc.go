// Package watch repeats synchronization runs on a fixed interval, mirroring a
// scheduled job. Failed runs are logged and the schedule keeps going.
package watch
