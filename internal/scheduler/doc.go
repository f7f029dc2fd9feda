// Package scheduler runs recurring task materialization on a fixed interval.
//
// Passes never overlap: a tick that arrives while a pass is still running is
// skipped. Each pass runs under its own deadline, detached from whoever
// triggered it, so stopping the scheduler lets an in-flight pass finish.
package scheduler
