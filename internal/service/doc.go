// Package service runs configured tool invocations on a schedule.
//
// The Supervisor owns a gocron scheduler and an event loop. Every scheduler
// trigger asks the loop for a tick; a tick executes all configured
// invocations one after another in LOG mode, so their output ends up in the
// fleet log. Only one tick runs at a time, a trigger arriving while a tick
// is in flight is coalesced into at most one pending tick.
//
//	gocron ---- trigger ----> Supervisor.Do ---- Tick ----> job.Controller
//	                              |                             |
//	                          ctx.Done                   one Job per invocation
//
// A non-zero exit code of an invocation is reported as an error of the tick,
// the loop itself keeps running until its context is canceled.
package service
