// Package runner drives step advancement for one inbound user message at a
// time. Each turn loads the session state, executes steps until one pauses
// (WaitForInput), completes (Done) or the sequence ends, then persists state
// and returns the accumulated outgoing messages. Turns for the same session
// are serialized by a per-session lock; turns for different sessions share no
// mutable engine state.
package runner
