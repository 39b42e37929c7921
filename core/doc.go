// Package core defines the shared contracts of the crisprflow pipeline
// engine: the typed per-session State, the tagged Outcome returned by every
// Step, the Step capability interface, the Router that maps workflow
// identifiers to ordered step sequences, and the SessionStore / AuditSink
// collaborator interfaces. Concrete implementations live in sibling packages
// (runner, session, audit, workflow) and depend only on the types declared
// here.
package core
