// Package audit provides core.AuditSink implementations. Every sink keeps
// one append-only partition per session id; ordering is guaranteed within a
// partition only. Sinks accept concurrent appends from many sessions without
// coordination between them.
package audit
