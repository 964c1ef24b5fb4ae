// Package session holds the two pieces of mutable state shared by every
// connection: the Registry of live client ids and display names, and the
// Inbox of chat messages waiting for the next producer tick.
//
// Both are safe for concurrent use and never block on I/O while locked.
//
// Registry.Register allocates ids starting at 1; id 0 is never handed out.
// A missing id in Lookup means the session has been torn down, and session
// writers use that as their stop signal.
//
// Inbox is a bounded FIFO. When it is full, Push evicts the oldest queued
// message so readers never stall on a slow producer.
package session
