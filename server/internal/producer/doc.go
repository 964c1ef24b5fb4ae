// Package producer runs the single sampling loop of topchat-server.
//
// Every tick it samples host CPU and memory, reads the live session count,
// takes at most one chat message from the inbox and publishes the combined
// Snapshot to the broadcast hub. Observers (the alert engine) receive the
// same snapshot after it has been published.
//
// The loop waits Interval between ticks, plus IdleInterval while no session
// is registered. A failed sample skips the tick; the queued message stays in
// the inbox for the next one. When Run returns the hub is closed so every
// session writer sees the publisher go away.
package producer
