// Package ws implements the broadcast hub and the WebSocket client sessions
// of topchat-server.
//
// Hub fans out every published Snapshot to all subscribers through a
// single-slot channel per subscriber. A subscriber that has not consumed the
// previous snapshot gets it replaced by the newer one, so Publish never
// blocks and a slow client only ever sees the most recent state.
//
// Handler upgrades GET /realtime/cpus to a WebSocket and runs two goroutines
// per connection:
//
//   - the writer receives snapshots from its subscription, looks up the
//     session's current name, personalizes the frame (ws_id, ws_username and
//     the chat message only when visible to this session) and writes it;
//   - the reader decodes client frames {"id","name","message","to_id"},
//     drops malformed or foreign-id frames, applies renames and queues chat
//     messages in the shared Inbox.
//
// Whichever side exits first tears the session down exactly once: the id is
// unregistered, the subscription removed, the sibling cancelled and the
// connection closed.
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level.
package ws
