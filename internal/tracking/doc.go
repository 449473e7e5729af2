// Package tracking implements pixel-based email open tracking: identifier
// generation, pixel injection into outgoing content, open-event recording,
// device classification, and open-rate analytics.
//
// Recording is best-effort and never blocks the pixel response; injection
// errors surface synchronously because a corrupted message must not be
// sent. Storage is pluggable via the Store interface (see
// internal/repository for the backends).
package tracking
