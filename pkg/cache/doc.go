// Package cache holds bounded, arrival-ordered caches of streamed market records.
//
// Sequence is the ring buffer underneath everything. Keyed adds a key index so a
// record that updates an already cached entity (a candle that is still forming, an
// order that got filled) is merged into the cached record instead of being appended
// again. Nested does the same with ids that are only unique per partition, such as
// trade ids per symbol. View is the read-only surface handed to consumers.
//
// Merges happen in place. A pointer obtained from Append, Get or a View keeps
// pointing at the live record and observes later updates. The merge is a shallow
// struct copy, so slices and maps inside a record are shared with the arriving record.
//
// None of the types are safe for concurrent use; owners that feed a cache from
// several goroutines must serialize access themselves.
package cache
