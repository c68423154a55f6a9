// Package store keeps the latest cycle snapshot and fans it out to
// subscribers.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub, also a poller sink
//   - [Snapshot]: Stored view of one cycle, including its [Banner]
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block the scheduler).
package store
