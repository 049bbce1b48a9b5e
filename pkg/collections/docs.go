// Package collections provides Map, Set and List containers that are safe
// for concurrent use without external synchronization.
//
// Every container owns a [lock.Lock] created from the factory passed to its
// constructor. Lookups run under a read handle and mutations under a write
// handle. Conditional operations such as [Map.LoadOrStore], [Set.Add] and
// [List.AppendIfAbsent] take the upgradable read handle, decide, and upgrade
// only when they actually write, so check and act happen under one
// acquisition.
//
// Enumeration works on a copy taken under a read handle. The handle is
// released before the copy is returned, so the sequence is stable and
// restartable no matter what happens to the container afterwards.
//
// Lock failures ([lock.ErrTimeout], [lock.ErrStateViolation]) are returned
// unchanged. Callbacks passed to a container run while its lock is held and
// must not call back into the same container.
package collections
