// Package primitive implements the blocking mechanisms underneath a
// scoped lock.
//
// A [Primitive] knows nothing about handles, owners or state names; it only
// admits or blocks callers in four roles:
//
//   - shared:     any number of holders, excluded by an exclusive holder.
//   - upgradable: at most one holder, coexists with shared holders.
//   - exclusive:  a single holder, excludes everyone else.
//   - promoted:   the upgradable holder after Promote, equivalent to exclusive.
//
// Every acquisition takes a context. When the context ends first the call
// returns its error and the primitive is left exactly as it was before the
// call.
//
// # Strategies
//
// [ExclusiveOnly] builds a monitor on a weight-1 semaphore: every role is
// exclusive, readers never overlap, and Promote is a no-op because the
// upgradable holder already owns the monitor.
//
// [ReaderWriter] comes in two fairness policies:
//
//   - [WriterPreferred] uses a writer gate plus a weighted semaphore whose
//     FIFO queue makes later readers wait behind a queued writer or upgrader.
//   - [ReaderPreferred] uses a mutex and a broadcast channel; readers enter
//     whenever no writer holds the lock, so writers may starve under
//     sustained read load.
package primitive
