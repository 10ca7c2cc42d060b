// Package gc implements the tri-color tracing collector described in
// spec §4.3: explicit roots, a write barrier, and a manual full-collect
// entry point over the heap cells defined in pkg/value.
//
// Re-architected per the design notes as a collector-managed arena: a
// heap cell becomes part of the arena the moment it is handed to Track,
// and a handle is simply the Go pointer pkg/value already hands out.
// There is no refcounting fallback anywhere in this package; cycles are
// reclaimed by tracing exactly like anything else.
package gc

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kristofer/smog/pkg/value"
)

// Collector owns the arena of every heap cell allocated during the
// VM's lifetime and performs tri-color collection cycles over it.
type Collector struct {
	mu         sync.Mutex
	tracked    []value.Heap
	threshold  int
	allocSince int
	grey       []value.Heap
	cycling    bool
}

// New returns a Collector that triggers a cycle after threshold
// allocations have accumulated since the previous one (or never
// automatically, if threshold <= 0 — the caller must invoke Collect
// explicitly, e.g. from a `gc()` builtin).
func New(threshold int) *Collector {
	return &Collector{threshold: threshold}
}

// Track registers a newly allocated heap cell with the collector. Every
// constructor in pkg/value (NewObject, NewArray, NewStr,
// NewBytecodeFunction, NewNativeFunction) must be followed by a call to
// Track before the cell is stored anywhere reachable; an untracked cell
// is never counted toward the threshold and never considered by Sweep.
func (c *Collector) Track(cell value.Heap) value.Heap {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracked = append(c.tracked, cell)
	c.allocSince++
	return cell
}

// ShouldCollect reports whether enough allocation has accumulated since
// the last cycle to warrant triggering one. The VM checks this after
// every instruction it executes.
func (c *Collector) ShouldCollect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threshold > 0 && c.allocSince >= c.threshold
}

// Live reports how many heap cells are currently tracked, for
// diagnostics and tests.
func (c *Collector) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tracked)
}

func asHeap(v value.Value) (value.Heap, bool) {
	switch x := v.(type) {
	case *value.Str:
		return x, true
	case *value.Array:
		return x, true
	case *value.Object:
		return x, true
	case *value.Function:
		return x, true
	default:
		return nil, false
	}
}

// mark transitions a single value.Value into the grey worklist if it is
// a heap cell that is currently White. Non-heap Values and already
// grey/black cells are no-ops.
func (c *Collector) mark(v value.Value) {
	cell, ok := asHeap(v)
	if !ok || cell == nil {
		return
	}
	if cell.GCColor() != value.White {
		return
	}
	cell.SetGCColor(value.Grey)
	c.grey = append(c.grey, cell)
}

// BeginCycle resets every tracked cell to White ("at collection start
// all reachable objects are white") and seeds the grey worklist from
// rootGroups, one group per logical root category (stack, locals,
// call-stack frames, exception-stack frames, this, env, globals, the
// static-variables registry). The groups are fanned out over an
// errgroup so large root sets enqueue concurrently; the grey-queue drain
// that follows (MarkOne/Drain) remains sequential, so the cycle as a
// whole stays atomic w.r.t. VM execution.
func (c *Collector) BeginCycle(rootGroups [][]value.Value) error {
	c.mu.Lock()
	for _, cell := range c.tracked {
		cell.SetGCColor(value.White)
	}
	c.grey = c.grey[:0]
	c.cycling = true
	c.mu.Unlock()

	var mu sync.Mutex
	var g errgroup.Group
	for _, group := range rootGroups {
		group := group
		g.Go(func() error {
			var local []value.Heap
			for _, v := range group {
				if cell, ok := asHeap(v); ok && cell != nil && cell.GCColor() == value.White {
					cell.SetGCColor(value.Grey)
					local = append(local, cell)
				}
			}
			mu.Lock()
			c.grey = append(c.grey, local...)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// MarkOne traces one grey cell's outgoing references, promoting it to
// Black, and returns false once the worklist is empty (the cycle's mark
// phase is complete).
func (c *Collector) MarkOne() bool {
	if len(c.grey) == 0 {
		return false
	}
	n := len(c.grey) - 1
	cell := c.grey[n]
	c.grey = c.grey[:n]
	cell.Trace(c.mark)
	cell.SetGCColor(value.Black)
	return true
}

// Drain runs MarkOne to completion.
func (c *Collector) Drain() {
	for c.MarkOne() {
	}
}

// Sweep reclaims every still-White tracked cell (by dropping it from the
// arena) and resets the allocation counter. Finalization is limited to
// memory reclamation per §4.3; cells with native payloads are expected
// to have released those resources through their own close beforehand.
func (c *Collector) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := c.tracked[:0]
	for _, cell := range c.tracked {
		if cell.GCColor() != value.White {
			live = append(live, cell)
		}
	}
	c.tracked = live
	c.allocSince = 0
	c.cycling = false
}

// Collect runs one full, synchronous, stop-the-world cycle: reset,
// fanned-out root mark, sequential drain, sweep.
func (c *Collector) Collect(rootGroups [][]value.Value) error {
	if err := c.BeginCycle(rootGroups); err != nil {
		return err
	}
	c.Drain()
	c.Sweep()
	return nil
}

// WriteBarrier implements §4.3's write barrier: storing a white
// reference into a black container re-greys the container, preserving
// the tri-color invariant that a black object never points directly at
// a white one. Call this on every store of a reference field (object
// property, array element, function env slot, module global) — even
// outside an active cycle, where it is a harmless no-op, since
// containers are never Black except mid-cycle.
func (c *Collector) WriteBarrier(container value.Value, stored value.Value) {
	containerCell, ok := asHeap(container)
	if !ok || containerCell == nil || containerCell.GCColor() != value.Black {
		return
	}
	storedCell, ok := asHeap(stored)
	if !ok || storedCell == nil || storedCell.GCColor() != value.White {
		return
	}
	containerCell.SetGCColor(value.Grey)
	c.grey = append(c.grey, containerCell)
}
