package nodestyles

import (
	"github.com/npillmayer/nodestyles/style"
)

// EventKind tells what happened to the styles of a node.
type EventKind uint8

// Kinds of events.
const (
	NeedsRefresh EventKind = iota + 1 // styles became stale
	Refreshed                         // cascade has been re-computed
)

func (k EventKind) String() string {
	switch k {
	case NeedsRefresh:
		return "needs-refresh"
	case Refreshed:
		return "refreshed"
	}
	return "unknown-event"
}

// Event is sent to listeners of a NodeStyles.
type Event struct {
	Kind              EventKind
	Node              style.Node
	SignificantChange bool // for Refreshed only
}

// Listener receives events. Listeners are called synchronously, without
// any lock of the NodeStyles held.
type Listener func(Event)

// AddListener registers l. The returned function removes it again.
func (ns *NodeStyles) AddListener(l Listener) (remove func()) {
	ns.lmu.Lock()
	defer ns.lmu.Unlock()
	ns.listenerSerial++
	serial := ns.listenerSerial
	ns.listeners = append(ns.listeners, listenerEntry{serial: serial, listener: l})
	return func() {
		ns.lmu.Lock()
		defer ns.lmu.Unlock()
		for i, e := range ns.listeners {
			if e.serial == serial {
				ns.listeners = append(ns.listeners[:i:i], ns.listeners[i+1:]...)
				return
			}
		}
	}
}

type listenerEntry struct {
	serial   int
	listener Listener
}

func (ns *NodeStyles) dispatch(kind EventKind, significant bool) {
	ns.lmu.Lock()
	listeners := make([]Listener, len(ns.listeners))
	for i, e := range ns.listeners {
		listeners[i] = e.listener
	}
	ns.lmu.Unlock()
	event := Event{Kind: kind, Node: ns.node, SignificantChange: significant}
	tracer().Debugf("node %d: event %s (significant=%v)", ns.node.NodeID(), kind, significant)
	for _, l := range listeners {
		l(event)
	}
}
