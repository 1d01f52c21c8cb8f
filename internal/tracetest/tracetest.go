/*
Package tracetest routes tracing to the log of a test, for code which traces
from more than one goroutine.

gotestingadapter tracers are not safe for concurrent use. QuickConfig
installs a single tracer for all keys, wrapping a gotestingadapter tracer
with a mutex:

    func TestSomething(t *testing.T) {
        teardown := tracetest.QuickConfig(t)
        defer teardown()
        …
    }

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package tracetest

import (
	"io"
	"sync"
	"testing"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// QuickConfig redirects every tracer to t.Logf, with level Debug.
// It returns a teardown function which should be called at the end of a test.
func QuickConfig(t *testing.T) func() {
	tr := &lockedTrace{trace: gotestingadapter.New(t)}
	tr.SetTraceLevel(tracing.LevelDebug)
	tracing.SetTraceSelector(tracing.SelectorForAdapter(func() tracing.Trace { return tr }))
	return func() {
		tracing.SetTraceSelector(nil)
	}
}

// lockedTrace serializes all calls to a tracer.
type lockedTrace struct {
	mu    sync.Mutex
	trace tracing.Trace
}

var _ tracing.Trace = (*lockedTrace)(nil)

func (lt *lockedTrace) Errorf(s string, args ...interface{}) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.trace.Errorf(s, args...)
}

func (lt *lockedTrace) Infof(s string, args ...interface{}) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.trace.Infof(s, args...)
}

func (lt *lockedTrace) Debugf(s string, args ...interface{}) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.trace.Debugf(s, args...)
}

// P sets the context of the next message. The context is shared between
// goroutines.
func (lt *lockedTrace) P(key string, val interface{}) tracing.Trace {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.trace.P(key, val)
	return lt
}

func (lt *lockedTrace) SetTraceLevel(l tracing.TraceLevel) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.trace.SetTraceLevel(l)
}

func (lt *lockedTrace) GetTraceLevel() tracing.TraceLevel {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.trace.GetTraceLevel()
}

func (lt *lockedTrace) SetOutput(w io.Writer) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.trace.SetOutput(w)
}
