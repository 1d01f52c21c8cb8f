package tracetest

import (
	"sync"
	"testing"

	"github.com/npillmayer/schuko/tracing"
)

func TestConcurrentTracing(t *testing.T) {
	teardown := QuickConfig(t)
	defer teardown()
	//
	if l := tracing.Select("any.key").GetTraceLevel(); l != tracing.LevelDebug {
		t.Errorf("expected trace level Debug, is %v", l)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracing.Select("tracetest").P("goroutine", i).Debugf("tracing concurrently")
		}(i)
	}
	wg.Wait()
}
