package log

import (
	"sync"
	"testing"
)

func resetDefault(t *testing.T) {
	t.Helper()
	loggerMu.Lock()
	saved := defaultLogger
	defaultLogger = nil
	loggerMu.Unlock()
	t.Cleanup(func() { SetDefaultLogger(saved) })
}

func TestSetDefaultLogger(t *testing.T) {
	resetDefault(t)

	custom := Discard()
	SetDefaultLogger(custom)

	if got := DefaultLogger(); got != custom {
		t.Error("DefaultLogger() should return the logger that was set")
	}
}

func TestDefaultLoggerFallsBack(t *testing.T) {
	resetDefault(t)

	first := DefaultLogger()
	if first == nil {
		t.Fatal("expected a fallback logger")
	}
	if first.Config().ServiceName != "republic" {
		t.Errorf("fallback logger should use DefaultConfig, got %+v", first.Config())
	}
	if DefaultLogger() != first {
		t.Error("fallback logger should be installed once and reused")
	}
}

func TestOrDefault(t *testing.T) {
	resetDefault(t)

	custom := Discard()
	if OrDefault(custom) != custom {
		t.Error("OrDefault should return a non-nil logger unchanged")
	}
	if OrDefault(nil) != DefaultLogger() {
		t.Error("OrDefault(nil) should return the default logger")
	}
}

func TestDefaultLoggerConcurrency(t *testing.T) {
	resetDefault(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = DefaultLogger()
		}()
		go func() {
			defer wg.Done()
			SetDefaultLogger(Discard())
		}()
	}
	wg.Wait()
}
