// FILE: lixenwraith/logsetup/benchmark_test.go
package logsetup

import (
	"io"
	"path/filepath"
	"testing"
)

func createBenchDispatcher(b *testing.B, fo FormatOptions) *Dispatcher {
	b.Helper()
	d := NewDispatcher(WithErrorOutput(nil))
	if _, err := d.RegisterConsole(LevelDebug, ConsoleOptions{Writer: io.Discard}, fo); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = d.Shutdown() })
	return d
}

// BenchmarkLoggerInfo benchmarks text formatted logging
func BenchmarkLoggerInfo(b *testing.B) {
	l := createBenchDispatcher(b, FormatOptions{}).Logger("bench")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Info("benchmark message", i)
	}
}

// BenchmarkLoggerJSON benchmarks JSON formatted logging
func BenchmarkLoggerJSON(b *testing.B) {
	l := createBenchDispatcher(b, FormatOptions{Type: FormatJSON}).Logger("bench")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Info("benchmark message", i, "key", "value")
	}
}

// BenchmarkLoggerDisabled measures the cost of a record below the global level
func BenchmarkLoggerDisabled(b *testing.B) {
	d := createBenchDispatcher(b, FormatOptions{})
	d.SetLevel(LevelError)
	l := d.Logger("bench")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Debug("filtered", i)
	}
}

// BenchmarkConcurrentLogging benchmarks logging under concurrent load
func BenchmarkConcurrentLogging(b *testing.B) {
	l := createBenchDispatcher(b, FormatOptions{}).Logger("bench")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			l.Info("concurrent", i)
			i++
		}
	})
}

// BenchmarkRotatingFile benchmarks the size-rotating file sink
func BenchmarkRotatingFile(b *testing.B) {
	d := NewDispatcher(WithErrorOutput(nil))
	b.Cleanup(func() { _ = d.Shutdown() })
	path := filepath.Join(b.TempDir(), "bench.log")
	if _, err := d.RegisterRotatingFile(LevelDebug, path, 1<<20, 2, FormatOptions{}); err != nil {
		b.Fatal(err)
	}
	l := d.Logger("bench")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Info("rotating", i)
	}
}
