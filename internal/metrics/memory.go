package metrics

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// MemSample is one labeled reading of the Go runtime's memory statistics.
type MemSample struct {
	Label     string
	HeapAlloc uint64
	HeapInuse uint64
	Sys       uint64
	NumGC     uint32
}

// String formats the sample the way the rest of the program logs: key=value pairs.
func (s MemSample) String() string {
	return fmt.Sprintf("mem=%q heap_alloc_kb=%d heap_inuse_kb=%d sys_kb=%d num_gc=%d",
		s.Label, s.HeapAlloc/1024, s.HeapInuse/1024, s.Sys/1024, s.NumGC)
}

// MemoryLog collects memory snapshots taken at run boundaries.
type MemoryLog struct {
	samples []MemSample
	// Sink receives every snapshot as it is taken. Nil discards.
	Sink func(MemSample)
}

// Snapshot records the current memory usage under label and returns it.
func (l *MemoryLog) Snapshot(label string) MemSample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := MemSample{
		Label:     label,
		HeapAlloc: ms.HeapAlloc,
		HeapInuse: ms.HeapInuse,
		Sys:       ms.Sys,
		NumGC:     ms.NumGC,
	}
	l.samples = append(l.samples, s)
	if l.Sink != nil {
		l.Sink(s)
	}
	return s
}

// Samples returns every snapshot in the order taken.
func (l *MemoryLog) Samples() []MemSample {
	return append([]MemSample(nil), l.samples...)
}

// Host describes the CPU the run executes on.
func Host() string {
	features := make([]string, 0, 3)
	for _, f := range []struct {
		id   cpuid.FeatureID
		name string
	}{
		{cpuid.AVX2, "avx2"},
		{cpuid.FMA3, "fma3"},
		{cpuid.AVX512F, "avx512f"},
	} {
		if cpuid.CPU.Supports(f.id) {
			features = append(features, f.name)
		}
	}
	brand := cpuid.CPU.BrandName
	if brand == "" {
		brand = "unknown"
	}
	return fmt.Sprintf("cpu=%q cores=%d threads=%d goarch=%s features=%s",
		brand, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, runtime.GOARCH, strings.Join(features, ","))
}
