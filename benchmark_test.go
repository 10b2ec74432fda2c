//go:build linux || darwin

package statusbar

import (
	"io"
	"strings"
	"testing"
	"time"
)

const benchmarkLine = `,[{"name":"ipv6","full_text":"no IPv6","color":"#FF0000"},` +
	`{"name":"disk_info","instance":"/","full_text":"12.3 GiB"},` +
	`{"name":"load","full_text":"0.42"},` +
	`{"name":"time","full_text":"2026-10-17 14:05:30"}]`

// BenchmarkDecodeFrame measures the performance of decoding producer lines
func BenchmarkDecodeFrame(b *testing.B) {
	data := []byte(benchmarkLine)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := DecodeFrame(data); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDecodeFrameParallel measures parallel decode performance
func BenchmarkDecodeFrameParallel(b *testing.B) {
	data := []byte(benchmarkLine)

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := DecodeFrame(data); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkEncodeFrame measures the performance of encoding composed frames
func BenchmarkEncodeFrame(b *testing.B) {
	frame, err := DecodeFrame([]byte(benchmarkLine))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := EncodeFrame(frame); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMergeByPosition measures merging worker outputs into a frame
func BenchmarkMergeByPosition(b *testing.B) {
	frame, err := DecodeFrame([]byte(benchmarkLine))
	if err != nil {
		b.Fatal(err)
	}
	workers := []Worker{
		newFakeWorker("first", method("a", 0, "A"), method("b", 3, "B")),
		newFakeWorker("second", method("c", 3, "C")),
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = mergeByPosition(frame, workers)
	}
}

// BenchmarkCompositorTick measures one full tick with unchanged output
func BenchmarkCompositorTick(b *testing.B) {
	cfg, err := ParseConfigReader("bench.conf", strings.NewReader(`
order += "ipv6"
order += "disk /"
order += "load"
order += "time"
disk "/" {
    format = "%avail"
}
`))
	if err != nil {
		b.Fatal(err)
	}

	sup := NewSupervisorFromConfig(cfg, WithStandalone(true), WithOutputWriter(io.Discard))
	if err := sup.Start(b.Context()); err != nil {
		b.Fatal(err)
	}
	defer func() { _ = sup.Stop() }()

	frame, err := DecodeFrame([]byte(benchmarkLine))
	if err != nil {
		b.Fatal(err)
	}
	snap := Snapshot{Items: frame, CapturedAt: time.Now().UTC(), Prefix: ContinuationPrefix}
	sup.snapshots.publish(snap)
	sup.Times().Initialize(snap)

	c := NewCompositor(sup, WithInterval(5))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := c.tick(b.Context()); err != nil {
			b.Fatal(err)
		}
	}
}
