package stratadump_test

import (
	"path/filepath"
	"testing"

	"github.com/AndrewDonelson/stratadump"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func benchFactory(b *testing.B, encrypted bool) stratadump.OperationsFactory {
	b.Helper()
	cfg := stratadump.Config{}
	if encrypted {
		cfg.SecretKey = testKey(7)
	}
	f, err := stratadump.NewOperationsFactory(cfg)
	if err != nil {
		b.Fatal(err)
	}
	return f
}

func benchWrite(b *testing.B, f stratadump.OperationsFactory, path string, recs []record) {
	b.Helper()
	w, err := f.CreateWriter(path)
	if err != nil {
		b.Fatal(err)
	}
	if err := stratadump.WriteSlice(w, recs); err != nil {
		b.Fatal(err)
	}
	if err := w.Finish(); err != nil {
		b.Fatal(err)
	}
}

// ── codec benchmarks ──────────────────────────────────────────────────────────

func BenchmarkWriteInt(b *testing.B) {
	w := stratadump.NewBinaryWriter()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = stratadump.WriteInt(w, int64(i))
	}
}

func BenchmarkToBinary_Records(b *testing.B) {
	recs := sampleRecords(1000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := stratadump.ToBinary(recs); err != nil {
			b.Fatal(err)
		}
	}
}

// ── file backend benchmarks ───────────────────────────────────────────────────

func benchmarkDump(b *testing.B, encrypted bool) {
	f := benchFactory(b, encrypted)
	path := filepath.Join(b.TempDir(), "dump")
	recs := sampleRecords(10000)
	data, err := stratadump.ToBinary(recs)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchWrite(b, f, path, recs)
	}
}

func BenchmarkDump_Plain(b *testing.B)     { benchmarkDump(b, false) }
func BenchmarkDump_Encrypted(b *testing.B) { benchmarkDump(b, true) }

func benchmarkLoad(b *testing.B, encrypted bool) {
	f := benchFactory(b, encrypted)
	path := filepath.Join(b.TempDir(), "dump")
	recs := sampleRecords(10000)
	benchWrite(b, f, path, recs)
	data, err := stratadump.ToBinary(recs)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := f.CreateReader(path)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := loadRecords(r); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLoad_Plain(b *testing.B)     { benchmarkLoad(b, false) }
func BenchmarkLoad_Encrypted(b *testing.B) { benchmarkLoad(b, true) }
