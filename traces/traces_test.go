package traces

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func drain(ctx context.Context, items chan uint64) []uint64 {
	var out []uint64
	for v := range items {
		out = append(out, v)
	}
	_ = ctx
	return out
}

func TestAddressProviderParsesSpaceDelimitedLines(t *testing.T) {
	data := "0 0x1a2b 100\n0 0x1a2c 50\nbad line\n"
	items := make(chan uint64)
	go NewAddressProvider(bytes.NewBufferString(data)).Provide(context.Background(), items)
	got := drain(context.Background(), items)
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2: %v", len(got), got)
	}
	if got[0] != 0x1a2b || got[1] != 0x1a2c {
		t.Errorf("got %v, want [0x1a2b 0x1a2c]", got)
	}
}

func TestStorageProviderParsesCommaDelimitedLines(t *testing.T) {
	data := "0,12345,4096,R\n0,67890,4096,W\nmalformed\n"
	items := make(chan uint64)
	go NewStorageProvider(bytes.NewBufferString(data)).Provide(context.Background(), items)
	got := drain(context.Background(), items)
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2: %v", len(got), got)
	}
	if got[0] != 12345 || got[1] != 67890 {
		t.Errorf("got %v, want [12345 67890]", got)
	}
}

func TestCache2kProviderParsesLittleEndianUint32Records(t *testing.T) {
	data := []byte{1, 0, 0, 0, 2, 0, 0, 0, 255, 255, 255, 255}
	items := make(chan uint64)
	go NewCache2kProvider(bytes.NewBuffer(data)).Provide(context.Background(), items)
	got := drain(context.Background(), items)
	want := []uint64{1, 2, 0xffffffff}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestCache2kProviderStopsOnTruncatedTrailingRecord(t *testing.T) {
	data := []byte{1, 0, 0, 0, 9, 9}
	items := make(chan uint64)
	go NewCache2kProvider(bytes.NewBuffer(data)).Provide(context.Background(), items)
	got := drain(context.Background(), items)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("got %v, want [1]", got)
	}
}

func TestWikipediaProviderHashesRequestPath(t *testing.T) {
	data := "1190176453.945 http://en.wikipedia.org/wiki/Foo?x=1 200\n"
	items := make(chan uint64)
	go NewWikipediaProvider(bytes.NewBufferString(data)).Provide(context.Background(), items)
	got := drain(context.Background(), items)
	if len(got) != 1 {
		t.Fatalf("got %d items, want 1: %v", len(got), got)
	}
	want := hashString([]byte("/wiki/Foo"))
	if got[0] != want {
		t.Errorf("got %d, want %d", got[0], want)
	}
}

func TestWikipediaProviderSkipsLinesWithoutURL(t *testing.T) {
	data := "not a request line\n"
	items := make(chan uint64)
	go NewWikipediaProvider(bytes.NewBufferString(data)).Provide(context.Background(), items)
	got := drain(context.Background(), items)
	if len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestYoutubeProviderHashesVideoID(t *testing.T) {
	data := "GET /get_video?id=0 HTTP/1.1\nGETVIDEO abc123&foo=bar\n"
	items := make(chan uint64)
	go NewYoutubeProvider(bytes.NewBufferString(data)).Provide(context.Background(), items)
	got := drain(context.Background(), items)
	if len(got) != 1 {
		t.Fatalf("got %d items, want 1: %v", len(got), got)
	}
	want := hashString([]byte("abc123"))
	if got[0] != want {
		t.Errorf("got %d, want %d", got[0], want)
	}
}

func TestOpenGlobConcatenatesPlainFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "one\n")
	writeFile(t, filepath.Join(dir, "b.txt"), "two\n")

	r, err := OpenGlob(filepath.Join(dir, "*.txt"))
	if err != nil {
		t.Fatalf("OpenGlob: %v", err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "one\ntwo\n" {
		t.Errorf("got %q, want %q", got, "one\ntwo\n")
	}
}

func TestOpenGlobDecompressesGzipMembers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	gw := gzip.NewWriter(f)
	if _, err := gw.Write([]byte("0 0x1 10\n")); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := OpenGlob(path)
	if err != nil {
		t.Fatalf("OpenGlob: %v", err)
	}
	defer r.Close()

	items := make(chan uint64)
	go NewAddressProvider(r).Provide(context.Background(), items)
	got := drain(context.Background(), items)
	if len(got) != 1 || got[0] != 0x1 {
		t.Fatalf("got %v, want [0x1]", got)
	}
}

func TestOpenGlobReturnsErrorWhenNoFilesMatch(t *testing.T) {
	if _, err := OpenGlob(filepath.Join(t.TempDir(), "*.missing")); err == nil {
		t.Error("expected error for empty glob match, got nil")
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestHashStringIsDeterministic(t *testing.T) {
	a := hashString([]byte("/wiki/Foo"))
	b := hashString([]byte("/wiki/Foo"))
	if a != b {
		t.Errorf("hashString not deterministic: %d != %d", a, b)
	}
	if a == hashString([]byte("/wiki/Bar")) {
		t.Errorf("hashString collided on distinct inputs")
	}
}
