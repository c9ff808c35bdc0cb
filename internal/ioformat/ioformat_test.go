package ioformat

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kvieira/tboxtiming/internal/block"
	"github.com/kvieira/tboxtiming/internal/bruteforce"
	"github.com/kvieira/tboxtiming/internal/calibrate"
	"github.com/kvieira/tboxtiming/internal/correlate"
)

func TestReadTargetKeyRoundTrip(t *testing.T) {
	want := block.Block{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}
	got, err := ReadTargetKey(bytes.NewReader(want[:]))
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("ReadTargetKey = %x, want %x", got, want)
	}
}

func TestReadTargetKeyShortFails(t *testing.T) {
	_, err := ReadTargetKey(bytes.NewReader([]byte{1, 2, 3}))
	if err == nil {
		t.Fatal("expected error for short key file")
	}
}

func TestWriteRate(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRate(&buf, calibrate.Result{RatePerSecond: 1234.5, Threshold: 9000}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("rate file has %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "1234.5") {
		t.Fatalf("rate line = %q, want prefix 1234.5", lines[0])
	}
	if lines[1] != "9000" {
		t.Fatalf("threshold line = %q, want 9000", lines[1])
	}
}

func TestWriteRawDumpASCII(t *testing.T) {
	var buf bytes.Buffer
	records := []RawRecord{
		{Cleartext: block.Block{0xaa, 0xbb}, Ticks: 42},
	}
	if err := WriteRawDump(&buf, RawDumpASCII, records); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	if !strings.HasPrefix(got, "aa bb 00 00") {
		t.Fatalf("raw dump = %q, want prefix %q", got, "aa bb 00 00")
	}
	if !strings.HasSuffix(strings.TrimRight(got, "\n"), "42") {
		t.Fatalf("raw dump = %q, want suffix tick count 42", got)
	}
}

func TestWriteRawDumpBinaryLength(t *testing.T) {
	var buf bytes.Buffer
	records := []RawRecord{
		{Cleartext: block.Block{}, Ticks: 1},
		{Cleartext: block.Block{}, Ticks: 2},
	}
	if err := WriteRawDump(&buf, RawDumpBinary, records); err != nil {
		t.Fatal(err)
	}
	wantLen := len(records) * (block.Size + 4)
	if buf.Len() != wantLen {
		t.Fatalf("binary raw dump length = %d, want %d", buf.Len(), wantLen)
	}
}

func TestWriteCorrelationDumpOrdering(t *testing.T) {
	var m correlate.Matrix
	m[0][0x01] = 0.2
	m[0][0x02] = 0.9
	m[0][0x03] = 0.5

	var buf bytes.Buffer
	if err := WriteCorrelationDump(&buf, m); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// Position 0's three non-zero entries should appear before its 253
	// zero entries, ordered 0x02, 0x03, 0x01 by descending value.
	if !strings.Contains(lines[0], "02") {
		t.Fatalf("first line = %q, want candidate 02 first", lines[0])
	}
	if !strings.Contains(lines[1], "03") {
		t.Fatalf("second line = %q, want candidate 03 second", lines[1])
	}
	if !strings.Contains(lines[2], "01") {
		t.Fatalf("third line = %q, want candidate 01 third", lines[2])
	}
}

func TestPoolsRoundTrip(t *testing.T) {
	var pools bruteforce.Pools
	for i := 0; i < bruteforce.NumPositions; i++ {
		pools[i] = bruteforce.Pool{byte(i), byte(i + 1)}
	}
	// One position uses the full 256-candidate pool, exercising the
	// length_byte == 0 convention.
	full := make(bruteforce.Pool, 256)
	for b := range full {
		full[b] = byte(b)
	}
	pools[0] = full

	var buf bytes.Buffer
	if err := WritePools(&buf, pools); err != nil {
		t.Fatal(err)
	}

	got, err := ReadPools(&buf)
	if err != nil {
		t.Fatal(err)
	}
	// bruteforce.Pools is a fixed-size array of variable-length byte
	// slices; cmp.Diff reports exactly which position and which
	// candidate byte diverged, which a hand-rolled nested loop would
	// need several lines to reproduce.
	if diff := cmp.Diff(pools, got); diff != "" {
		t.Fatalf("ReadPools(WritePools(pools)) mismatch (-want +got):\n%s", diff)
	}
}

func TestDigestSidecarRoundTrip(t *testing.T) {
	content := []byte("accepted measurement stream")

	var digest bytes.Buffer
	if err := WriteDigestSidecar(&digest, bytes.NewReader(content)); err != nil {
		t.Fatal(err)
	}

	ok, err := VerifyDigestSidecar(bytes.NewReader(content), bytes.NewReader(digest.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("VerifyDigestSidecar = false, want true for unmodified content")
	}

	tampered := []byte("accepted measurement strea!")
	ok, err = VerifyDigestSidecar(bytes.NewReader(tampered), bytes.NewReader(digest.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("VerifyDigestSidecar = true, want false for tampered content")
	}
}
