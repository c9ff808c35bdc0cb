// Package ioformat implements the file formats from spec.md §6: the
// target-key file, rate file, raw/correlation/tally dumps, and the
// brute-force pool input file (bf.dat).
package ioformat

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/kvieira/tboxtiming/internal/block"
	"github.com/kvieira/tboxtiming/internal/bruteforce"
	"github.com/kvieira/tboxtiming/internal/calibrate"
	"github.com/kvieira/tboxtiming/internal/correlate"
	"github.com/kvieira/tboxtiming/internal/tally"
)

// ReadTargetKey reads the 16 raw key bytes from the target-key file
// (spec.md §6).
func ReadTargetKey(r io.Reader) (block.Block, error) {
	buf := make([]byte, block.Size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return block.Block{}, fmt.Errorf("ioformat: reading target key: %w", err)
	}
	return block.FromSlice(buf)
}

// WriteRate writes the rate file: two text lines, `<rate>\n<threshold>\n`
// (spec.md §6).
func WriteRate(w io.Writer, result calibrate.Result) error {
	_, err := fmt.Fprintf(w, "%f\n%d\n", result.RatePerSecond, result.Threshold)
	if err != nil {
		return fmt.Errorf("ioformat: writing rate file: %w", err)
	}
	return nil
}

// RawDumpFormat selects the raw-dump encoding (spec.md §6 describes
// both an ASCII and a binary form). RawDumpASCII is the zero value, and
// cmd/tboxattack always writes ASCII.
type RawDumpFormat int

const (
	RawDumpASCII RawDumpFormat = iota
	RawDumpBinary
)

// RawRecord is one accepted measurement: the cleartext block and its
// tick count.
type RawRecord struct {
	Cleartext block.Block
	Ticks     block.Tick
}

// WriteRawDump writes one record per accepted measurement, in the
// requested format (spec.md §6 "Raw dump").
//
// ASCII: 16 space-separated hex bytes, a decimal tick count, newline.
// Binary: 16 raw cleartext bytes followed by a 4-byte native-endian
// tick count, truncating ticks above 2^32-1 (acceptable here since raw
// dumps are a diagnostic artifact, not the statistics pipeline's input
// — the tally table, not the dump, is authoritative).
func WriteRawDump(w io.Writer, format RawDumpFormat, records []RawRecord) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		switch format {
		case RawDumpASCII:
			if err := writeRawASCII(bw, rec); err != nil {
				return err
			}
		case RawDumpBinary:
			if err := writeRawBinary(bw, rec); err != nil {
				return err
			}
		default:
			return fmt.Errorf("ioformat: unknown raw dump format %d", format)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("ioformat: flushing raw dump: %w", err)
	}
	return nil
}

func writeRawASCII(w io.Writer, rec RawRecord) error {
	for i, b := range rec.Cleartext {
		if i > 0 {
			if _, err := io.WriteString(w, " "); err != nil {
				return fmt.Errorf("ioformat: writing raw dump: %w", err)
			}
		}
		if _, err := io.WriteString(w, hex.EncodeToString([]byte{b})); err != nil {
			return fmt.Errorf("ioformat: writing raw dump: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, " %d\n", rec.Ticks); err != nil {
		return fmt.Errorf("ioformat: writing raw dump: %w", err)
	}
	return nil
}

func writeRawBinary(w io.Writer, rec RawRecord) error {
	if _, err := w.Write(rec.Cleartext[:]); err != nil {
		return fmt.Errorf("ioformat: writing raw dump: %w", err)
	}
	var tickBuf [4]byte
	binary.NativeEndian.PutUint32(tickBuf[:], uint32(rec.Ticks))
	if _, err := w.Write(tickBuf[:]); err != nil {
		return fmt.Errorf("ioformat: writing raw dump: %w", err)
	}
	return nil
}

// WriteCorrelationDump writes a correlation dump (spec.md §6): for each
// position, every byte ordered by descending coefficient (stable on
// ties), formatted `"%2d %02x %lf\n"`.
func WriteCorrelationDump(w io.Writer, m correlate.Matrix) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < correlate.NumPositions; i++ {
		order := descendingByValue(m[i][:])
		for _, b := range order {
			if _, err := fmt.Fprintf(bw, "%2d %02x %f\n", i, b, m[i][b]); err != nil {
				return fmt.Errorf("ioformat: writing correlation dump: %w", err)
			}
		}
	}
	return flushOrWrap(bw, "correlation dump")
}

// WriteTallyDump writes a tally dump (spec.md §6): per position and
// byte, ordered by descending normalized mean, `"%2d %02x %lld %lf\n"`
// with (count, normalized_mean).
func WriteTallyDump(w io.Writer, rs *tally.RunState, mv [tally.NumPositions][tally.NumByteValues]float64) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < tally.NumPositions; i++ {
		order := descendingByValue(mv[i][:])
		for _, b := range order {
			cell := rs.Table[i][b]
			if _, err := fmt.Fprintf(bw, "%2d %02x %d %f\n", i, b, cell.Count, mv[i][b]); err != nil {
				return fmt.Errorf("ioformat: writing tally dump: %w", err)
			}
		}
	}
	return flushOrWrap(bw, "tally dump")
}

// descendingByValue returns byte values 0..255 ordered by descending
// values[b], stable on ties, with NaN sorted last (the same convention
// package bruteforce's TopN uses, since both are ranking candidate
// bytes by a possibly-degenerate floating-point score).
func descendingByValue(values []float64) []byte {
	order := make([]byte, len(values))
	for b := range order {
		order[b] = byte(b)
	}
	sort.SliceStable(order, func(a, c int) bool {
		va, vc := values[order[a]], values[order[c]]
		if math.IsNaN(va) {
			return false
		}
		if math.IsNaN(vc) {
			return true
		}
		return va > vc
	})
	return order
}

func flushOrWrap(bw *bufio.Writer, what string) error {
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("ioformat: flushing %s: %w", what, err)
	}
	return nil
}

// ReadPools reads bf.dat: 16 repetitions of (length_byte,
// length_bytes_of_candidates), where length_byte == 0 denotes 256
// (spec.md §6).
func ReadPools(r io.Reader) (bruteforce.Pools, error) {
	var pools bruteforce.Pools
	br := bufio.NewReader(r)
	for i := 0; i < bruteforce.NumPositions; i++ {
		lenByte, err := br.ReadByte()
		if err != nil {
			return bruteforce.Pools{}, fmt.Errorf("ioformat: reading bf.dat length at position %d: %w", i, err)
		}
		n := int(lenByte)
		if n == 0 {
			n = 256
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return bruteforce.Pools{}, fmt.Errorf("ioformat: reading bf.dat candidates at position %d: %w", i, err)
		}
		pools[i] = bruteforce.Pool(buf)
	}
	return pools, nil
}

// WritePools writes bf.dat in the same format ReadPools consumes, the
// counterpart an external pool-selection tool (or the multi-test-key
// driver's own TopN helper) would use to hand candidates to a later
// brute-force invocation.
func WritePools(w io.Writer, pools bruteforce.Pools) error {
	bw := bufio.NewWriter(w)
	for i, pool := range pools {
		n := len(pool)
		if n > 256 || n == 0 {
			return fmt.Errorf("ioformat: writing bf.dat: position %d has invalid pool length %d", i, n)
		}
		lenByte := byte(n)
		if n == 256 {
			lenByte = 0
		}
		if err := bw.WriteByte(lenByte); err != nil {
			return fmt.Errorf("ioformat: writing bf.dat: %w", err)
		}
		if _, err := bw.Write(pool); err != nil {
			return fmt.Errorf("ioformat: writing bf.dat: %w", err)
		}
	}
	return flushOrWrap(bw, "bf.dat")
}
