// Package storage serializes a built index into a self-contained binary
// artifact and decodes it back. The format is deterministic: encoding the
// same index twice yields identical bytes, and decoding is all-or-nothing.
package storage

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"staticsearch/internal/index"
)

// Format layout, little-endian throughout:
//
//	magic "SSIX" (4B) | version u16 | document count u32
//	per document: title, url, meta (u32 length + UTF-8 bytes each)
//	              seed u64 | block length u32 | token count u32 |
//	              fingerprint count u32 | fingerprint bytes
//	crc32 (IEEE) over everything after the magic
const (
	magic         = "SSIX"
	formatVersion = uint16(1)

	headerSize   = 4 + 2 + 4
	checksumSize = 4

	// maxStringLen bounds decoded string lengths so corrupt length
	// prefixes cannot trigger huge allocations.
	maxStringLen = 1 << 26

	// minEntrySize is the smallest possible encoded document: three empty
	// length-prefixed strings, seed, block length, token count, and an
	// empty fingerprint table.
	minEntrySize = 3*4 + 8 + 4 + 4 + 4
)

// DecodeError reports malformed, truncated, or corrupt index bytes.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode index: %s", e.Reason)
}

func decodeErrorf(format string, args ...any) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// Encode serializes the full ordered index, including every identity field
// and every filter's internal state.
func Encode(idx index.Index) []byte {
	buf := make([]byte, 0, headerSize+len(idx)*64)
	buf = append(buf, magic...)
	buf = binary.LittleEndian.AppendUint16(buf, formatVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(idx)))

	for _, entry := range idx {
		buf = appendString(buf, entry.ID.Title)
		buf = appendString(buf, entry.ID.URL)
		buf = appendString(buf, entry.ID.Meta)

		st := entry.Filter.State()
		buf = binary.LittleEndian.AppendUint64(buf, st.Seed)
		buf = binary.LittleEndian.AppendUint32(buf, st.BlockLength)
		buf = binary.LittleEndian.AppendUint32(buf, st.NumTokens)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(st.Fingerprints)))
		buf = append(buf, st.Fingerprints...)
	}

	checksum := crc32.ChecksumIEEE(buf[len(magic):])
	return binary.LittleEndian.AppendUint32(buf, checksum)
}

// Decode reconstructs an index from its serialized form. It never partially
// succeeds: any truncation, unknown structural tag, trailing garbage, or
// checksum mismatch yields a DecodeError and no index.
func Decode(data []byte) (index.Index, error) {
	if len(data) < headerSize+checksumSize {
		return nil, decodeErrorf("truncated input: %d bytes", len(data))
	}
	if string(data[:4]) != magic {
		return nil, decodeErrorf("bad magic %q", data[:4])
	}

	body := data[:len(data)-checksumSize]
	wantSum := binary.LittleEndian.Uint32(data[len(data)-checksumSize:])
	if gotSum := crc32.ChecksumIEEE(body[len(magic):]); gotSum != wantSum {
		return nil, decodeErrorf("checksum mismatch: got %#x want %#x", gotSum, wantSum)
	}

	r := reader{data: body, off: len(magic)}
	version := r.uint16()
	if version != formatVersion {
		return nil, decodeErrorf("unsupported format version %d", version)
	}

	// Bound the claimed count by what the remaining payload could hold, so
	// a corrupt prefix cannot force a huge pre-allocation.
	count := r.uint32()
	if int64(count)*minEntrySize > int64(len(body)-r.off) {
		return nil, decodeErrorf("document count %d exceeds payload size %d", count, len(body)-r.off)
	}

	idx := make(index.Index, 0, count)
	for i := uint32(0); i < count; i++ {
		title := r.string()
		url := r.string()
		meta := r.string()

		st := index.FilterState{
			Seed:        r.uint64(),
			BlockLength: r.uint32(),
			NumTokens:   r.uint32(),
		}
		st.Fingerprints = r.bytes(int(r.uint32()))

		if r.err != nil {
			return nil, decodeErrorf("document %d: %v", i, r.err)
		}
		// A filter that claims tokens must carry a usable fingerprint
		// table; block length zero would make every lookup panic.
		if st.NumTokens > 0 && (st.BlockLength == 0 || uint32(len(st.Fingerprints)) != 3*st.BlockLength) {
			return nil, decodeErrorf("document %d: fingerprint count %d does not match block length %d", i, len(st.Fingerprints), st.BlockLength)
		}
		idx = append(idx, index.DocumentFilter{
			ID:     index.DocumentID{Title: title, URL: url, Meta: meta},
			Filter: index.FilterFromState(st),
		})
	}

	if r.off != len(body) {
		return nil, decodeErrorf("%d trailing bytes after last document", len(body)-r.off)
	}
	return idx, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// reader is a cursor over the encoded payload. The first failure sticks and
// every subsequent read returns zero values.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("unexpected end of input at offset %d", r.off)
		return nil
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) uint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) string() string {
	n := r.uint32()
	if n > maxStringLen {
		if r.err == nil {
			r.err = fmt.Errorf("string length %d exceeds limit", n)
		}
		return ""
	}
	return string(r.take(int(n)))
}

func (r *reader) bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}
