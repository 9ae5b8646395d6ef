package persistence

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/edsrzf/mmap-go"
)

// frameHeaderSize is magic(4) + length(8).
const frameHeaderSize = 12
const frameTrailerSize = 4 // crc32

// Reader provides random-access, sequential replay over an action log by
// memory-mapping the whole file. Re-reading the file (Refresh) after the
// Writer appends more records lets a watcher or the prover poll the same
// file a live Writer is extending without re-opening it.
type Reader struct {
	f      *os.File
	data   mmap.MMap
	offset int
}

// NewReader memory-maps the action log at path for reading.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("persistence: open action log %q: %w", path, err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("persistence: mmap action log %q: %w", path, err)
	}
	return &Reader{f: f, data: data}, nil
}

// Seek repositions the reader at byte offset off.
func (r *Reader) Seek(off int) {
	r.offset = off
}

// Offset returns the reader's current byte position.
func (r *Reader) Offset() int {
	return r.offset
}

// ReadNext decodes and returns the next framed record, advancing the
// reader's offset past it. Returns (Record{}, false, nil) at EOF.
func (r *Reader) ReadNext() (Record, bool, error) {
	if r.offset+frameHeaderSize > len(r.data) {
		return Record{}, false, nil
	}
	magic := r.data[r.offset : r.offset+4]
	for i := range recordMagic {
		if magic[i] != recordMagic[i] {
			return Record{}, false, fmt.Errorf("persistence: bad frame magic at offset %d", r.offset)
		}
	}
	length := binary.LittleEndian.Uint64(r.data[r.offset+4 : r.offset+12])
	start := r.offset + frameHeaderSize
	end := start + int(length)
	if end+frameTrailerSize > len(r.data) {
		return Record{}, false, nil // partial trailing record: writer mid-append
	}
	payload := r.data[start:end]
	wantCRC := binary.LittleEndian.Uint32(r.data[end : end+frameTrailerSize])
	if gotCRC := crc32.ChecksumIEEE(payload); gotCRC != wantCRC {
		return Record{}, false, fmt.Errorf("persistence: crc mismatch at offset %d: got %x want %x", r.offset, gotCRC, wantCRC)
	}

	rec, err := decodeDeltaRecord(payload)
	if err != nil {
		return Record{}, false, err
	}
	r.offset = end + frameTrailerSize
	return rec, true, nil
}

// Refresh re-maps the file to pick up records a live Writer has appended
// since NewReader or the last Refresh. The reader's offset is preserved.
func (r *Reader) Refresh() error {
	if err := r.data.Unmap(); err != nil {
		return fmt.Errorf("persistence: unmap for refresh: %w", err)
	}
	data, err := mmap.Map(r.f, mmap.RDONLY, 0)
	if err != nil {
		return fmt.Errorf("persistence: remap after refresh: %w", err)
	}
	r.data = data
	return nil
}

// Close unmaps and closes the underlying file.
func (r *Reader) Close() error {
	if err := r.data.Unmap(); err != nil {
		return err
	}
	return r.f.Close()
}
