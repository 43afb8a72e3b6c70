package serialize

import (
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// CRC32Table is the IEEE polynomial table used to checksum whole
// .modsum files. The record stream itself carries no checksum field;
// this wraps the file as a unit, guarding against storage or transport
// corruption rather than against a malicious producer.
var CRC32Table = crc32.MakeTable(crc32.IEEE)

// ChecksumWriter wraps an io.Writer and computes a running CRC32 of
// everything written through it.
type ChecksumWriter struct {
	w    io.Writer
	hash hash.Hash32
}

func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{w: w, hash: crc32.New(CRC32Table)}
}

func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	if _, err := cw.hash.Write(p); err != nil {
		return 0, err
	}
	return cw.w.Write(p)
}

func (cw *ChecksumWriter) Sum() uint32 { return cw.hash.Sum32() }

// ChecksumReader wraps an io.Reader and computes a running CRC32 of
// everything read through it.
type ChecksumReader struct {
	r    io.Reader
	hash hash.Hash32
}

func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{r: r, hash: crc32.New(CRC32Table)}
}

func (cr *ChecksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		if _, hashErr := cr.hash.Write(p[:n]); hashErr != nil {
			return n, hashErr
		}
	}
	return n, err
}

func (cr *ChecksumReader) Sum() uint32 { return cr.hash.Sum32() }

// ChecksumMismatchError is returned when a file's trailing checksum does
// not match the bytes that precede it.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}
