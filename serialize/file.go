package serialize

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/hupe1980/modsum"
	"github.com/hupe1980/modsum/internal/fs"
	"github.com/hupe1980/modsum/summary"
)

// EncodeIndex produces the complete byte representation of a .modsum
// file for idx: the magic and record stream produced by WriteIndex,
// followed by a trailing 4-byte little-endian CRC32 of everything before
// it. It is the file-framing half of SaveIndex, without the filesystem
// write, so a caller that wants to apply its own storage or compression
// layer on top (see the compress and store packages) can do so.
func EncodeIndex(idx *summary.ModuleSummaryIndex) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteIndex(&buf, idx); err != nil {
		return nil, err
	}
	checksum := CalculateChecksum(buf.Bytes())
	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], checksum)
	buf.Write(trailer[:])
	return buf.Bytes(), nil
}

// DecodeIndex validates the trailing checksum of a complete .modsum byte
// stream, as produced by EncodeIndex, and decodes its record stream.
func DecodeIndex(data []byte) (*summary.ModuleSummaryIndex, error) {
	if len(data) < 4 {
		return nil, modsum.NewFormatError("file too short for checksum trailer", nil)
	}

	body, trailer := data[:len(data)-4], data[len(data)-4:]
	want := binary.LittleEndian.Uint32(trailer)
	got := CalculateChecksum(body)
	if want != got {
		return nil, &ChecksumMismatchError{Expected: want, Actual: got}
	}

	return ReadIndex(bytes.NewReader(body))
}

// SaveIndex writes idx to path as a complete .modsum file produced by
// EncodeIndex.
//
// The write goes to a temporary file in the same directory and is
// renamed into place, so a reader never observes a partially written
// file; fsys lets tests substitute a fault-injecting filesystem to
// exercise that guarantee.
func SaveIndex(fsys fs.FileSystem, path string, idx *summary.ModuleSummaryIndex) error {
	data, err := EncodeIndex(idx)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmpName := filepath.Join(dir, fmt.Sprintf(".%s.tmp", base))

	f, err := fsys.OpenFile(tmpName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	cleanup := true
	defer func() {
		if cleanup {
			_ = f.Close()
			_ = fsys.Remove(tmpName)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := fsys.Rename(tmpName, path); err != nil {
		return err
	}
	cleanup = false
	return nil
}

// LoadIndex reads and validates the trailing checksum of a .modsum file,
// then decodes its record stream.
func LoadIndex(fsys fs.FileSystem, path string) (*summary.ModuleSummaryIndex, error) {
	f, err := fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	data := make([]byte, info.Size())
	if _, err := f.ReadAt(data, 0); err != nil {
		return nil, err
	}

	return DecodeIndex(data)
}

// CalculateChecksum computes the CRC32 (IEEE) checksum of data.
func CalculateChecksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
