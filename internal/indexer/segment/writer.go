// Package segment reads and writes index snapshot files. A snapshot holds
// a complete index dump behind a fixed header carrying record counts and a
// CRC-32 of the payload.
package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
)

// MagicBytes identifies a snapshot file ("WSNP").
const (
	MagicBytes    uint32 = 0x57534E50
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
)

// Header is the 64-byte header written at the start of every snapshot.
type Header struct {
	Magic        uint32
	Version      uint32
	DocCount     uint32
	WordCount    uint32
	MappingCount uint32
	Checksum     uint32
	CreatedAt    int64
	PayloadSize  int64
}

func (h Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.DocCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.WordCount)
	binary.LittleEndian.PutUint32(buf[16:20], h.MappingCount)
	binary.LittleEndian.PutUint32(buf[20:24], h.Checksum)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(h.PayloadSize))
	return buf
}

func decodeHeader(buf []byte) Header {
	return Header{
		Magic:        binary.LittleEndian.Uint32(buf[0:4]),
		Version:      binary.LittleEndian.Uint32(buf[4:8]),
		DocCount:     binary.LittleEndian.Uint32(buf[8:12]),
		WordCount:    binary.LittleEndian.Uint32(buf[12:16]),
		MappingCount: binary.LittleEndian.Uint32(buf[16:20]),
		Checksum:     binary.LittleEndian.Uint32(buf[20:24]),
		CreatedAt:    int64(binary.LittleEndian.Uint64(buf[24:32])),
		PayloadSize:  int64(binary.LittleEndian.Uint64(buf[32:40])),
	}
}

// Writer replaces a single snapshot file.
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write atomically replaces the snapshot with dump. It writes to a .tmp
// file first and renames on success.
func (w *Writer) Write(dump index.Dump) (string, error) {
	payload, err := json.Marshal(dump)
	if err != nil {
		return "", fmt.Errorf("marshaling snapshot payload: %w", err)
	}
	header := Header{
		Magic:        MagicBytes,
		Version:      FormatVersion,
		DocCount:     uint32(len(dump.Documents)),
		WordCount:    uint32(len(dump.Words)),
		MappingCount: uint32(len(dump.Mappings)),
		Checksum:     crc32.ChecksumIEEE(payload),
		CreatedAt:    time.Now().Unix(),
		PayloadSize:  int64(len(payload)),
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}
	tmpPath := w.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp snapshot file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(header.encode()); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		return "", fmt.Errorf("writing payload: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing snapshot file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, w.path); err != nil {
		return "", fmt.Errorf("renaming snapshot file: %w", err)
	}
	return w.path, nil
}
