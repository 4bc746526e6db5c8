package segment

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
)

type Reader struct {
	filePath string
	header   Header
	dump     index.Dump
}

// OpenReader reads and verifies the snapshot at path. A missing file yields
// an error matching fs.ErrNotExist.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	headerBytes := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, headerBytes); err != nil {
		return nil, fmt.Errorf("reading snapshot header: %w", err)
	}
	header := decodeHeader(headerBytes)
	if header.Magic != MagicBytes {
		return nil, fmt.Errorf("invalid snapshot file: bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", header.Version)
	}

	payload := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(f, payload); err != nil {
		return nil, fmt.Errorf("reading snapshot payload: %w", err)
	}
	if sum := crc32.ChecksumIEEE(payload); sum != header.Checksum {
		return nil, fmt.Errorf("snapshot checksum mismatch: header %08x, payload %08x", header.Checksum, sum)
	}

	var dump index.Dump
	if err := json.Unmarshal(payload, &dump); err != nil {
		return nil, fmt.Errorf("parsing snapshot payload: %w", err)
	}
	if len(dump.Documents) != int(header.DocCount) ||
		len(dump.Words) != int(header.WordCount) ||
		len(dump.Mappings) != int(header.MappingCount) {
		return nil, fmt.Errorf("snapshot record counts do not match header")
	}
	if dump.Documents == nil {
		dump.Documents = []index.DumpedDocument{}
	}
	if dump.Words == nil {
		dump.Words = []index.DumpedWord{}
	}
	if dump.Mappings == nil {
		dump.Mappings = []index.DumpedWordMapping{}
	}
	return &Reader{filePath: path, header: header, dump: dump}, nil
}

func (r *Reader) Header() Header {
	return r.header
}

func (r *Reader) Dump() index.Dump {
	return r.dump
}

func (r *Reader) Path() string {
	return r.filePath
}
