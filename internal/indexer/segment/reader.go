package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
)

// ReadHeader returns the header of the snapshot at path without decoding
// its sections.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()
	buf := make([]byte, HeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return Header{}, fmt.Errorf("reading header: %w", err)
	}
	h := decodeHeader(buf)
	if err := h.check(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Read loads and verifies the snapshot at path.
func Read(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	if len(data) < HeaderSize+FooterSize {
		return nil, fmt.Errorf("invalid snapshot file: %d bytes is too short", len(data))
	}
	h := decodeHeader(data[:HeaderSize])
	if err := h.check(); err != nil {
		return nil, err
	}

	var total uint64
	for _, size := range h.SectionSizes {
		total += size
	}
	if uint64(len(data)) != uint64(HeaderSize)+total+uint64(FooterSize) {
		return nil, fmt.Errorf("invalid snapshot file: section sizes do not match file size")
	}
	body := data[HeaderSize : HeaderSize+int(total)]
	footer := data[HeaderSize+int(total):]
	if want, got := binary.LittleEndian.Uint32(footer[0:4]), crc32.ChecksumIEEE(body); want != got {
		return nil, fmt.Errorf("invalid snapshot file: checksum mismatch (want %08x, got %08x)", want, got)
	}

	snap := &Snapshot{Finalized: h.Finalized()}
	targets := [sectionCount]any{
		sectionDocuments:  &snap.Documents,
		sectionPositional: &snap.Positional,
		sectionWeighted:   &snap.Weighted,
		sectionLengths:    &snap.Lengths,
	}
	var off uint64
	for i, target := range targets {
		size := h.SectionSizes[i]
		if err := json.Unmarshal(body[off:off+size], target); err != nil {
			return nil, fmt.Errorf("parsing section %d: %w", i, err)
		}
		off += size
	}

	if len(snap.Documents) != int(h.DocCount) ||
		len(snap.Positional) != int(h.PositionalTerms) ||
		len(snap.Weighted) != int(h.WeightedTerms) {
		return nil, fmt.Errorf("invalid snapshot file: counts disagree with header")
	}
	return snap, nil
}

func (h Header) check() error {
	if h.Magic != MagicBytes {
		return fmt.Errorf("invalid snapshot file: bad magic bytes %x", h.Magic)
	}
	if h.Version != FormatVersion {
		return fmt.Errorf("unsupported snapshot version %d", h.Version)
	}
	return nil
}
