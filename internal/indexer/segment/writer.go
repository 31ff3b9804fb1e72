// Package segment persists a built engine as a single snapshot file: a
// fixed binary header, JSON sections and a checksum footer.
package segment

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
)

const (
	MagicBytes    uint32 = 0x56534D58
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FooterSize    int    = 8
)

const flagFinalized uint32 = 1

const (
	sectionDocuments = iota
	sectionPositional
	sectionWeighted
	sectionLengths
	sectionCount
)

// Header is the 64-byte little-endian header at the start of a snapshot.
//
//	0  magic          4  version        8  document count
//	12 positional terms 16 weighted terms 20 flags
//	24 created at (unix seconds)
//	32 section sizes, four uint64 in section order
//
// Sections follow the header back to back.
type Header struct {
	Magic           uint32
	Version         uint32
	DocCount        uint32
	PositionalTerms uint32
	WeightedTerms   uint32
	Flags           uint32
	CreatedAt       int64
	SectionSizes    [sectionCount]uint64
}

func (h Header) Finalized() bool { return h.Flags&flagFinalized != 0 }

func (h Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.DocCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.PositionalTerms)
	binary.LittleEndian.PutUint32(buf[16:20], h.WeightedTerms)
	binary.LittleEndian.PutUint32(buf[20:24], h.Flags)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(h.CreatedAt))
	for i, size := range h.SectionSizes {
		off := 32 + 8*i
		binary.LittleEndian.PutUint64(buf[off:off+8], size)
	}
	return buf
}

func decodeHeader(buf []byte) Header {
	h := Header{
		Magic:           binary.LittleEndian.Uint32(buf[0:4]),
		Version:         binary.LittleEndian.Uint32(buf[4:8]),
		DocCount:        binary.LittleEndian.Uint32(buf[8:12]),
		PositionalTerms: binary.LittleEndian.Uint32(buf[12:16]),
		WeightedTerms:   binary.LittleEndian.Uint32(buf[16:20]),
		Flags:           binary.LittleEndian.Uint32(buf[20:24]),
		CreatedAt:       int64(binary.LittleEndian.Uint64(buf[24:32])),
	}
	for i := range h.SectionSizes {
		off := 32 + 8*i
		h.SectionSizes[i] = binary.LittleEndian.Uint64(buf[off : off+8])
	}
	return h
}

// Snapshot is everything needed to rebuild an engine. Both indexes share
// the document list.
type Snapshot struct {
	Documents  []string
	Positional []index.TermEntry[index.PositionalPosting]
	Weighted   []index.TermEntry[index.WeightedPosting]
	Finalized  bool
	Lengths    []float64
}

// Writer writes snapshot files into a directory.
type Writer struct {
	dataDir string
}

func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// Write atomically replaces dataDir/name with snap. It writes to a .tmp
// file first and renames on success. It returns the final path.
func (w *Writer) Write(name string, snap *Snapshot) (string, error) {
	finalPath := filepath.Join(w.dataDir, name)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	sections := [sectionCount]any{
		sectionDocuments:  snap.Documents,
		sectionPositional: snap.Positional,
		sectionWeighted:   snap.Weighted,
		sectionLengths:    snap.Lengths,
	}
	header := Header{
		Magic:           MagicBytes,
		Version:         FormatVersion,
		DocCount:        uint32(len(snap.Documents)),
		PositionalTerms: uint32(len(snap.Positional)),
		WeightedTerms:   uint32(len(snap.Weighted)),
		CreatedAt:       time.Now().Unix(),
	}
	if snap.Finalized {
		header.Flags |= flagFinalized
	}

	var body bytes.Buffer
	for i, section := range sections {
		data, err := json.Marshal(section)
		if err != nil {
			return "", fmt.Errorf("marshaling section %d: %w", i, err)
		}
		header.SectionSizes[i] = uint64(len(data))
		body.Write(data)
	}
	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(body.Bytes()))
	binary.LittleEndian.PutUint32(footer[4:8], sectionCount)

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp snapshot file: %w", err)
	}
	defer f.Close()
	for _, chunk := range [][]byte{header.encode(), body.Bytes(), footer} {
		if _, err := f.Write(chunk); err != nil {
			os.Remove(tmpPath)
			return "", fmt.Errorf("writing snapshot: %w", err)
		}
	}
	if err := f.Sync(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("syncing snapshot file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("renaming snapshot file: %w", err)
	}
	return finalPath, nil
}
