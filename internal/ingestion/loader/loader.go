// Package loader enumerates a labelled corpus laid out as
// <dir>/<label>/<file>.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
)

// Walk returns every document under dir. Each subdirectory of dir is a
// label and each regular file directly inside it a document; hidden files
// and files directly in dir are skipped. Documents are ordered by label,
// then file name, so repeated walks assign the same document ids.
func Walk(dir string) ([]ingestion.Document, error) {
	labels, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory: %w", err)
	}
	docs := make([]ingestion.Document, 0)
	for _, label := range sorted(labels) {
		if !label.IsDir() || hidden(label.Name()) {
			continue
		}
		labelDir := filepath.Join(dir, label.Name())
		files, err := os.ReadDir(labelDir)
		if err != nil {
			return nil, fmt.Errorf("reading label directory %s: %w", label.Name(), err)
		}
		for _, f := range sorted(files) {
			if !f.Type().IsRegular() || hidden(f.Name()) {
				continue
			}
			path := filepath.Join(labelDir, f.Name())
			text, err := ReadText(path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, ingestion.Document{Text: text, Label: label.Name(), Source: path})
		}
	}
	return docs, nil
}

// ReadText reads a whole file as text. Content that is not valid UTF-8 is
// decoded as ISO 8859-1, which every byte sequence is.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading document %s: %w", path, err)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding document %s: %w", path, err)
	}
	return string(decoded), nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func sorted(entries []os.DirEntry) []os.DirEntry {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries
}
