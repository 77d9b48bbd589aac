// Package chunker splits extracted document text into overlapping segments.
package chunker

import "fmt"

// Default splitting parameters, in characters (code points).
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// defaultSeparators is the boundary preference order: paragraph, line, word.
// A hard character cut is the final fallback.
var defaultSeparators = []string{"\n\n", "\n", " "}

// Splitter cuts text into chunks of at most chunkSize runes. Each chunk after
// the first repeats the previous chunk's last overlap runes. Splitting is
// deterministic for identical input and parameters.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators [][]rune
}

// New creates a Splitter. chunkSize must be positive and overlap must satisfy
// 0 <= overlap < chunkSize.
func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", chunkSize, overlap)
	}

	seps := make([][]rune, len(defaultSeparators))
	for i, s := range defaultSeparators {
		seps[i] = []rune(s)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap, separators: seps}, nil
}

// Split returns the ordered chunk texts for the given input. Empty input
// yields no chunks. Concatenating the chunks with each chunk's leading
// overlap runes removed reconstructs the input exactly.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + s.chunkSize
		if end >= n {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := s.cutPoint(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - s.overlap
		if next <= start {
			// Guard against stalling; cutPoint keeps cuts past the overlap
			// window so this only fires on degenerate parameters.
			next = cut
		}
		start = next
	}
	return chunks
}

// cutPoint picks the cut position in (start, end]: the position right after
// the last occurrence of the most preferred separator found in the window,
// or end (hard cut) when no separator qualifies. The window floor keeps every
// chunk longer than the overlap and at least half the chunk size.
func (s *Splitter) cutPoint(runes []rune, start, end int) int {
	minCut := start + s.chunkSize/2
	if floor := start + s.overlap + 1; floor > minCut {
		minCut = floor
	}

	for _, sep := range s.separators {
		for i := end - len(sep); i+len(sep) >= minCut && i >= start; i-- {
			if matchAt(runes, i, sep) {
				return i + len(sep)
			}
		}
	}
	return end
}

func matchAt(runes []rune, pos int, sep []rune) bool {
	for j, r := range sep {
		if runes[pos+j] != r {
			return false
		}
	}
	return true
}
