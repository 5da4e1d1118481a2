package local

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// maxLineSize bounds a single line of a word-vector file.
const maxLineSize = 1 << 20

// wordVectors is a vocabulary of fixed-dimension vectors.
type wordVectors struct {
	dim   int
	words map[string][]float32
}

// loadWordVectors reads a word2vec/fastText text file. The first line may
// be a "<count> <dim>" header; every other line is a word followed by its
// components.
func loadWordVectors(path string) (*wordVectors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wv := &wordVectors{words: make(map[string][]float32)}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if lineNo == 1 && len(fields) == 2 {
			if _, err := strconv.Atoi(fields[0]); err == nil {
				dim, err := strconv.Atoi(fields[1])
				if err != nil || dim <= 0 {
					return nil, fmt.Errorf("line 1: invalid dimension %q", fields[1])
				}
				wv.dim = dim
				continue
			}
		}

		components := fields[1:]
		if wv.dim == 0 {
			wv.dim = len(components)
		}
		if len(components) != wv.dim {
			return nil, fmt.Errorf("line %d: expected %d components, got %d", lineNo, wv.dim, len(components))
		}

		vec := make([]float32, wv.dim)
		for i, c := range components {
			v, err := strconv.ParseFloat(c, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			vec[i] = float32(v)
		}
		wv.words[strings.ToLower(fields[0])] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(wv.words) == 0 {
		return nil, fmt.Errorf("no vectors in %s", path)
	}

	return wv, nil
}

// encode averages the vectors of known tokens. Unknown tokens are skipped.
func (wv *wordVectors) encode(tokens []string) []float32 {
	vec := make([]float32, wv.dim)
	for _, tok := range tokens {
		w, ok := wv.words[tok]
		if !ok {
			continue
		}
		for i, v := range w {
			vec[i] += v
		}
	}
	// Embed normalises, so the sum stands in for the mean.
	return vec
}
