package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Metadata keys written for every chunk.
const (
	MetaDocumentID        = "document_id"
	MetaChunkIndex        = "chunk_index"
	MetaChunkSize         = "chunk_size"
	MetaTotalChunks       = "total_chunks"
	MetaEmbeddingProvider = "embedding_provider"
	MetaEmbeddingModel    = "embedding_model"
)

// Source metadata keys that survive into chunk metadata.
const (
	MetaFilename         = "filename"
	MetaFileSize         = "file_size"
	MetaFileType         = "file_type"
	MetaOriginalPath     = "original_path"
	MetaTextPath         = "txt_path"
	MetaConversionMethod = "conversion_method"
	MetaTitle            = "title"
)

// sourceFields is the allow-list of caller fields copied onto chunks.
var sourceFields = map[string]struct{}{
	MetaFilename:         {},
	MetaFileSize:         {},
	MetaFileType:         {},
	MetaOriginalPath:     {},
	MetaTextPath:         {},
	MetaConversionMethod: {},
	MetaTitle:            {},
}

// Metadata is a flat map of scalar values (string, bool, integer or float).
type Metadata map[string]any

// String returns the string value for key, or "" if absent or not a string.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Int returns the integer value for key.
// JSON round-trips store numbers as float64, so floats are truncated.
func (m Metadata) Int(key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	default:
		return 0
	}
}

// Clone returns a shallow copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Validate returns an error naming the first key whose value is not a scalar.
func (m Metadata) Validate() error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !IsScalar(m[k]) {
			return fmt.Errorf("metadata field %q has non-scalar type %T", k, m[k])
		}
	}
	return nil
}

// IsScalar reports whether v can be stored as a metadata value.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// SanitizeSourceMetadata keeps allow-listed keys with scalar values.
// Nested maps, slices and unknown keys are dropped.
func SanitizeSourceMetadata(in Metadata) Metadata {
	out := make(Metadata)
	for k, v := range in {
		if _, ok := sourceFields[k]; !ok {
			continue
		}
		if !IsScalar(v) {
			continue
		}
		out[k] = v
	}
	return out
}

// ChunkMetadata is the fixed schema stored with every chunk.
type ChunkMetadata struct {
	DocumentID        string
	ChunkIndex        int
	ChunkSize         int
	TotalChunks       int
	EmbeddingProvider string
	EmbeddingModel    string

	// Source holds allow-listed scalar source fields.
	Source Metadata
}

// ToMap flattens the metadata for storage.
func (c ChunkMetadata) ToMap() Metadata {
	out := SanitizeSourceMetadata(c.Source)
	out[MetaDocumentID] = c.DocumentID
	out[MetaChunkIndex] = c.ChunkIndex
	out[MetaChunkSize] = c.ChunkSize
	out[MetaTotalChunks] = c.TotalChunks
	if c.EmbeddingProvider != "" {
		out[MetaEmbeddingProvider] = c.EmbeddingProvider
	}
	if c.EmbeddingModel != "" {
		out[MetaEmbeddingModel] = c.EmbeddingModel
	}
	return out
}

// ChunkMetadataFromMap reads the fixed schema back from stored metadata.
func ChunkMetadataFromMap(m Metadata) ChunkMetadata {
	return ChunkMetadata{
		DocumentID:        m.String(MetaDocumentID),
		ChunkIndex:        m.Int(MetaChunkIndex),
		ChunkSize:         m.Int(MetaChunkSize),
		TotalChunks:       m.Int(MetaTotalChunks),
		EmbeddingProvider: m.String(MetaEmbeddingProvider),
		EmbeddingModel:    m.String(MetaEmbeddingModel),
		Source:            SanitizeSourceMetadata(m),
	}
}

// Filter is an exact-match metadata predicate. All pairs must match.
type Filter map[string]any

// DocumentFilter matches every chunk of a document.
func DocumentFilter(documentID string) Filter {
	return Filter{MetaDocumentID: documentID}
}

// Matches reports whether m satisfies every pair of the filter.
// Numbers compare by value regardless of their Go type.
func (f Filter) Matches(m Metadata) bool {
	for k, want := range f {
		got, ok := m[k]
		if !ok || !ScalarEqual(got, want) {
			return false
		}
	}
	return true
}

// ScalarEqual compares two scalar values, treating all numeric types alike.
func ScalarEqual(a, b any) bool {
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum || bNum {
		return aNum && bNum && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// MetadataFromJSON decodes a stored JSON object. Integral numbers come back
// as int and other numbers as float64.
func MetadataFromJSON(data []byte) (Metadata, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	out := make(Metadata, len(raw))
	for k, v := range raw {
		n, ok := v.(json.Number)
		if !ok {
			out[k] = v
			continue
		}
		if i, err := n.Int64(); err == nil {
			out[k] = int(i)
			continue
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("metadata field %q: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}
