package domain

import "strconv"

// ChunkID builds the identifier for the chunk at index within a document.
// A document has no stored row of its own: it exists while at least one
// of its chunks "{document_id}_{index}" exists in a collection.
func ChunkID(documentID string, index int) string {
	return documentID + "_" + strconv.Itoa(index)
}
