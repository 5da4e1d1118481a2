package domain

import "fmt"

// DefaultCollection is used when a caller does not name a collection.
const DefaultCollection = "documents"

// maxCollectionName bounds collection names.
const maxCollectionName = 63

// ValidateCollectionName checks that name is 1-63 characters of [A-Za-z0-9_-].
func ValidateCollectionName(name string) error {
	if name == "" || len(name) > maxCollectionName {
		return fmt.Errorf("%w: collection name must be 1-%d characters", ErrInvalidInput, maxCollectionName)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return fmt.Errorf("%w: collection name %q contains %q", ErrInvalidInput, name, r)
		}
	}
	return nil
}

// CollectionInfo summarises a collection for status output.
type CollectionInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
