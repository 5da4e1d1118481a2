// Package extractors turns uploaded files into plain text for ingestion.
//
// Each sub-package handles one family of file extensions. The Registry
// dispatches on extension and rejects anything outside the allow-list
// with domain.ErrUnsupportedType.
package extractors
