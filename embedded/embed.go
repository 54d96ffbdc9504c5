// Package embedded provides the reference-vocabulary snapshots bundled into
// the onco-map binary: the target-vocabulary concept table and the
// cross-reference table used for direct xref hits during mapping.
package embedded

import _ "embed"

// ConceptsJSON is the raw target-vocabulary concept table.
//
//go:embed concepts.json
var ConceptsJSON []byte

// XrefsJSON is the raw cross-reference table.
//
//go:embed xrefs.json
var XrefsJSON []byte
