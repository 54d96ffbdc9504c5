// Package registry holds the static catalog of recognized clinical code
// systems and the canonicalization rules applied to raw system URIs before
// any lookup.
//
// # Code Systems
//
// Four systems are registered out of the box:
//   - CPT (licensed, interchange)
//   - SNOMED CT (licensed, interchange)
//   - LOINC (open, interchange)
//   - NCIt OBO (open, obo_foundry)
//
// The table is process-wide, built once, and never mutated after init.
package registry

import "strings"

// LicenseTier classifies how a code system may be redistributed.
type LicenseTier string

const (
	LicenseLicensed     LicenseTier = "licensed"
	LicenseOpen         LicenseTier = "open"
	LicenseInternalOnly LicenseTier = "internal_only"
)

// SourceKind classifies where a code system's authoritative data comes from.
type SourceKind string

const (
	SourceInterchange SourceKind = "interchange"
	SourceUMLS        SourceKind = "umls"
	SourceOboFoundry  SourceKind = "obo_foundry"
	SourceLocal       SourceKind = "local"
)

// CodeSystemMeta is the static metadata registered for one code system.
type CodeSystemMeta struct {
	URL         string
	Name        string
	Version     string
	Description string
	LicenseTier LicenseTier
	SourceKind  SourceKind
}

var codeSystems = []CodeSystemMeta{
	{
		URL:         "http://www.ama-assn.org/go/cpt",
		Name:        "CPT",
		Description: "Current Procedural Terminology (AMA).",
		LicenseTier: LicenseLicensed,
		SourceKind:  SourceInterchange,
	},
	{
		URL:         "http://snomed.info/sct",
		Name:        "SNOMED CT",
		Description: "Systematized Nomenclature of Medicine -- Clinical Terms.",
		LicenseTier: LicenseLicensed,
		SourceKind:  SourceInterchange,
	},
	{
		URL:         "http://loinc.org",
		Name:        "LOINC",
		Description: "Logical Observation Identifiers Names and Codes.",
		LicenseTier: LicenseOpen,
		SourceKind:  SourceInterchange,
	},
	{
		URL:         "http://purl.obolibrary.org/obo/NCIT",
		Name:        "NCIt OBO",
		Description: "NCI Thesaurus (OBO Foundry distribution).",
		LicenseTier: LicenseOpen,
		SourceKind:  SourceOboFoundry,
	},
}

// legacyOIDs rewrites a small fixed set of legacy OID system identifiers to
// their canonical URIs. Anything not listed here passes through unchanged.
var legacyOIDs = map[string]string{
	"urn:oid:2.16.840.1.113883.6.96": "http://snomed.info/sct",
	"urn:oid:2.16.840.1.113883.6.1":  "http://loinc.org",
}

// Canonicalize trims, lowercases, strips a trailing slash, and rewrites
// legacy OIDs to their canonical URI. Returns "" if raw is empty after
// trimming.
func Canonicalize(raw string) string {
	url := strings.ToLower(strings.TrimSpace(raw))
	if url == "" {
		return ""
	}
	url = strings.TrimSuffix(url, "/")
	if canonical, ok := legacyOIDs[url]; ok {
		return canonical
	}
	return url
}

// Lookup returns the CodeSystemMeta registered for a canonical system URI.
// Comparison is case-insensitive to tolerate callers that bypass
// Canonicalize.
func Lookup(canonicalURL string) (CodeSystemMeta, bool) {
	for _, meta := range codeSystems {
		if strings.EqualFold(meta.URL, canonicalURL) {
			return meta, true
		}
	}
	return CodeSystemMeta{}, false
}

// IsLicensed reports whether the given canonical system URI is registered
// with LicenseLicensed.
func IsLicensed(canonicalURL string) bool {
	meta, ok := Lookup(canonicalURL)
	return ok && meta.LicenseTier == LicenseLicensed
}

// IsOpen reports whether the given canonical system URI is registered with
// LicenseOpen.
func IsOpen(canonicalURL string) bool {
	meta, ok := Lookup(canonicalURL)
	return ok && meta.LicenseTier == LicenseOpen
}

// List returns every registered code system, in registration order.
func List() []CodeSystemMeta {
	out := make([]CodeSystemMeta, len(codeSystems))
	copy(out, codeSystems)
	return out
}

// CodeKind classifies a coded element relative to the registry, ahead of
// mapping.
type CodeKind string

const (
	KindMissingSystemOrCode CodeKind = "missing_system_or_code"
	KindKnownLicensedSystem CodeKind = "known_licensed_system"
	KindKnownOpenSystem     CodeKind = "known_open_system"
	KindOboBacked           CodeKind = "obo_backed"
	KindUnknownSystem       CodeKind = "unknown_system"
)

// ClassifyCode derives the CodeKind for a raw (system, code) pair. system is
// canonicalized internally; callers need not do so beforehand.
func ClassifyCode(system, code string) (kind CodeKind, canonicalSystem string, meta CodeSystemMeta, found bool) {
	if strings.TrimSpace(system) == "" || strings.TrimSpace(code) == "" {
		return KindMissingSystemOrCode, "", CodeSystemMeta{}, false
	}

	canonicalSystem = Canonicalize(system)
	meta, found = Lookup(canonicalSystem)
	if !found {
		return KindUnknownSystem, canonicalSystem, CodeSystemMeta{}, false
	}

	if meta.SourceKind == SourceOboFoundry {
		return KindOboBacked, canonicalSystem, meta, true
	}
	if meta.LicenseTier == LicenseLicensed || meta.LicenseTier == LicenseInternalOnly {
		return KindKnownLicensedSystem, canonicalSystem, meta, true
	}
	return KindKnownOpenSystem, canonicalSystem, meta, true
}
