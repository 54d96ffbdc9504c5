package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDataset(t *testing.T, dir, name string, cases []EvalCase, manifest Manifest) {
	t.Helper()

	var buf strings.Builder
	for _, c := range cases {
		raw, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("marshal case: %v", err)
		}
		buf.Write(raw)
		buf.WriteByte('\n')
	}
	data := []byte(buf.String())

	if manifest.SHA256 == "" {
		sum := sha256.Sum256(data)
		manifest.SHA256 = hex.EncodeToString(sum[:])
	}

	if err := os.WriteFile(DataPath(dir, name), data, 0o644); err != nil {
		t.Fatalf("write data file: %v", err)
	}
	manifestRaw, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	if err := os.WriteFile(ManifestPath(dir, name), manifestRaw, 0o644); err != nil {
		t.Fatalf("write manifest file: %v", err)
	}
}

func TestLoadHappyPath(t *testing.T) {
	dir := t.TempDir()
	cases := []EvalCase{
		{System: "http://www.ama-assn.org/go/cpt", Code: "78815", Display: "PET/CT", ExpectedNCITID: "NCIT:C19951"},
		{System: "http://loinc.org", Code: "24606-6", Display: "FDG uptake PET", ExpectedNCITID: "NCIT:C17747"},
	}
	writeDataset(t, dir, "small", cases, Manifest{
		Name: "small", Version: "1.0", License: "public-domain", NCases: 2,
	})

	var warnings []string
	outcome, err := Load(dir, "small", false, func(msg string) { warnings = append(warnings, msg) })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !outcome.ChecksumOK {
		t.Error("expected checksum to match")
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if len(outcome.Cases) != 2 {
		t.Errorf("got %d cases, want 2", len(outcome.Cases))
	}
}

func TestLoadWarnsOnMismatchedCountAndMissingLicense(t *testing.T) {
	dir := t.TempDir()
	cases := []EvalCase{{System: "http://loinc.org", Code: "1", ExpectedNCITID: "NCIT:C1"}}
	writeDataset(t, dir, "warny", cases, Manifest{Name: "warny", Version: "1.0", NCases: 5})

	var warnings []string
	_, err := Load(dir, "warny", false, func(msg string) { warnings = append(warnings, msg) })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) < 2 {
		t.Errorf("expected warnings for n_cases mismatch and missing license, got %v", warnings)
	}
}

func TestLoadChecksumMismatchWarnOnly(t *testing.T) {
	dir := t.TempDir()
	cases := []EvalCase{{System: "http://loinc.org", Code: "1", ExpectedNCITID: "NCIT:C1"}}
	writeDataset(t, dir, "bad-sum", cases, Manifest{
		Name: "bad-sum", Version: "1.0", License: "public-domain", NCases: 1, SHA256: strings.Repeat("0", 64),
	})

	outcome, err := Load(dir, "bad-sum", false, func(string) {})
	if err != nil {
		t.Fatalf("Load should not error in non-strict mode: %v", err)
	}
	if outcome.ChecksumOK {
		t.Error("expected checksum mismatch to be reported")
	}
}

func TestLoadChecksumMismatchFatalInStrictMode(t *testing.T) {
	dir := t.TempDir()
	cases := []EvalCase{{System: "http://loinc.org", Code: "1", ExpectedNCITID: "NCIT:C1"}}
	writeDataset(t, dir, "bad-sum-strict", cases, Manifest{
		Name: "bad-sum-strict", Version: "1.0", License: "public-domain", NCases: 1, SHA256: strings.Repeat("0", 64),
	})

	_, err := Load(dir, "bad-sum-strict", true, func(string) {})
	if err == nil {
		t.Fatal("expected checksum mismatch to be fatal in strict mode")
	}
	var mismatch *ChecksumMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("expected *ChecksumMismatchError, got %T: %v", err, err)
	}
}

func TestListManifestsSortedByName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		writeDataset(t, dir, name, []EvalCase{{System: "s", Code: "1", ExpectedNCITID: "NCIT:C1"}}, Manifest{
			Name: name, Version: "1.0", License: "l", NCases: 1,
		})
	}

	manifests, err := ListManifests(dir)
	if err != nil {
		t.Fatalf("ListManifests: %v", err)
	}
	if len(manifests) != 3 {
		t.Fatalf("got %d manifests, want 3", len(manifests))
	}
	if manifests[0].Name != "alpha" || manifests[1].Name != "mid" || manifests[2].Name != "zeta" {
		t.Errorf("manifests not sorted by name: %+v", manifests)
	}
}

func TestCaseReaderSkipsBlankLinesAndReportsLineNumber(t *testing.T) {
	body := "\n{\"system\":\"s\",\"code\":\"1\",\"expected_ncit_id\":\"NCIT:C1\"}\n   \nnot-json\n"
	r := NewCaseReader(strings.NewReader(body))

	first, ok, err := r.Next()
	if err != nil || !ok {
		t.Fatalf("expected first case, got ok=%v err=%v", ok, err)
	}
	if first.Code != "1" {
		t.Errorf("unexpected case: %+v", first)
	}

	_, ok, err = r.Next()
	if ok || err == nil {
		t.Fatalf("expected parse error, got ok=%v err=%v", ok, err)
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if parseErr.Line != 4 {
		t.Errorf("line = %d, want 4", parseErr.Line)
	}
}

func TestManifestPathAndDataPath(t *testing.T) {
	if got, want := ManifestPath("root", "ds"), filepath.Join("root", "ds.manifest.json"); got != want {
		t.Errorf("ManifestPath = %q, want %q", got, want)
	}
	if got, want := DataPath("root", "ds"), filepath.Join("root", "ds.ndjson"); got != want {
		t.Errorf("DataPath = %q, want %q", got, want)
	}
}
