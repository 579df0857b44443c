package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeHistory creates a temp JSONL file and returns its path.
func writeHistory(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "7.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFile_SkipsMalformedLines(t *testing.T) {
	path := writeHistory(t,
		`{"ts":"2025-06-01T10:00:00Z","merchant":"Cafe","category":"restaurants","amount":4.5}`,
		`{not json`,
		`null`,
		`[1,2,3]`,
		``,
		`{"ts":"2025-06-02T10:00:00Z","merchant":"Grocer","category":"groceries","amount":"52.10"}`,
	)

	result := ParseFile(path, 7)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(result.Records))
	}
	if result.ParseErrors != 3 {
		t.Errorf("ParseErrors = %d, want 3", result.ParseErrors)
	}
	if result.Records[1].Amount != 52.10 {
		t.Errorf("Amount = %v, want 52.10", result.Records[1].Amount)
	}
	if result.Records[0].UserID != 7 {
		t.Errorf("UserID = %d, want 7", result.Records[0].UserID)
	}
}

func TestParseFile_SkipsOversizedLine(t *testing.T) {
	path := writeHistory(t,
		`{"ts":"2025-06-01T10:00:00Z","merchant":"A","category":"groceries","amount":1}`,
		`{"junk":"`+strings.Repeat("x", 2*maxLineSize)+`"}`,
		`{"ts":"2025-06-02T10:00:00Z","merchant":"B","category":"groceries","amount":2}`,
		`{"ts":"2025-06-03T10:00:00Z","merchant":"C","category":"groceries","amount":3}`,
	)

	result := ParseFile(path, 7)
	if len(result.Records) != 3 {
		t.Fatalf("Records = %d, want 3", len(result.Records))
	}
	if result.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", result.ParseErrors)
	}
	if result.Records[2].Merchant != "C" {
		t.Errorf("last merchant = %q, want C", result.Records[2].Merchant)
	}
}

func TestParseFile_Missing(t *testing.T) {
	result := ParseFile(filepath.Join(t.TempDir(), "nope.jsonl"), 1)
	if result.Err == nil {
		t.Fatal("expected error for missing file")
	}
	if len(result.Records) != 0 {
		t.Errorf("Records = %d, want 0", len(result.Records))
	}
}

func TestEncodeDecodeLine(t *testing.T) {
	path := writeHistory(t,
		`{"user_id":3,"ts":"2025-06-01 08:00:00","merchant":"Shell","category":"gas","amount":40,"is_recurring":true,"description":"fuel"}`,
	)
	result := ParseFile(path, 3)
	if len(result.Records) != 1 {
		t.Fatalf("Records = %d, want 1", len(result.Records))
	}
	rec := result.Records[0]

	line, err := EncodeLine(rec)
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecodeLine(line, 99)
	if err != nil {
		t.Fatal(err)
	}
	if back != rec {
		t.Errorf("round trip = %+v, want %+v", back, rec)
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"12.jsonl", "3.jsonl", "notes.jsonl", "4.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "5.jsonl"), 0o750); err != nil {
		t.Fatal(err)
	}

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	ids := UserIDs(files)
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 12 {
		t.Fatalf("UserIDs = %v, want [3 12]", ids)
	}
	if files[0].Path != HistoryPath(dir, 3) {
		t.Errorf("Path = %q, want %q", files[0].Path, HistoryPath(dir, 3))
	}
}

func TestScanDir_Missing(t *testing.T) {
	files, err := ScanDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if files != nil {
		t.Errorf("files = %v, want nil", files)
	}
}
