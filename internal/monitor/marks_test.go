package monitor

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMarks_MissingFileUsesDefault(t *testing.T) {
	got := LoadMarks(filepath.Join(t.TempDir(), ".danmu_mark"), newTestLogger())
	if !reflect.DeepEqual(got, DefaultMarks) {
		t.Errorf("LoadMarks() = %v, want %v", got, DefaultMarks)
	}
}

func TestLoadMarks_EmptyFileUsesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".danmu_mark")
	if err := os.WriteFile(path, []byte("\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := LoadMarks(path, newTestLogger())
	if !reflect.DeepEqual(got, DefaultMarks) {
		t.Errorf("LoadMarks() = %v, want %v", got, DefaultMarks)
	}
}

func TestLoadMarks_ReadsOneMarkPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".danmu_mark")
	if err := os.WriteFile(path, []byte("#\n＃\nmark\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := LoadMarks(path, newTestLogger())
	want := []string{"#", "＃", "mark"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadMarks() = %v, want %v", got, want)
	}
}

func TestLoadMarks_AmbiguousMarksKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".danmu_mark")
	if err := os.WriteFile(path, []byte("@\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Ambiguous marks warn but are never rejected.
	got := LoadMarks(path, newTestLogger())
	if !reflect.DeepEqual(got, []string{"@"}) {
		t.Errorf("LoadMarks() = %v, want [@]", got)
	}
}
