package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "records.csv")
	header := []string{"name", "stars"}
	rows := [][]string{{"Acme", "120"}, {"Beta", "30"}}

	if err := Save(path, header, rows, "GitHub API"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	gotHeader, gotRows, ok, err := Load(path, time.Hour)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !ok {
		t.Fatal("Load() ok = false, want hit")
	}
	if !reflect.DeepEqual(gotHeader, header) || !reflect.DeepEqual(gotRows, rows) {
		t.Errorf("Load() = %v %v, want %v %v", gotHeader, gotRows, header, rows)
	}
}

func TestSaveWritesMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	if err := Save(path, []string{"name"}, [][]string{{"a"}, {"b"}}, "Product Hunt"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path + ".meta.json")
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("unmarshal sidecar: %v", err)
	}
	if meta.RecordCount != 2 || meta.Source != "Product Hunt" {
		t.Errorf("metadata = %+v", meta)
	}
	if time.Since(meta.LastUpdated) > time.Minute {
		t.Errorf("LastUpdated = %v, want recent", meta.LastUpdated)
	}
}

func TestLoadMissingIsNotError(t *testing.T) {
	_, _, ok, err := Load(filepath.Join(t.TempDir(), "nope.csv"), time.Hour)
	if err != nil {
		t.Errorf("Load() error = %v, want nil", err)
	}
	if ok {
		t.Error("Load() ok = true, want miss")
	}
}

func TestLoadStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	if err := Save(path, []string{"name"}, [][]string{{"a"}}, "GitHub API"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// maxAge 为 0 时任何已落盘的缓存都算过期
	_, _, ok, err := Load(path, 0)
	if err != nil {
		t.Errorf("Load() error = %v, want nil", err)
	}
	if ok {
		t.Error("Load() ok = true, want stale miss")
	}
}

func TestLoadWithoutSidecar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	if err := os.WriteFile(path, []byte("name\na\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// 没有侧车无法判断新鲜度，按未命中处理
	_, _, ok, err := Load(path, time.Hour)
	if err != nil {
		t.Errorf("Load() error = %v, want nil", err)
	}
	if ok {
		t.Error("Load() ok = true, want miss")
	}
}
