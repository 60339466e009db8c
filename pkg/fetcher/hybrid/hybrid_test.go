package hybrid

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/iWorld-y/startup_radar/pkg/cache"
	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

func TestLoadCombinedCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	records := []dm.StartupRecord{
		{Name: "Acme", Source: dm.SourceGitHub, MomentumScore: 142.5, CombinedMomentum: 171.5,
			Category: "Developer Tools", Themes: "ai, coding", FundingTotal: 5_000_000, FoundedYear: 2024},
		{Name: "PayCo", Source: dm.SourceSample, Category: "Fintech"},
	}
	path := filepath.Join(dir, cacheSubdir, CombinedFile)
	if err := cache.Save(path, dm.Header(), dm.EncodeTable(records), "GitHub, Product Hunt, Manual Enrichment"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, ok, err := LoadCombinedCache(dir, time.Hour)
	if err != nil {
		t.Fatalf("LoadCombinedCache() error = %v", err)
	}
	if !ok {
		t.Fatal("LoadCombinedCache() ok = false, want hit")
	}
	if len(got) != 2 || got[0].Name != "Acme" || got[0].CombinedMomentum != 171.5 {
		t.Errorf("records = %+v", got)
	}
	if got[1].Category != "Fintech" {
		t.Errorf("records[1].Category = %q, want Fintech", got[1].Category)
	}
}

func TestLoadCombinedCacheMiss(t *testing.T) {
	got, ok, err := LoadCombinedCache(t.TempDir(), time.Hour)
	if err != nil || ok || got != nil {
		t.Errorf("LoadCombinedCache() = %v, %v, %v, want 未命中且无错误", got, ok, err)
	}
}

func TestLoadCombinedCacheStale(t *testing.T) {
	dir := t.TempDir()
	records := []dm.StartupRecord{{Name: "Acme", Source: dm.SourceGitHub, Category: "Other"}}
	path := filepath.Join(dir, cacheSubdir, CombinedFile)
	if err := cache.Save(path, dm.Header(), dm.EncodeTable(records), "GitHub"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, ok, err := LoadCombinedCache(dir, 0); err != nil || ok {
		t.Errorf("LoadCombinedCache(maxAge=0) ok = %v err = %v, want 过期未命中", ok, err)
	}
}
