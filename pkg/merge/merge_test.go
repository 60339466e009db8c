package merge

import (
	"testing"

	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

func TestMergeGitHubOnly(t *testing.T) {
	repos := []dm.GitHubRepo{
		{Name: "Acme", Description: "AI infra", Stars: 120, Forks: 10, Watchers: 5, CreatedAt: "2024-03-01T00:00:00Z", Homepage: "https://acme.dev"},
		{Name: "Beta", Stars: 10, Forks: 0, Watchers: 0, CreatedAt: "2023-06-15T00:00:00Z"},
	}

	records := Merge(repos, nil)
	if len(records) != 2 {
		t.Fatalf("Merge() len = %d, want 2", len(records))
	}

	// PH 为空时合并结果就是 GitHub 投影，combined == momentum
	for _, r := range records {
		if r.Source != dm.SourceGitHub {
			t.Errorf("%s source = %q, want GitHub", r.Name, r.Source)
		}
		if r.CombinedMomentum != r.MomentumScore {
			t.Errorf("%s combined = %v, want momentum %v", r.Name, r.CombinedMomentum, r.MomentumScore)
		}
		if r.FundingTotal != 0 {
			t.Errorf("%s funding = %v, want 0", r.Name, r.FundingTotal)
		}
	}

	if records[0].Name != "Acme" {
		t.Errorf("records[0] = %s, want Acme（按动量降序）", records[0].Name)
	}
	if records[0].MomentumScore != 142.5 {
		t.Errorf("Acme momentum = %v, want 142.5", records[0].MomentumScore)
	}
	if records[0].FoundedYear != 2024 {
		t.Errorf("Acme founded_year = %d, want 2024", records[0].FoundedYear)
	}
}

func TestMergeDedupCaseInsensitive(t *testing.T) {
	repos := []dm.GitHubRepo{
		{Name: "Acme", Description: "AI infra", Stars: 120, Forks: 10, Watchers: 5, CreatedAt: "2024-03-01T00:00:00Z"},
	}
	products := []dm.Product{
		{Name: "acme", Tagline: "AI for everyone", Website: "https://acme.ph", LaunchDate: "2024-04-01", Upvotes: 50, Comments: 4},
	}

	records := Merge(repos, products)
	if len(records) != 1 {
		t.Fatalf("Merge() len = %d, want 1（按名称去重）", len(records))
	}

	r := records[0]
	if r.Name != "Acme" {
		t.Errorf("name = %q, want Acme（保留首个来源的写法）", r.Name)
	}
	if r.Source != dm.SourceGitHub {
		t.Errorf("source = %q, want GitHub（首个来源优先）", r.Source)
	}
	if r.GitHubStars != 120 || r.PHUpvotes != 50 {
		t.Errorf("stars = %d upvotes = %d, want 120/50（两边字段都要有）", r.GitHubStars, r.PHUpvotes)
	}
	if r.MomentumScore != 142.5 {
		t.Errorf("momentum = %v, want 142.5", r.MomentumScore)
	}
	if r.CombinedMomentum != 171.5 {
		t.Errorf("combined = %v, want 171.5", r.CombinedMomentum)
	}
	// GitHub 没填 website 时才回填 PH 的
	if r.Website != "https://acme.ph" {
		t.Errorf("website = %q, want PH 回填值", r.Website)
	}
	// description 两边都有时保留先到的
	if r.Description != "AI infra" {
		t.Errorf("description = %q, want GitHub 原值", r.Description)
	}
}

func TestMergeFirstSourceWinsOnConflict(t *testing.T) {
	repos := []dm.GitHubRepo{
		{Name: "Acme", Description: "AI infra", Homepage: "https://acme.dev", Stars: 1, CreatedAt: "2024-03-01T00:00:00Z"},
	}
	products := []dm.Product{
		{Name: "Acme", Tagline: "Other tagline", Website: "https://acme.ph"},
	}

	r := Merge(repos, products)[0]
	if r.Website != "https://acme.dev" {
		t.Errorf("website = %q, want GitHub 原值（冲突时丢弃后来的）", r.Website)
	}
}

func TestMergeProductHuntOnly(t *testing.T) {
	products := []dm.Product{
		{Name: "Pika 1.0", Tagline: "Idea-to-video platform", LaunchDate: "2023-11-28", Upvotes: 4100, Comments: 320},
	}

	records := Merge(nil, products)
	if len(records) != 1 {
		t.Fatalf("Merge() len = %d, want 1", len(records))
	}
	r := records[0]
	if r.Source != dm.SourceProductHunt {
		t.Errorf("source = %q, want Product Hunt", r.Source)
	}
	if r.CombinedMomentum != 4100*0.5+320*1.0 {
		t.Errorf("combined = %v, want %v", r.CombinedMomentum, 4100*0.5+320*1.0)
	}
	if r.FoundedYear != 2023 {
		t.Errorf("founded_year = %d, want 2023", r.FoundedYear)
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	if records := Merge(nil, nil); len(records) != 0 {
		t.Errorf("Merge(nil, nil) len = %d, want 0", len(records))
	}
}

func TestApplyEnrichmentOverwrite(t *testing.T) {
	records := []dm.StartupRecord{
		{Name: "Acme", Source: dm.SourceGitHub, FundingTotal: 123, Location: "Nowhere"},
	}
	rows := []dm.Enrichment{
		{Name: "ACME", Fields: map[string]string{"funding_total": "5000000", "location": "San Francisco, CA"}},
	}

	got := ApplyEnrichment(records, rows)
	if got[0].FundingTotal != 5_000_000 {
		t.Errorf("funding = %v, want 5000000（补充值总是覆盖）", got[0].FundingTotal)
	}
	if got[0].Location != "San Francisco, CA" {
		t.Errorf("location = %q", got[0].Location)
	}
}

func TestApplyEnrichmentNoMatchIsNoop(t *testing.T) {
	records := []dm.StartupRecord{
		{Name: "Acme", FundingTotal: 123},
	}
	rows := []dm.Enrichment{
		{Name: "Ghost Startup", Fields: map[string]string{"funding_total": "9000000"}},
	}

	got := ApplyEnrichment(records, rows)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1（不做 insert-on-miss）", len(got))
	}
	if got[0].FundingTotal != 123 {
		t.Errorf("funding = %v, want 123（未匹配的行不产生任何影响）", got[0].FundingTotal)
	}
}

func TestApplyEnrichmentIgnoresUnknownColumns(t *testing.T) {
	records := []dm.StartupRecord{{Name: "Acme"}}
	rows := []dm.Enrichment{
		{Name: "Acme", Fields: map[string]string{"investors": "a16z", "funding_total": "1000000"}},
	}

	got := ApplyEnrichment(records, rows)
	if got[0].FundingTotal != 1_000_000 {
		t.Errorf("funding = %v, want 1000000", got[0].FundingTotal)
	}
}
