package categorizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

// mockChatModel 返回固定内容的对话模型
type mockChatModel struct {
	resp string
	err  error

	lastPrompt string
}

func (m *mockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if len(input) > 0 {
		m.lastPrompt = input[0].Content
	}
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.resp}, nil
}

func newTestCategorizer(cm chatModel) *Categorizer {
	return &Categorizer{cm: cm, limiter: rate.NewLimiter(rate.Inf, 1)}
}

func TestCategorizeJoinsByPosition(t *testing.T) {
	mock := &mockChatModel{resp: "Here are the results:\n```json\n[\n" +
		`  {"id": 1, "category": "Developer Tools", "subcategory": "AI Coding", "themes": ["ai", "coding"]},` + "\n" +
		`  {"id": 0, "category": "Fintech", "subcategory": "Payments", "themes": ["payments"]}` + "\n" +
		"]\n```"}
	c := newTestCategorizer(mock)

	records := []dm.StartupRecord{
		{Name: "PayCo", Description: "payments api"},
		{Name: "CodeCo", Description: "ai coding"},
	}
	got, err := c.Categorize(context.Background(), records)
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}

	if got[0].Category != "Fintech" || got[0].Themes != "payments" {
		t.Errorf("records[0] = %q/%q, want Fintech/payments", got[0].Category, got[0].Themes)
	}
	if got[1].Category != "Developer Tools" || got[1].Subcategory != "AI Coding" {
		t.Errorf("records[1] = %q/%q", got[1].Category, got[1].Subcategory)
	}
	if got[1].Themes != "ai, coding" {
		t.Errorf("records[1] themes = %q, want 逗号拼接", got[1].Themes)
	}
}

func TestCategorizePromptContainsRecords(t *testing.T) {
	mock := &mockChatModel{resp: "[]"}
	c := newTestCategorizer(mock)

	_, err := c.Categorize(context.Background(), []dm.StartupRecord{{Name: "PayCo", Description: "payments api"}})
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	for _, want := range []string{`"id": 0`, `"name": "PayCo"`, "JSON array"} {
		if !strings.Contains(mock.lastPrompt, want) {
			t.Errorf("prompt 缺少 %q", want)
		}
	}
}

func TestCategorizeUnparsableFallsBackToOther(t *testing.T) {
	mock := &mockChatModel{resp: "I cannot categorize these startups."}
	c := newTestCategorizer(mock)

	records := []dm.StartupRecord{
		{Name: "Acme", Category: "stale", Subcategory: "stale", Themes: "stale"},
	}
	got, err := c.Categorize(context.Background(), records)
	if err != nil {
		t.Fatalf("Categorize() error = %v（解析失败应降级而不是报错）", err)
	}
	if got[0].Category != "Other" || got[0].Subcategory != "" || got[0].Themes != "" {
		t.Errorf("records[0] = %q/%q/%q, want Other/空/空", got[0].Category, got[0].Subcategory, got[0].Themes)
	}
}

func TestCategorizeMissingIDStaysOther(t *testing.T) {
	// 响应里只有一条、且带一个越界 id，越界的忽略，缺席的保持 Other
	mock := &mockChatModel{resp: `[{"id": 0, "category": "Fintech"}, {"id": 7, "category": "Ghost"}]`}
	c := newTestCategorizer(mock)

	records := []dm.StartupRecord{{Name: "A"}, {Name: "B"}}
	got, err := c.Categorize(context.Background(), records)
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if got[0].Category != "Fintech" {
		t.Errorf("records[0].Category = %q, want Fintech", got[0].Category)
	}
	if got[1].Category != "Other" {
		t.Errorf("records[1].Category = %q, want Other", got[1].Category)
	}
}

func TestCategorizeModelError(t *testing.T) {
	mock := &mockChatModel{err: errors.New("rate limited")}
	c := newTestCategorizer(mock)

	_, err := c.Categorize(context.Background(), []dm.StartupRecord{{Name: "A"}})
	if err == nil {
		t.Error("Categorize() error = nil, want wrapped model error")
	}
}

func TestCategorizeEmptyInput(t *testing.T) {
	mock := &mockChatModel{resp: "[]"}
	c := newTestCategorizer(mock)

	got, err := c.Categorize(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("Categorize(nil) = %v, %v", got, err)
	}
	if mock.lastPrompt != "" {
		t.Error("空输入不应该发请求")
	}
}

func TestSummarize(t *testing.T) {
	records := []dm.StartupRecord{
		{Category: "Fintech", Themes: "ai, payments"},
		{Category: "Fintech", Themes: "payments"},
		{Category: "Other", Themes: "ai"},
		{Themes: ""},
	}
	s := Summarize(records)

	if s.TotalStartups != 4 {
		t.Errorf("TotalStartups = %d, want 4", s.TotalStartups)
	}
	if s.Categories["Fintech"] != 2 || s.Categories["Other"] != 1 {
		t.Errorf("Categories = %v", s.Categories)
	}
	// 次数相同按字母序：ai 和 payments 都是 2 次
	if len(s.TopThemes) != 2 || s.TopThemes[0].Theme != "ai" || s.TopThemes[1].Theme != "payments" {
		t.Errorf("TopThemes = %v", s.TopThemes)
	}
}

func TestSummarizeTopThemesCapped(t *testing.T) {
	var records []dm.StartupRecord
	themes := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o", "p", "q", "r"}
	for _, th := range themes {
		records = append(records, dm.StartupRecord{Category: "Other", Themes: th})
	}
	s := Summarize(records)
	if len(s.TopThemes) != 15 {
		t.Errorf("TopThemes len = %d, want 15", len(s.TopThemes))
	}
}
