package dashboard

import (
	"encoding/json"
	"fmt"
	"html/template"
	nethttp "net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/startup_radar/pkg/categorizer"
	"github.com/iWorld-y/startup_radar/pkg/format"
	"github.com/iWorld-y/startup_radar/pkg/logger"
	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

// Dashboard 只读的可视化看板，不向核心回写任何数据
type Dashboard struct {
	records []dm.StartupRecord
	port    int
	tpl     *template.Template
}

// New 创建看板
// 输入表必须非空且已完成分类（name/category/funding_total/founded_year/themes
// 列齐备），否则视为配置错误直接拒绝启动，而不是默默画空图。
func New(records []dm.StartupRecord, port int) (*Dashboard, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("dashboard requires a non-empty dataset")
	}
	categorized := false
	for _, r := range records {
		if r.Name == "" {
			return nil, fmt.Errorf("dashboard dataset contains a record without name")
		}
		if r.Category != "" {
			categorized = true
		}
	}
	if !categorized {
		return nil, fmt.Errorf("dashboard dataset has no category labels; run categorization first")
	}

	tpl, err := template.New("dashboard").Parse(htmlTpl)
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}

	return &Dashboard{records: records, port: port, tpl: tpl}, nil
}

// Run 启动 HTTP 服务并阻塞，收到中断信号后优雅退出
func (d *Dashboard) Run() error {
	srv := khttp.NewServer(
		khttp.Address(fmt.Sprintf(":%d", d.port)),
		khttp.Middleware(recovery.Recovery()),
	)
	srv.HandleFunc("/", d.handleIndex)
	srv.HandleFunc("/api/startups", d.handleStartups)
	srv.HandleFunc("/api/summary", d.handleSummary)

	app := kratos.New(
		kratos.Name("startup_radar"),
		kratos.Server(srv),
	)

	logger.Log.Infof("看板已启动: http://127.0.0.1:%d", d.port)
	return app.Run()
}

// apiRecord 暴露给页面脚本和 JSON API 的记录视图
type apiRecord struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Source           string  `json:"source"`
	Category         string  `json:"category"`
	Subcategory      string  `json:"subcategory"`
	Themes           string  `json:"themes"`
	FundingTotal     float64 `json:"funding_total"`
	FundingDisplay   string  `json:"funding_display"`
	FoundedYear      int     `json:"founded_year"`
	GitHubStars      int     `json:"github_stars"`
	PHUpvotes        int     `json:"ph_upvotes"`
	StarVelocity     float64 `json:"star_velocity"`
	CombinedMomentum float64 `json:"combined_momentum"`
}

// filtered 按类目过滤记录，"all" 或空表示不过滤
func (d *Dashboard) filtered(category string) []dm.StartupRecord {
	if category == "" || category == "all" {
		return d.records
	}
	var out []dm.StartupRecord
	for _, r := range d.records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

func toAPIRecords(records []dm.StartupRecord) []apiRecord {
	out := make([]apiRecord, 0, len(records))
	for _, r := range records {
		out = append(out, apiRecord{
			Name:             r.Name,
			Description:      r.Description,
			Source:           string(r.Source),
			Category:         r.Category,
			Subcategory:      r.Subcategory,
			Themes:           r.Themes,
			FundingTotal:     r.FundingTotal,
			FundingDisplay:   format.FormatAmount(r.FundingTotal),
			FoundedYear:      r.FoundedYear,
			GitHubStars:      r.GitHubStars,
			PHUpvotes:        r.PHUpvotes,
			StarVelocity:     r.StarVelocity,
			CombinedMomentum: r.CombinedMomentum,
		})
	}
	return out
}

// pageData 模板渲染数据
type pageData struct {
	Date          string
	TotalStartups int
	CategoryCount int
	TotalFunding  string
	Categories    []string
	RecordsJSON   template.JS
}

func (d *Dashboard) handleIndex(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.URL.Path != "/" {
		nethttp.NotFound(w, r)
		return
	}

	summary := categorizer.Summarize(d.records)

	var totalFunding float64
	for _, rec := range d.records {
		totalFunding += rec.FundingTotal
	}

	categories := make([]string, 0, len(summary.Categories))
	for c := range summary.Categories {
		categories = append(categories, c)
	}
	sortStrings(categories)

	data, err := json.Marshal(toAPIRecords(d.records))
	if err != nil {
		nethttp.Error(w, err.Error(), nethttp.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := d.tpl.Execute(w, pageData{
		Date:          time.Now().Format("2006-01-02"),
		TotalStartups: summary.TotalStartups,
		CategoryCount: len(summary.Categories),
		TotalFunding:  format.FormatAmount(totalFunding),
		Categories:    categories,
		RecordsJSON:   template.JS(data),
	}); err != nil {
		logger.Log.Errorf("渲染看板失败: %v", err)
	}
}

func (d *Dashboard) handleStartups(w nethttp.ResponseWriter, r *nethttp.Request) {
	writeJSON(w, toAPIRecords(d.filtered(r.URL.Query().Get("category"))))
}

func (d *Dashboard) handleSummary(w nethttp.ResponseWriter, r *nethttp.Request) {
	writeJSON(w, categorizer.Summarize(d.filtered(r.URL.Query().Get("category"))))
}

func writeJSON(w nethttp.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("写出 JSON 失败: %v", err)
	}
}

func sortStrings(ss []string) {
	sort.Slice(ss, func(i, j int) bool {
		return strings.ToLower(ss[i]) < strings.ToLower(ss[j])
	})
}
