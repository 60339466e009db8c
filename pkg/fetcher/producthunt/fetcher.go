package producthunt

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iWorld-y/startup_radar/pkg/logger"
	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

// Fetcher Product Hunt 数据抓取器
// 官方 API 需要 OAuth 授权，线上抓取目前是占位实现，
// 实际数据来自运营者导出的 CSV 或内置样例。
type Fetcher struct {
	token string
}

// NewFetcher 创建 Product Hunt 抓取器，token 可为空
func NewFetcher(token string) *Fetcher {
	return &Fetcher{token: token}
}

// FetchRecent 抓取最近的产品发布
// 占位实现：返回结构完整但没有行的结果集。
func (f *Fetcher) FetchRecent(ctx context.Context, daysBack, limit int) []dm.Product {
	logger.Log.Infof("抓取 Product Hunt 最近 %d 天的发布...", daysBack)
	logger.Log.Info("完整的 Product Hunt 集成需要 API token，可改用 CSV 导入或内置样例数据")
	return []dm.Product{}
}

// ImportCSV 从运营者导出的 CSV 导入 Product Hunt 数据
// 读取失败按预期故障处理：记日志并返回空集。
func (f *Fetcher) ImportCSV(path string) []dm.Product {
	logger.Log.Infof("从 %s 导入 Product Hunt 数据...", path)

	file, err := os.Open(path)
	if err != nil {
		logger.Log.Errorf("导入 CSV 失败: %v", err)
		return nil
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		logger.Log.Errorf("解析 CSV 失败: %v", err)
		return nil
	}
	if len(all) < 2 {
		return nil
	}

	idx := make(map[string]int, len(all[0]))
	for i, h := range all[0] {
		idx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	atoi := func(s string) int { n, _ := strconv.Atoi(s); return n }

	products := make([]dm.Product, 0, len(all)-1)
	for _, row := range all[1:] {
		name := get(row, "name")
		if name == "" {
			continue
		}
		products = append(products, dm.Product{
			Name:        name,
			Tagline:     get(row, "tagline"),
			Description: get(row, "description"),
			Website:     get(row, "website"),
			LaunchDate:  get(row, "launch_date"),
			Upvotes:     atoi(get(row, "upvotes")),
			Comments:    atoi(get(row, "comments")),
			Topics:      get(row, "topics"),
			Maker:       get(row, "maker"),
			Featured:    strings.EqualFold(get(row, "featured"), "true"),
		})
	}

	logger.Log.Infof("已导入 %d 个产品", len(products))
	return products
}

// SampleProducts 返回内置的 Product Hunt 样例数据
func SampleProducts() []dm.Product {
	return []dm.Product{
		{
			Name:        "Cursor AI",
			Tagline:     "AI-first code editor",
			Description: "The AI-first code editor built to make you extraordinarily productive.",
			Website:     "https://cursor.sh",
			LaunchDate:  "2024-01-15",
			Upvotes:     2500,
			Comments:    180,
			Topics:      "developer tools, ai, coding",
			Maker:       "Cursor Team",
			Featured:    true,
		},
		{
			Name:        "v0 by Vercel",
			Tagline:     "Generate UI with AI",
			Description: "A generative user interface system by Vercel powered by AI.",
			Website:     "https://v0.dev",
			LaunchDate:  "2023-10-15",
			Upvotes:     3200,
			Comments:    250,
			Topics:      "ai, developer tools, design",
			Maker:       "Vercel",
			Featured:    true,
		},
		{
			Name:        "Supermaven",
			Tagline:     "Fastest AI code completion",
			Description: "Lightning-fast AI code completion with a 300,000 token context window.",
			Website:     "https://supermaven.com",
			LaunchDate:  "2024-02-01",
			Upvotes:     1800,
			Comments:    120,
			Topics:      "ai, developer tools, productivity",
			Maker:       "Jacob Jackson",
			Featured:    true,
		},
		{
			Name:        "Pika 1.0",
			Tagline:     "Idea-to-video platform",
			Description: "The idea-to-video platform that brings your creativity to motion.",
			Website:     "https://pika.art",
			LaunchDate:  "2023-11-28",
			Upvotes:     4100,
			Comments:    320,
			Topics:      "ai, video, creativity",
			Maker:       "Pika Labs",
			Featured:    true,
		},
		{
			Name:        "Perplexity Pages",
			Tagline:     "Turn research into beautiful content",
			Description: "Convert your Perplexity research into visually stunning, shareable pages.",
			Website:     "https://perplexity.ai",
			LaunchDate:  "2024-03-10",
			Upvotes:     2200,
			Comments:    145,
			Topics:      "ai, research, content",
			Maker:       "Perplexity AI",
			Featured:    true,
		},
	}
}

// EngagementMetrics 就地补充互动指标
// 发布当天的产品天数按 1 计，避免除零。
func EngagementMetrics(products []dm.Product, now time.Time) {
	for i := range products {
		products[i].EngagementScore = float64(products[i].Upvotes)*1.0 + float64(products[i].Comments)*2.0

		launch, err := time.Parse(time.DateOnly, products[i].LaunchDate)
		if err != nil {
			continue
		}
		days := int(now.Sub(launch).Hours() / 24)
		products[i].DaysSinceLaunch = days
		if days <= 0 {
			days = 1
		}
		products[i].UpvotesPerDay = float64(products[i].Upvotes) / float64(days)
	}
}
