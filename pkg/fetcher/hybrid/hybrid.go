package hybrid

import (
	"context"
	"path/filepath"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/iWorld-y/startup_radar/pkg/cache"
	"github.com/iWorld-y/startup_radar/pkg/config"
	"github.com/iWorld-y/startup_radar/pkg/fetcher/github"
	"github.com/iWorld-y/startup_radar/pkg/fetcher/producthunt"
	"github.com/iWorld-y/startup_radar/pkg/logger"
	"github.com/iWorld-y/startup_radar/pkg/merge"
	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

// CombinedFile 合并数据缓存文件名
const CombinedFile = "combined_startups.csv"

// cacheSubdir 各来源缓存所在子目录
const cacheSubdir = "cache"

// Fetcher 跨来源聚合抓取器
// 组合 GitHub 的技术动量、Product Hunt 的发布热度和人工补充的融资数据。
type Fetcher struct {
	cfg    *config.Config
	github *github.Client
	ph     *producthunt.Fetcher
}

// New 创建聚合抓取器
func New(cfg *config.Config) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		github: github.NewClient(cfg.GitHub.Token),
		ph:     producthunt.NewFetcher(cfg.ProductHunt.Token),
	}
}

func (f *Fetcher) cacheDir() string {
	return filepath.Join(f.cfg.Data.Dir, cacheSubdir)
}

func (f *Fetcher) maxAge() time.Duration {
	return time.Duration(f.cfg.Data.CacheMaxAgeHours) * time.Hour
}

// fetchGitHub 取 GitHub 数据：缓存命中优先，否则现抓并回写缓存
func (f *Fetcher) fetchGitHub(ctx context.Context) []dm.GitHubRepo {
	repos, ok, err := github.LoadCache(f.cacheDir(), f.maxAge())
	if err != nil {
		logger.Log.Warnf("读取 GitHub 缓存失败: %v", err)
	}
	if ok && len(repos) > 0 {
		return repos
	}

	repos = f.github.FetchTrending(ctx, github.SearchOptions{
		Topics:   f.cfg.GitHub.Topics,
		MinStars: f.cfg.GitHub.MinStars,
		DaysBack: f.cfg.GitHub.DaysBack,
		Limit:    f.cfg.GitHub.Limit,
	})
	if len(repos) > 0 {
		if err := github.SaveCache(f.cacheDir(), repos); err != nil {
			logger.Log.Warnf("写入 GitHub 缓存失败: %v", err)
		}
	}
	return repos
}

// fetchProductHunt 取 Product Hunt 数据
// 优先级：缓存 -> 运营者 CSV -> 内置样例。
func (f *Fetcher) fetchProductHunt(ctx context.Context) []dm.Product {
	products, ok, err := producthunt.LoadCache(f.cacheDir(), f.maxAge())
	if err != nil {
		logger.Log.Warnf("读取 Product Hunt 缓存失败: %v", err)
	}
	if ok && len(products) > 0 {
		return products
	}

	if f.cfg.ProductHunt.CSVPath != "" {
		products = f.ph.ImportCSV(f.cfg.ProductHunt.CSVPath)
	}
	if len(products) == 0 {
		products = f.ph.FetchRecent(ctx, 30, 50)
	}
	if len(products) == 0 {
		products = producthunt.SampleProducts()
	}

	producthunt.EngagementMetrics(products, time.Now())
	if len(products) > 0 {
		if err := producthunt.SaveCache(f.cacheDir(), products); err != nil {
			logger.Log.Warnf("写入 Product Hunt 缓存失败: %v", err)
		}
	}
	return products
}

// Combined 产出完整的合并数据集
// 流程：各来源抓取 -> 合并去重 -> 人工补充 -> 描述补全 -> 写合并缓存。
func (f *Fetcher) Combined(ctx context.Context) []dm.StartupRecord {
	repos := f.fetchGitHub(ctx)
	products := f.fetchProductHunt(ctx)

	records := merge.Merge(repos, products)
	records = merge.ApplyEnrichment(records, merge.LoadEnrichment(f.cfg.Data.EnrichmentPath))

	if f.cfg.Data.EnrichDescriptions {
		f.enrichDescriptions(records)
	}

	if err := cache.Save(
		filepath.Join(f.cacheDir(), CombinedFile),
		dm.Header(), dm.EncodeTable(records),
		"GitHub, Product Hunt, Manual Enrichment",
	); err != nil {
		logger.Log.Warnf("写入合并缓存失败: %v", err)
	}
	return records
}

// enrichDescriptions 对描述过短且有官网的记录抓取官网正文补全描述
func (f *Fetcher) enrichDescriptions(records []dm.StartupRecord) {
	const minLen = 40
	const maxLen = 300

	for i := range records {
		if records[i].Website == "" || len(records[i].Description) >= minLen {
			continue
		}
		content, err := fetchAndCleanContent(records[i].Website)
		if err != nil {
			logger.Log.Debugf("官网抓取失败 [%s]: %v", records[i].Name, err)
			continue
		}
		if len(content) > maxLen {
			content = content[:maxLen]
		}
		if len(content) > len(records[i].Description) {
			records[i].Description = content
			logger.Log.Debugf("已用官网正文补全描述 [%s]", records[i].Name)
		}
	}
}

// fetchAndCleanContent 抓取 URL 并提取核心文本
func fetchAndCleanContent(url string) (string, error) {
	article, err := readability.FromURL(url, 10*time.Second)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

// LoadCombinedCache 读取在 maxAge 内的合并数据缓存
func LoadCombinedCache(dir string, maxAge time.Duration) ([]dm.StartupRecord, bool, error) {
	header, rows, ok, err := cache.Load(filepath.Join(dir, cacheSubdir, CombinedFile), maxAge)
	if err != nil || !ok {
		return nil, false, err
	}
	records, err := dm.DecodeTable(header, rows)
	if err != nil {
		return nil, false, err
	}
	return records, true, nil
}
