package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/iWorld-y/startup_radar/pkg/cache"
	"github.com/iWorld-y/startup_radar/pkg/categorizer"
	"github.com/iWorld-y/startup_radar/pkg/config"
	"github.com/iWorld-y/startup_radar/pkg/dashboard"
	"github.com/iWorld-y/startup_radar/pkg/fetcher/hybrid"
	"github.com/iWorld-y/startup_radar/pkg/fetcher/local"
	"github.com/iWorld-y/startup_radar/pkg/logger"
	dm "github.com/iWorld-y/startup_radar/pkg/model"
	"github.com/iWorld-y/startup_radar/pkg/storage"
)

// CategorizedFile 分类结果缓存文件名
const CategorizedFile = "categorized_startups.csv"

// 分类缓存只看有没有，不看多新；用一个足够大的窗口让它永不过期
const categorizedMaxAge = 10 * 365 * 24 * time.Hour

var (
	flagconf     string
	recategorize bool
	port         int
	noDashboard  bool
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.BoolVar(&recategorize, "recategorize", false, "force recategorization even if cached labels exist")
	flag.IntVar(&port, "port", 8050, "dashboard server port")
	flag.BoolVar(&noDashboard, "no-dashboard", false, "categorize only, do not launch the dashboard")
}

func main() {
	flag.Parse()

	// 与 .env 约定保持一致，文件不存在时静默跳过
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}

	// 缺少补全服务凭证时无法产出任何有用结果，直接退出
	if cfg.LLM.APIKey == "" {
		fmt.Fprintln(os.Stderr, "ERROR: ANTHROPIC_API_KEY not found!")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Please follow these steps:")
		fmt.Fprintln(os.Stderr, "1. Copy .env.example to .env")
		fmt.Fprintln(os.Stderr, "2. Add your API key to the .env file")
		fmt.Fprintln(os.Stderr, "3. Run the application again")
		os.Exit(1)
	}

	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动创业雷达...")

	ctx := context.Background()

	// Step 1: 加载数据
	logger.Log.Infof("数据来源: %s", cfg.Data.Source)
	records := loadData(ctx, cfg)
	logger.Log.Infof("已加载 %d 家创业公司", len(records))

	// Step 2: 分类（带缓存）
	categorizedPath := filepath.Join(cfg.Data.Dir, CategorizedFile)
	records = categorize(ctx, cfg, records, categorizedPath)

	// 可选：落库
	if cfg.DB.Host != "" {
		persist(ctx, cfg, records)
	}

	if noDashboard {
		logger.Log.Infof("数据处理完成，分类结果已保存到 %s", categorizedPath)
		return
	}

	// Step 3: 启动看板
	d, err := dashboard.New(records, port)
	if err != nil {
		logger.Log.Errorf("看板启动失败: %v", err)
		os.Exit(1)
	}
	if err := d.Run(); err != nil {
		logger.Log.Errorf("看板异常退出: %v", err)
		os.Exit(1)
	}
	logger.Log.Info("看板已优雅退出")
}

// loadData 按配置的数据来源加载基础数据集
func loadData(ctx context.Context, cfg *config.Config) []dm.StartupRecord {
	maxAge := time.Duration(cfg.Data.CacheMaxAgeHours) * time.Hour

	switch cfg.Data.Source {
	case "hybrid":
		return hybrid.New(cfg).Combined(ctx)
	case "url":
		if cfg.Data.URL == "" {
			logger.Log.Warn("未配置 DATA_SOURCE_URL，回退到本地数据")
			return mustLocal(cfg)
		}
		return local.FetchURL(ctx, cfg.Data.URL, cfg.Data.Dir, maxAge)
	case "sample":
		records, err := local.CreateSampleData(cfg.Data.Dir)
		if err != nil {
			logger.Log.Errorf("写入样例数据失败: %v", err)
			return local.SampleStartups()
		}
		return records
	default:
		return mustLocal(cfg)
	}
}

func mustLocal(cfg *config.Config) []dm.StartupRecord {
	records, err := local.LoadLocal(cfg.Data.Dir)
	if err != nil {
		logger.Log.Errorf("加载本地数据失败: %v，回退到内置样例", err)
		return local.SampleStartups()
	}
	return records
}

// categorize 给数据集打标签，已有缓存且未要求重打时直接复用
func categorize(ctx context.Context, cfg *config.Config, records []dm.StartupRecord, path string) []dm.StartupRecord {
	if !recategorize {
		if cached, ok := loadCategorized(path); ok {
			logger.Log.Info("已从缓存加载分类结果（使用 --recategorize 可强制重打标签）")
			return cached
		}
	}

	logger.Log.Info("开始 LLM 分类，这可能需要一点时间...")
	cat, err := categorizer.New(ctx, cfg)
	if err != nil {
		logger.Log.Errorf("初始化分类器失败: %v", err)
		os.Exit(1)
	}

	labeled, err := cat.Categorize(ctx, records)
	if err != nil {
		logger.Log.Errorf("分类失败: %v，请检查 API Key 后重试", err)
		os.Exit(1)
	}

	if err := cache.Save(path, dm.Header(), dm.EncodeTable(labeled), "Categorizer"); err != nil {
		logger.Log.Warnf("写入分类缓存失败: %v", err)
	}

	summary := categorizer.Summarize(labeled)
	logger.Log.Info("分类完成，类目分布:")
	for c, n := range summary.Categories {
		logger.Log.Infof("  %s: %d", c, n)
	}
	return labeled
}

// loadCategorized 读取分类结果缓存，缺列或损坏按未命中处理
func loadCategorized(path string) ([]dm.StartupRecord, bool) {
	header, rows, ok, err := cache.Load(path, categorizedMaxAge)
	if err != nil || !ok {
		if err != nil {
			logger.Log.Warnf("读取分类缓存失败: %v", err)
		}
		return nil, false
	}
	records, err := dm.DecodeTable(header, rows)
	if err != nil {
		logger.Log.Warnf("分类缓存不完整: %v，将重新分类", err)
		return nil, false
	}
	if len(records) == 0 {
		return nil, false
	}
	return records, true
}

// persist 把最终数据集写入 Postgres，失败只降级不中断
func persist(ctx context.Context, cfg *config.Config, records []dm.StartupRecord) {
	st, err := storage.NewStorage(cfg.DB)
	if err != nil {
		logger.Log.Errorf("无法连接数据库: %v，跳过落库", err)
		return
	}
	defer st.Close()

	if err := st.SaveStartups(ctx, records); err != nil {
		logger.Log.Errorf("落库失败: %v", err)
		return
	}
	logger.Log.Infof("已将 %d 条记录写入数据库", len(records))
}
