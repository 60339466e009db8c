package categorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/startup_radar/pkg/config"
	"github.com/iWorld-y/startup_radar/pkg/logger"
	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

// chatModel 对话模型接口，收窄到本包用到的能力，便于测试注入
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// Categorizer 用 LLM 给创业公司打类目/子类目/主题标签
type Categorizer struct {
	cm      chatModel
	limiter *rate.Limiter
}

// New 创建分类器
func New(ctx context.Context, cfg *config.Config) (*Categorizer, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}

	limit := rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
	burst := cfg.Concurrency.QPS
	if burst < 1 {
		burst = 1
	}
	return &Categorizer{
		cm:      cm,
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// requestItem 发给模型的单条记录，id 是记录在输入表里的位置
type requestItem struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// labelItem 模型返回的单条标签
type labelItem struct {
	ID          int      `json:"id"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Themes      []string `json:"themes"`
}

// Categorize 一次批量请求给整张表打标签
//
// 关联键是记录在输入表里的位置，不是持久 ID：请求构造和响应回填
// 之间不允许对表重新排序，跨调用也不能复用。模型响应本身不保证
// 确定性，调用方应缓存结果而不是每次渲染都重打。
// 响应解析失败不报错：记录原始响应后所有记录回退到 "Other"。
func (c *Categorizer) Categorize(ctx context.Context, records []dm.StartupRecord) ([]dm.StartupRecord, error) {
	if len(records) == 0 {
		return records, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return records, err
	}

	prompt, err := buildPrompt(records)
	if err != nil {
		return records, fmt.Errorf("build prompt: %w", err)
	}

	logger.Log.Infof("发送分类请求（%d 条记录）...", len(records))
	resp, err := c.cm.Generate(ctx, []*schema.Message{
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		return records, fmt.Errorf("categorization request: %w", err)
	}
	logger.Log.Info("已收到分类响应")

	labels := parseResponse(resp.Content)

	// 先全部置为降级默认值，响应缺失的 id 保持 Other
	for i := range records {
		records[i].Category = "Other"
		records[i].Subcategory = ""
		records[i].Themes = ""
	}
	for _, item := range labels {
		if item.ID < 0 || item.ID >= len(records) {
			continue
		}
		if item.Category != "" {
			records[item.ID].Category = item.Category
		}
		records[item.ID].Subcategory = item.Subcategory
		records[item.ID].Themes = dm.JoinThemes(item.Themes)
	}
	return records, nil
}

// buildPrompt 构造批量分类提示词
func buildPrompt(records []dm.StartupRecord) (string, error) {
	items := make([]requestItem, 0, len(records))
	for i, r := range records {
		items = append(items, requestItem{ID: i, Name: r.Name, Description: r.Description})
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are an expert at analyzing and categorizing startups by their business themes and focus areas.

I have a list of startups with their descriptions. Please categorize each startup into appropriate themes using natural language understanding.

For each startup, provide:
1. A primary category (e.g., "AI Infrastructure", "Digital Health", "Developer Tools", "Fintech", "Enterprise Software", etc.)
2. A subcategory (more specific classification)
3. A list of relevant themes/tags

Here are the startups:

%s

Please respond with a JSON array where each object contains:
- id: the startup's id from the input
- category: the primary category
- subcategory: a more specific subcategory
- themes: an array of relevant theme tags

Focus on creating meaningful, consistent categories that help group similar companies together. Consider aspects like:
- Technology focus (AI/ML, blockchain, cloud, etc.)
- Industry vertical (healthcare, finance, education, etc.)
- Target customer (B2B, B2C, developer tools, enterprise, etc.)
- Problem space (productivity, infrastructure, security, etc.)

Return ONLY the JSON array, no additional text.`, string(data)), nil
}

// parseResponse 从模型原始输出里提取标签数组
// 模型可能在数组前后输出说明文字或 markdown 围栏，
// 这里取最外层的 [ ... ] 作为防御；解析失败记录原始响应并返回空集。
func parseResponse(raw string) []labelItem {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")

	start := strings.Index(clean, "[")
	end := strings.LastIndex(clean, "]")

	var payload string
	if start != -1 && end > start {
		payload = clean[start : end+1]
	} else {
		payload = clean
	}

	var labels []labelItem
	if err := json.Unmarshal([]byte(payload), &labels); err != nil {
		logger.Log.Errorf("解析分类响应失败: %v", err)
		logger.Log.Errorf("原始响应: %s", raw)
		return nil
	}
	return labels
}

// ThemeCount 主题及其出现次数
type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

// Summary 分类结果汇总
type Summary struct {
	TotalStartups int            `json:"total_startups"`
	Categories    map[string]int `json:"categories"`
	TopThemes     []ThemeCount   `json:"top_themes"`
}

// Summarize 统计类目分布和最高频的 15 个主题
func Summarize(records []dm.StartupRecord) Summary {
	s := Summary{
		TotalStartups: len(records),
		Categories:    make(map[string]int),
	}

	themeCounts := make(map[string]int)
	for _, r := range records {
		if r.Category != "" {
			s.Categories[r.Category]++
		}
		for _, t := range dm.SplitThemes(r.Themes) {
			themeCounts[t]++
		}
	}

	for t, n := range themeCounts {
		s.TopThemes = append(s.TopThemes, ThemeCount{Theme: t, Count: n})
	}
	sort.Slice(s.TopThemes, func(i, j int) bool {
		if s.TopThemes[i].Count != s.TopThemes[j].Count {
			return s.TopThemes[i].Count > s.TopThemes[j].Count
		}
		return s.TopThemes[i].Theme < s.TopThemes[j].Theme
	})
	if len(s.TopThemes) > 15 {
		s.TopThemes = s.TopThemes[:15]
	}
	return s
}
