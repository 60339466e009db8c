package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/startup_radar/pkg/logger"
	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

const defaultBaseURL = "https://api.github.com"

// Client GitHub 搜索 API 客户端
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient 创建一个新的 GitHub 客户端
// token 可为空，匿名访问会受更严格的速率限制。
func NewClient(token string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		// 逐个 topic 查询之间保持约 1 req/s，遵守上游限流
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// SearchOptions 趋势仓库搜索参数
type SearchOptions struct {
	Topics   []string
	MinStars int
	DaysBack int
	Limit    int
}

// searchResponse GitHub 搜索接口响应
type searchResponse struct {
	TotalCount int        `json:"total_count"`
	Items      []repoItem `json:"items"`
}

// repoItem 单条仓库搜索结果
type repoItem struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	HTMLURL         string   `json:"html_url"`
	Homepage        string   `json:"homepage"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	WatchersCount   int      `json:"watchers_count"`
	OpenIssuesCount int      `json:"open_issues_count"`
	Language        string   `json:"language"`
	Topics          []string `json:"topics"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	PushedAt        string   `json:"pushed_at"`
	Owner           struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// FetchTrending 按主题抓取趋势创业公司仓库
// 预期内的失败（超时、非 2xx、限流）只记日志并返回已收集的部分结果，
// 永远不向调用方抛错，看板宁可降级也不中断。
func (c *Client) FetchTrending(ctx context.Context, opts SearchOptions) []dm.GitHubRepo {
	logger.Log.Infof("正在从 GitHub 抓取趋势仓库，主题: %s，最低 star 数: %d",
		strings.Join(opts.Topics, ", "), opts.MinStars)

	dateThreshold := time.Now().AddDate(0, 0, -opts.DaysBack).Format(time.DateOnly)

	var all []repoItem
	for _, topic := range opts.Topics {
		if err := c.limiter.Wait(ctx); err != nil {
			logger.Log.Warnf("抓取被取消: %v", err)
			break
		}

		items, status, err := c.searchTopic(ctx, topic, opts.MinStars, dateThreshold, opts.Limit)
		if err != nil {
			logger.Log.Errorf("搜索主题失败 [%s]: %v", topic, err)
			continue
		}
		if status == http.StatusForbidden {
			// 触发限流：停止剩余主题，但保留已收集的结果
			logger.Log.Warnf("GitHub 速率限制已触发，停止剩余主题查询。可配置 GITHUB_TOKEN 提升额度")
			break
		}
		if status != http.StatusOK {
			logger.Log.Errorf("搜索主题失败 [%s]: status %d", topic, status)
			continue
		}

		logger.Log.Infof("主题 [%s] 命中 %d 个仓库", topic, len(items))
		all = append(all, items...)
	}

	if len(all) == 0 {
		logger.Log.Warn("GitHub 未返回任何仓库")
		return nil
	}

	repos := project(dedupByID(all), opts.Limit)
	GrowthMetrics(repos, time.Now())
	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].MomentumScore > repos[j].MomentumScore
	})

	logger.Log.Infof("共获得 %d 个去重后的创业公司仓库", len(repos))
	return repos
}

// searchTopic 查询单个主题，返回结果与 HTTP 状态码
func (c *Client) searchTopic(ctx context.Context, topic string, minStars int, dateThreshold string, limit int) ([]repoItem, int, error) {
	perPage := limit
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}

	q := url.Values{}
	q.Set("q", fmt.Sprintf("topic:%s stars:>%d created:>%s", topic, minStars, dateThreshold))
	q.Set("sort", "stars")
	q.Set("order", "desc")
	q.Set("per_page", fmt.Sprintf("%d", perPage))

	endpoint := fmt.Sprintf("%s/search/repositories?%s", c.baseURL, q.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "token "+c.token)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, res.StatusCode, nil
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, res.StatusCode, fmt.Errorf("decode response failed: %w", err)
	}
	return sr.Items, res.StatusCode, nil
}

// dedupByID 按仓库 ID 对跨主题结果取并集
func dedupByID(items []repoItem) []repoItem {
	seen := make(map[int64]bool, len(items))
	var unique []repoItem
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		unique = append(unique, it)
	}
	return unique
}

// project 把原始搜索结果投影为通用仓库记录并附加动量得分
func project(items []repoItem, limit int) []dm.GitHubRepo {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	repos := make([]dm.GitHubRepo, 0, len(items))
	for _, it := range items {
		desc := it.Description
		if desc == "" {
			desc = "No description available"
		}
		name := it.Owner.Login
		if name == "" {
			name = "Unknown"
		}
		repos = append(repos, dm.GitHubRepo{
			Name:        name,
			RepoName:    it.Name,
			Description: desc,
			GitHubURL:   it.HTMLURL,
			Homepage:    it.Homepage,
			Stars:       it.StargazersCount,
			Forks:       it.ForksCount,
			Watchers:    it.WatchersCount,
			OpenIssues:  it.OpenIssuesCount,
			Language:    it.Language,
			Topics:      strings.Join(it.Topics, ", "),
			CreatedAt:   it.CreatedAt,
			UpdatedAt:   it.UpdatedAt,
			LastPush:    it.PushedAt,
			MomentumScore: float64(it.StargazersCount)*1.0 +
				float64(it.ForksCount)*2.0 +
				float64(it.WatchersCount)*0.5,
		})
	}
	return repos
}

// GrowthMetrics 就地补充增长指标（仓库年龄、star 速度、fork 比）
// 当天创建的仓库年龄按 1 天计，避免除零。
func GrowthMetrics(repos []dm.GitHubRepo, now time.Time) {
	for i := range repos {
		created, err := time.Parse(time.RFC3339, repos[i].CreatedAt)
		if err != nil {
			continue
		}
		days := int(now.Sub(created).Hours() / 24)
		repos[i].DaysOld = days
		if days <= 0 {
			days = 1
		}
		repos[i].StarVelocity = float64(repos[i].Stars) / float64(days)

		stars := repos[i].Stars
		if stars == 0 {
			stars = 1
		}
		repos[i].ForkRatio = float64(repos[i].Forks) / float64(stars)
	}
}
