package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

// newTestClient 把客户端指到测试服务器上并关闭限流
func newTestClient(srv *httptest.Server) *Client {
	c := NewClient("")
	c.baseURL = srv.URL
	c.client = srv.Client()
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func repoJSON(id int64, owner string, stars, forks, watchers int) string {
	return fmt.Sprintf(`{"id": %d, "name": "%s-repo", "owner": {"login": "%s"},
		"description": "desc", "html_url": "https://github.com/%s",
		"stargazers_count": %d, "forks_count": %d, "watchers_count": %d,
		"language": "Go", "topics": ["saas"], "created_at": "2024-03-01T00:00:00Z"}`,
		id, owner, owner, owner, stars, forks, watchers)
}

func TestFetchTrendingDedupAndSort(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// 两个主题都命中同一个仓库 id=1，外加各自独有的一个
		var items string
		if calls == 1 {
			items = repoJSON(1, "acme", 120, 10, 5) + "," + repoJSON(2, "beta", 10, 0, 0)
		} else {
			items = repoJSON(1, "acme", 120, 10, 5) + "," + repoJSON(3, "gamma", 500, 40, 20)
		}
		fmt.Fprintf(w, `{"total_count": 2, "items": [%s]}`, items)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	repos := c.FetchTrending(context.Background(), SearchOptions{
		Topics: []string{"startup", "saas"}, MinStars: 50, DaysBack: 180, Limit: 40,
	})

	if calls != 2 {
		t.Errorf("请求次数 = %d, want 2（每个主题一次）", calls)
	}
	if len(repos) != 3 {
		t.Fatalf("repos len = %d, want 3（按仓库 id 去重）", len(repos))
	}
	// 按动量降序：gamma(590) > acme(142.5) > beta(10)
	if repos[0].Name != "gamma" || repos[1].Name != "acme" || repos[2].Name != "beta" {
		t.Errorf("排序 = %s/%s/%s, want gamma/acme/beta", repos[0].Name, repos[1].Name, repos[2].Name)
	}
	if repos[1].MomentumScore != 142.5 {
		t.Errorf("acme momentum = %v, want 142.5", repos[1].MomentumScore)
	}
}

func TestFetchTrendingRateLimitHaltsRemainingTopics(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprintf(w, `{"total_count": 1, "items": [%s]}`, repoJSON(1, "acme", 120, 10, 5))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	repos := c.FetchTrending(context.Background(), SearchOptions{
		Topics: []string{"startup", "saas", "fintech"}, MinStars: 50, DaysBack: 180, Limit: 40,
	})

	// 403 后停止剩余主题，第三个主题不再请求
	if calls != 2 {
		t.Errorf("请求次数 = %d, want 2（触发限流后停止）", calls)
	}
	// 但已收集的结果要保留
	if len(repos) != 1 || repos[0].Name != "acme" {
		t.Errorf("repos = %v, want 保留 acme", repos)
	}
}

func TestFetchTrendingServerErrorSkipsTopic(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"total_count": 1, "items": [%s]}`, repoJSON(1, "acme", 120, 10, 5))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	repos := c.FetchTrending(context.Background(), SearchOptions{
		Topics: []string{"startup", "saas"}, MinStars: 50, DaysBack: 180, Limit: 40,
	})

	// 500 只跳过当前主题，后续主题继续
	if calls != 2 {
		t.Errorf("请求次数 = %d, want 2", calls)
	}
	if len(repos) != 1 {
		t.Errorf("repos len = %d, want 1", len(repos))
	}
}

func TestFetchTrendingAllFailedReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	repos := c.FetchTrending(context.Background(), SearchOptions{Topics: []string{"startup"}})
	if repos != nil {
		t.Errorf("repos = %v, want nil（失败不抛错只降级）", repos)
	}
}

func TestSearchQueryEncoding(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"total_count": 0, "items": []}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	c.FetchTrending(context.Background(), SearchOptions{
		Topics: []string{"ai-startup"}, MinStars: 50, DaysBack: 180, Limit: 40,
	})

	want := fmt.Sprintf("topic:ai-startup stars:>50 created:>%s",
		time.Now().AddDate(0, 0, -180).Format(time.DateOnly))
	if gotQuery != want {
		t.Errorf("q = %q, want %q", gotQuery, want)
	}
}

func TestProjectDefaults(t *testing.T) {
	items := []repoItem{{ID: 1, Name: "repo"}}
	repos := project(items, 0)
	if repos[0].Name != "Unknown" {
		t.Errorf("name = %q, want Unknown（owner 缺失）", repos[0].Name)
	}
	if repos[0].Description != "No description available" {
		t.Errorf("description = %q", repos[0].Description)
	}
}

func TestGrowthMetrics(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repos := []dm.GitHubRepo{
		{Stars: 100, Forks: 20, CreatedAt: "2024-05-22T00:00:00Z"}, // 10 天前
		{Stars: 50, Forks: 5, CreatedAt: now.Format(time.RFC3339)}, // 当天创建
		{Stars: 0, Forks: 3, CreatedAt: "2024-05-22T00:00:00Z"},
		{Stars: 10, CreatedAt: "not-a-date"},
	}
	GrowthMetrics(repos, now)

	if repos[0].DaysOld != 10 || repos[0].StarVelocity != 10 {
		t.Errorf("repos[0] = %d 天 / %v star/天, want 10/10", repos[0].DaysOld, repos[0].StarVelocity)
	}
	if repos[0].ForkRatio != 0.2 {
		t.Errorf("repos[0].ForkRatio = %v, want 0.2", repos[0].ForkRatio)
	}
	// 当天创建的仓库按 1 天计，不能除零
	if repos[1].StarVelocity != 50 {
		t.Errorf("repos[1].StarVelocity = %v, want 50", repos[1].StarVelocity)
	}
	// star 为零时 fork 比按 star=1 计
	if repos[2].ForkRatio != 3 {
		t.Errorf("repos[2].ForkRatio = %v, want 3", repos[2].ForkRatio)
	}
	// 解析不了创建时间就保持零值
	if repos[3].StarVelocity != 0 {
		t.Errorf("repos[3].StarVelocity = %v, want 0", repos[3].StarVelocity)
	}
}
