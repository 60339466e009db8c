package github

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/iWorld-y/startup_radar/pkg/cache"
	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

// CacheFile GitHub 缓存文件名
const CacheFile = "github_startups.csv"

var repoHeader = []string{
	"name", "repo_name", "description", "github_url", "homepage",
	"stars", "forks", "watchers", "open_issues", "language", "topics",
	"created_at", "updated_at", "last_push",
	"days_old", "star_velocity", "fork_ratio", "momentum_score",
}

func repoRow(r dm.GitHubRepo) []string {
	return []string{
		r.Name, r.RepoName, r.Description, r.GitHubURL, r.Homepage,
		strconv.Itoa(r.Stars), strconv.Itoa(r.Forks), strconv.Itoa(r.Watchers),
		strconv.Itoa(r.OpenIssues), r.Language, r.Topics,
		r.CreatedAt, r.UpdatedAt, r.LastPush,
		strconv.Itoa(r.DaysOld),
		strconv.FormatFloat(r.StarVelocity, 'f', -1, 64),
		strconv.FormatFloat(r.ForkRatio, 'f', -1, 64),
		strconv.FormatFloat(r.MomentumScore, 'f', -1, 64),
	}
}

func repoFromRow(row []string) dm.GitHubRepo {
	get := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return row[i]
	}
	atoi := func(s string) int { n, _ := strconv.Atoi(s); return n }
	atof := func(s string) float64 { f, _ := strconv.ParseFloat(s, 64); return f }

	return dm.GitHubRepo{
		Name: get(0), RepoName: get(1), Description: get(2),
		GitHubURL: get(3), Homepage: get(4),
		Stars: atoi(get(5)), Forks: atoi(get(6)), Watchers: atoi(get(7)),
		OpenIssues: atoi(get(8)), Language: get(9), Topics: get(10),
		CreatedAt: get(11), UpdatedAt: get(12), LastPush: get(13),
		DaysOld: atoi(get(14)), StarVelocity: atof(get(15)),
		ForkRatio: atof(get(16)), MomentumScore: atof(get(17)),
	}
}

// SaveCache 覆盖写入 GitHub 仓库缓存
func SaveCache(dir string, repos []dm.GitHubRepo) error {
	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		rows = append(rows, repoRow(r))
	}
	return cache.Save(filepath.Join(dir, CacheFile), repoHeader, rows, "GitHub API")
}

// LoadCache 读取在 maxAge 内的 GitHub 仓库缓存，未命中返回 ok=false
func LoadCache(dir string, maxAge time.Duration) ([]dm.GitHubRepo, bool, error) {
	_, rows, ok, err := cache.Load(filepath.Join(dir, CacheFile), maxAge)
	if err != nil || !ok {
		return nil, false, err
	}
	repos := make([]dm.GitHubRepo, 0, len(rows))
	for _, row := range rows {
		repos = append(repos, repoFromRow(row))
	}
	return repos, true, nil
}
