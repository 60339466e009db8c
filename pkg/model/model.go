package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Source 记录首次产生该条目的数据来源
type Source string

const (
	SourceGitHub      Source = "GitHub"
	SourceProductHunt Source = "Product Hunt"
	SourceManual      Source = "Manual"
	SourceSample      Source = "Sample"
)

// StartupRecord 统一的创业公司记录
// 覆盖所有来源可能出现的列的并集，缺失字段一律取零值，
// 保证下游图表不会遇到空值。
type StartupRecord struct {
	Name             string
	Description      string
	Source           Source
	GitHubURL        string
	Website          string
	GitHubStars      int
	GitHubForks      int
	StarVelocity     float64
	MomentumScore    float64
	Language         string
	Topics           string
	FoundedYear      int
	FundingTotal     float64
	Location         string
	PHUpvotes        int
	PHComments       int
	LaunchDate       string
	CombinedMomentum float64
	Category         string
	Subcategory      string
	Themes           string // 逗号分隔的主题标签
}

// GitHubRepo GitHub 搜索结果投影后的仓库记录
type GitHubRepo struct {
	Name          string // 仓库所属组织/用户
	RepoName      string
	Description   string
	GitHubURL     string
	Homepage      string
	Stars         int
	Forks         int
	Watchers      int
	OpenIssues    int
	Language      string
	Topics        string
	CreatedAt     string // RFC3339
	UpdatedAt     string
	LastPush      string
	DaysOld       int
	StarVelocity  float64
	ForkRatio     float64
	MomentumScore float64
}

// Product Product Hunt 产品记录
type Product struct {
	Name            string
	Tagline         string
	Description     string
	Website         string
	LaunchDate      string // YYYY-MM-DD
	Upvotes         int
	Comments        int
	Topics          string
	Maker           string
	Featured        bool
	EngagementScore float64
	DaysSinceLaunch int
	UpvotesPerDay   float64
}

// Enrichment 人工补充数据行，按 name 匹配后覆盖对应列
type Enrichment struct {
	Name   string
	Fields map[string]string // 列名 -> 原始值
}

// SplitThemes 把逗号分隔的主题串还原为列表
func SplitThemes(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	themes := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			themes = append(themes, t)
		}
	}
	return themes
}

// JoinThemes 把主题列表序列化为存储用的逗号分隔串
func JoinThemes(themes []string) string {
	return strings.Join(themes, ", ")
}

// Header 统一记录的 CSV 表头
func Header() []string {
	return []string{
		"name", "description", "source", "github_url", "website",
		"github_stars", "github_forks", "star_velocity", "momentum_score",
		"language", "topics", "founded_year", "funding_total", "location",
		"ph_upvotes", "ph_comments", "launch_date", "combined_momentum",
		"category", "subcategory", "themes",
	}
}

// Row 把记录序列化为与 Header 对齐的一行
func (r StartupRecord) Row() []string {
	return []string{
		r.Name, r.Description, string(r.Source), r.GitHubURL, r.Website,
		strconv.Itoa(r.GitHubStars), strconv.Itoa(r.GitHubForks),
		formatFloat(r.StarVelocity), formatFloat(r.MomentumScore),
		r.Language, r.Topics, strconv.Itoa(r.FoundedYear),
		formatFloat(r.FundingTotal), r.Location,
		strconv.Itoa(r.PHUpvotes), strconv.Itoa(r.PHComments),
		r.LaunchDate, formatFloat(r.CombinedMomentum),
		r.Category, r.Subcategory, r.Themes,
	}
}

// EncodeTable 把记录表序列化为 CSV 行
func EncodeTable(records []StartupRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return rows
}

// requiredColumns 看板渲染必需的列，缺失视为配置错误
var requiredColumns = []string{"name", "category", "funding_total", "founded_year", "themes"}

// DecodeTable 按表头把 CSV 行还原为记录表
// 表头缺少看板必需列时直接报错，而不是默默补零。
func DecodeTable(header []string, rows [][]string) ([]StartupRecord, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]StartupRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, StartupRecord{
			Name:             get(row, "name"),
			Description:      get(row, "description"),
			Source:           Source(get(row, "source")),
			GitHubURL:        get(row, "github_url"),
			Website:          get(row, "website"),
			GitHubStars:      parseInt(get(row, "github_stars")),
			GitHubForks:      parseInt(get(row, "github_forks")),
			StarVelocity:     parseFloat(get(row, "star_velocity")),
			MomentumScore:    parseFloat(get(row, "momentum_score")),
			Language:         get(row, "language"),
			Topics:           get(row, "topics"),
			FoundedYear:      parseInt(get(row, "founded_year")),
			FundingTotal:     parseFloat(get(row, "funding_total")),
			Location:         get(row, "location"),
			PHUpvotes:        parseInt(get(row, "ph_upvotes")),
			PHComments:       parseInt(get(row, "ph_comments")),
			LaunchDate:       get(row, "launch_date"),
			CombinedMomentum: parseFloat(get(row, "combined_momentum")),
			Category:         get(row, "category"),
			Subcategory:      get(row, "subcategory"),
			Themes:           get(row, "themes"),
		})
	}
	return records, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// 解析失败时回退为零值，缓存文件里的脏数据不应让整个加载失败
func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
