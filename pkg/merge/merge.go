package merge

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iWorld-y/startup_radar/pkg/logger"
	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

// Merge 把各来源的记录集合并为一张按名称去重的创业公司表
//
// 处理顺序固定为 GitHub 在前、Product Hunt 在后，保证同样输入
// 产出同样结果。PH 记录按名称（忽略大小写）匹配已有条目：
// 命中则追加 PH 专属字段，website/description 仅在为空时回填
// （先到的来源优先）；未命中则作为新条目插入。
// 任意一侧为空甚至两侧都为空都是合法输入。
func Merge(repos []dm.GitHubRepo, products []dm.Product) []dm.StartupRecord {
	records := make([]dm.StartupRecord, 0, len(repos)+len(products))
	byName := make(map[string]int, len(repos))

	for _, repo := range repos {
		rec := projectRepo(repo)
		byName[strings.ToLower(rec.Name)] = len(records)
		records = append(records, rec)
	}

	for _, p := range products {
		if i, ok := byName[strings.ToLower(p.Name)]; ok {
			attachProduct(&records[i], p)
			continue
		}
		rec := projectProduct(p)
		byName[strings.ToLower(rec.Name)] = len(records)
		records = append(records, rec)
	}

	for i := range records {
		records[i].CombinedMomentum = records[i].MomentumScore +
			float64(records[i].PHUpvotes)*0.5 +
			float64(records[i].PHComments)*1.0
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CombinedMomentum > records[j].CombinedMomentum
	})

	logger.Log.Infof("合并得到 %d 家去重后的创业公司（GitHub %d / Product Hunt %d）",
		len(records), len(repos), countSource(records, dm.SourceGitHub))
	return records
}

// projectRepo 把 GitHub 仓库投影为统一记录
// 动量得分是 stars/forks/watchers 的纯函数，这里直接重算，
// 和抓取层算出的值一致。
func projectRepo(repo dm.GitHubRepo) dm.StartupRecord {
	momentum := float64(repo.Stars)*1.0 + float64(repo.Forks)*2.0 + float64(repo.Watchers)*0.5
	return dm.StartupRecord{
		Name:          repo.Name,
		Description:   repo.Description,
		Source:        dm.SourceGitHub,
		GitHubURL:     repo.GitHubURL,
		Website:       repo.Homepage,
		GitHubStars:   repo.Stars,
		GitHubForks:   repo.Forks,
		StarVelocity:  repo.StarVelocity,
		MomentumScore: momentum,
		Language:      repo.Language,
		Topics:        repo.Topics,
		FoundedYear:   yearOf(repo.CreatedAt),
		FundingTotal:  0, // 留待人工补充
	}
}

// projectProduct 把 Product Hunt 产品投影为统一记录
func projectProduct(p dm.Product) dm.StartupRecord {
	desc := p.Tagline
	if desc == "" {
		desc = p.Description
	}
	return dm.StartupRecord{
		Name:        p.Name,
		Description: desc,
		Source:      dm.SourceProductHunt,
		Website:     p.Website,
		Topics:      p.Topics,
		FoundedYear: yearOf(p.LaunchDate),
		PHUpvotes:   p.Upvotes,
		PHComments:  p.Comments,
		LaunchDate:  p.LaunchDate,
	}
}

// attachProduct 把 PH 字段追加到已有记录上，来源标签保持首个来源
func attachProduct(rec *dm.StartupRecord, p dm.Product) {
	rec.PHUpvotes = p.Upvotes
	rec.PHComments = p.Comments
	rec.LaunchDate = p.LaunchDate
	if rec.Website == "" {
		rec.Website = p.Website
	}
	if rec.Description == "" {
		if p.Tagline != "" {
			rec.Description = p.Tagline
		} else {
			rec.Description = p.Description
		}
	}
}

// yearOf 从 RFC3339 或 YYYY-MM-DD 时间串取年份，解析不了返回 0
func yearOf(s string) int {
	if s == "" {
		return 0
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Year()
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.Year()
	}
	return 0
}

func countSource(records []dm.StartupRecord, src dm.Source) int {
	n := 0
	for _, r := range records {
		if r.Source == src {
			n++
		}
	}
	return n
}

// LoadEnrichment 加载人工补充数据
// 文件不存在按空数据处理，不算错误。
func LoadEnrichment(path string) []dm.Enrichment {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Log.Errorf("加载人工补充数据失败: %v", err)
		}
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		logger.Log.Errorf("解析人工补充数据失败: %v", err)
		return nil
	}
	if len(all) < 2 {
		return nil
	}

	header := all[0]
	var rows []dm.Enrichment
	for _, row := range all[1:] {
		e := dm.Enrichment{Fields: make(map[string]string)}
		for i, h := range header {
			if i >= len(row) {
				break
			}
			col := strings.TrimSpace(strings.ToLower(h))
			val := strings.TrimSpace(row[i])
			if col == "name" {
				e.Name = val
				continue
			}
			if val != "" {
				e.Fields[col] = val
			}
		}
		if e.Name != "" {
			rows = append(rows, e)
		}
	}

	logger.Log.Infof("已加载 %d 条人工补充数据", len(rows))
	return rows
}

// ApplyEnrichment 按名称（忽略大小写）把人工补充数据覆盖到合并表上
// 补充值总是覆盖已有值；匹配不到名称的行直接丢弃，不做插入。
func ApplyEnrichment(records []dm.StartupRecord, rows []dm.Enrichment) []dm.StartupRecord {
	if len(rows) == 0 {
		return records
	}

	byName := make(map[string]int, len(records))
	for i, r := range records {
		byName[strings.ToLower(r.Name)] = i
	}

	for _, e := range rows {
		i, ok := byName[strings.ToLower(e.Name)]
		if !ok {
			continue
		}
		applyFields(&records[i], e.Fields)
		logger.Log.Debugf("已补充 %s", e.Name)
	}
	return records
}

// applyFields 把补充列写到记录对应字段上，非记录列忽略
func applyFields(rec *dm.StartupRecord, fields map[string]string) {
	for col, val := range fields {
		switch col {
		case "funding_total":
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				rec.FundingTotal = f
			}
		case "founded_year":
			if n, err := strconv.Atoi(val); err == nil {
				rec.FoundedYear = n
			}
		case "description":
			rec.Description = val
		case "website":
			rec.Website = val
		case "location":
			rec.Location = val
		case "category":
			rec.Category = val
		case "subcategory":
			rec.Subcategory = val
		case "themes":
			rec.Themes = val
		}
	}
}
