package producthunt

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/iWorld-y/startup_radar/pkg/cache"
	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

// CacheFile Product Hunt 缓存文件名
const CacheFile = "producthunt_products.csv"

var productHeader = []string{
	"name", "tagline", "description", "website", "launch_date",
	"upvotes", "comments", "topics", "maker", "featured",
	"engagement_score", "days_since_launch", "upvotes_per_day",
}

func productRow(p dm.Product) []string {
	return []string{
		p.Name, p.Tagline, p.Description, p.Website, p.LaunchDate,
		strconv.Itoa(p.Upvotes), strconv.Itoa(p.Comments),
		p.Topics, p.Maker, strconv.FormatBool(p.Featured),
		strconv.FormatFloat(p.EngagementScore, 'f', -1, 64),
		strconv.Itoa(p.DaysSinceLaunch),
		strconv.FormatFloat(p.UpvotesPerDay, 'f', -1, 64),
	}
}

func productFromRow(row []string) dm.Product {
	get := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return row[i]
	}
	atoi := func(s string) int { n, _ := strconv.Atoi(s); return n }
	atof := func(s string) float64 { f, _ := strconv.ParseFloat(s, 64); return f }

	return dm.Product{
		Name: get(0), Tagline: get(1), Description: get(2),
		Website: get(3), LaunchDate: get(4),
		Upvotes: atoi(get(5)), Comments: atoi(get(6)),
		Topics: get(7), Maker: get(8), Featured: get(9) == "true",
		EngagementScore: atof(get(10)), DaysSinceLaunch: atoi(get(11)),
		UpvotesPerDay: atof(get(12)),
	}
}

// SaveCache 覆盖写入 Product Hunt 缓存
func SaveCache(dir string, products []dm.Product) error {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, productRow(p))
	}
	return cache.Save(filepath.Join(dir, CacheFile), productHeader, rows, "Product Hunt")
}

// LoadCache 读取在 maxAge 内的 Product Hunt 缓存，未命中返回 ok=false
func LoadCache(dir string, maxAge time.Duration) ([]dm.Product, bool, error) {
	_, rows, ok, err := cache.Load(filepath.Join(dir, CacheFile), maxAge)
	if err != nil || !ok {
		return nil, false, err
	}
	products := make([]dm.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, productFromRow(row))
	}
	return products, true, nil
}
