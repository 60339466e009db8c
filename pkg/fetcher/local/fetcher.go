package local

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iWorld-y/startup_radar/pkg/cache"
	"github.com/iWorld-y/startup_radar/pkg/logger"
	dm "github.com/iWorld-y/startup_radar/pkg/model"
)

// SampleFile 本地样例数据文件名
const SampleFile = "sample_startups.csv"

// urlCacheFile 远端 CSV 的本地缓存文件名
const urlCacheFile = "remote_startups.csv"

var sampleHeader = []string{"name", "description", "funding_total", "founded_year", "location"}

// SampleStartups 返回内置的样例创业公司数据集
func SampleStartups() []dm.StartupRecord {
	rows := []struct {
		name, desc string
		funding    float64
		year       int
		location   string
	}{
		{"OpenAI", "AI research and deployment company creating safe AGI. Developed GPT models and ChatGPT.", 11_300_000_000, 2015, "San Francisco, CA"},
		{"Stripe", "Payment processing platform for internet businesses. Provides APIs for online payments.", 2_200_000_000, 2010, "San Francisco, CA"},
		{"Databricks", "Unified analytics platform built on Apache Spark for data engineering and machine learning.", 3_500_000_000, 2013, "San Francisco, CA"},
		{"Notion", "All-in-one workspace for notes, tasks, wikis, and databases. Productivity tool for teams.", 343_000_000, 2016, "San Francisco, CA"},
		{"Figma", "Collaborative interface design tool built in the browser. Vector graphics editor and prototyping.", 332_900_000, 2012, "San Francisco, CA"},
		{"Hugging Face", "Platform for building, training and deploying ML models. Focus on NLP and transformers.", 395_000_000, 2016, "New York, NY"},
		{"Scale AI", "Data labeling and annotation platform for machine learning training data.", 602_000_000, 2016, "San Francisco, CA"},
		{"Vercel", "Platform for frontend developers providing hosting and serverless functions. Creators of Next.js.", 313_000_000, 2015, "San Francisco, CA"},
		{"Anthropic", "AI safety and research company building reliable, interpretable, and steerable AI systems.", 7_300_000_000, 2021, "San Francisco, CA"},
		{"Tempus", "Healthcare technology company using AI for precision medicine and cancer research.", 1_300_000_000, 2015, "Chicago, IL"},
		{"Oscar Health", "Technology-focused health insurance company providing user-friendly healthcare coverage.", 1_600_000_000, 2012, "New York, NY"},
		{"Devoted Health", "Medicare Advantage insurance company using technology to improve senior healthcare.", 1_900_000_000, 2017, "Waltham, MA"},
		{"Rippling", "Unified HR, IT, and Finance platform managing payroll, benefits, and employee systems.", 1_200_000_000, 2016, "San Francisco, CA"},
		{"Linear", "Issue tracking tool for software development teams. Focus on speed and user experience.", 52_000_000, 2019, "San Francisco, CA"},
		{"Replit", "Collaborative browser-based IDE for building and deploying applications online.", 197_000_000, 2016, "San Francisco, CA"},
		{"Instacart", "Grocery delivery and pickup service connecting customers with personal shoppers.", 2_700_000_000, 2012, "San Francisco, CA"},
		{"Chime", "Mobile-first neobank providing fee-free banking services and early direct deposit.", 2_300_000_000, 2013, "San Francisco, CA"},
		{"Plaid", "Financial services API enabling applications to connect with users' bank accounts.", 734_000_000, 2013, "San Francisco, CA"},
		{"Anduril", "Defense technology company building autonomous systems and infrastructure for national security.", 2_700_000_000, 2017, "Costa Mesa, CA"},
		{"Faire", "Online wholesale marketplace connecting retailers with independent brands and makers.", 1_100_000_000, 2017, "San Francisco, CA"},
	}

	records := make([]dm.StartupRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, dm.StartupRecord{
			Name:         r.name,
			Description:  r.desc,
			Source:       dm.SourceSample,
			FundingTotal: r.funding,
			FoundedYear:  r.year,
			Location:     r.location,
		})
	}
	return records
}

// CreateSampleData 生成样例数据并写入本地 CSV
func CreateSampleData(dir string) ([]dm.StartupRecord, error) {
	records := SampleStartups()
	if err := saveRecords(filepath.Join(dir, SampleFile), records); err != nil {
		return nil, err
	}
	logger.Log.Infof("已生成样例数据：%d 家创业公司", len(records))
	return records, nil
}

// LoadLocal 加载本地数据文件，不存在时生成样例数据
func LoadLocal(dir string) ([]dm.StartupRecord, error) {
	path := filepath.Join(dir, SampleFile)
	if _, err := os.Stat(path); err != nil {
		logger.Log.Info("本地数据文件不存在，生成样例数据...")
		return CreateSampleData(dir)
	}
	logger.Log.Infof("加载本地数据 %s", path)
	return loadRecords(path)
}

// FetchURL 拉取远端 CSV 数据
// 失败时按顺序降级：本地缓存 -> 内置样例数据，不做重试。
func FetchURL(ctx context.Context, rawURL, dir string, maxAge time.Duration) []dm.StartupRecord {
	logger.Log.Infof("从远端拉取数据: %s", rawURL)

	records, err := fetchRemote(ctx, rawURL)
	if err == nil {
		if serr := cache.Save(filepath.Join(dir, urlCacheFile), sampleHeader, recordRows(records), "Remote URL"); serr != nil {
			logger.Log.Warnf("写入远端数据缓存失败: %v", serr)
		}
		return records
	}
	logger.Log.Errorf("远端拉取失败: %v，尝试本地缓存", err)

	_, rows, ok, cerr := cache.Load(filepath.Join(dir, urlCacheFile), maxAge)
	if cerr == nil && ok {
		return rowsToRecords(rows)
	}

	logger.Log.Warn("无可用缓存，回退到内置样例数据")
	return SampleStartups()
}

func fetchRemote(ctx context.Context, rawURL string) ([]dm.StartupRecord, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote data error (status %d)", res.StatusCode)
	}

	r := csv.NewReader(res.Body)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse remote csv: %w", err)
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("remote csv has no data rows")
	}
	return decodeRows(all[0], all[1:]), nil
}

// decodeRows 按表头解析 name/description/funding_total/founded_year/location 列
func decodeRows(header []string, rows [][]string) []dm.StartupRecord {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []dm.StartupRecord
	for _, row := range rows {
		name := get(row, "name")
		if name == "" {
			continue
		}
		funding, _ := strconv.ParseFloat(get(row, "funding_total"), 64)
		year, _ := strconv.Atoi(get(row, "founded_year"))
		records = append(records, dm.StartupRecord{
			Name:         name,
			Description:  get(row, "description"),
			Source:       dm.SourceSample,
			FundingTotal: funding,
			FoundedYear:  year,
			Location:     get(row, "location"),
		})
	}
	return records
}

func recordRows(records []dm.StartupRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Name, r.Description,
			strconv.FormatFloat(r.FundingTotal, 'f', -1, 64),
			strconv.Itoa(r.FoundedYear), r.Location,
		})
	}
	return rows
}

func rowsToRecords(rows [][]string) []dm.StartupRecord {
	return decodeRows(sampleHeader, rows)
}

func saveRecords(path string, records []dm.StartupRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sampleHeader); err != nil {
		return err
	}
	if err := w.WriteAll(recordRows(records)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func loadRecords(path string) ([]dm.StartupRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse local csv %s: %w", path, err)
	}
	if len(all) < 2 {
		return nil, nil
	}
	return decodeRows(all[0], all[1:]), nil
}
