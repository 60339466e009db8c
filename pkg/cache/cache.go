package cache

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iWorld-y/startup_radar/pkg/logger"
)

// Metadata 缓存侧车元数据
type Metadata struct {
	LastUpdated time.Time `json:"last_updated"`
	RecordCount int       `json:"record_count"`
	Source      string    `json:"source"`
}

// metaPath 数据文件对应的侧车文件路径
func metaPath(path string) string {
	return path + ".meta.json"
}

// Save 把表格数据写入 CSV 缓存并更新侧车元数据
// 先写临时文件再 rename，调用方观察不到半写状态。
func Save(path string, header []string, rows [][]string, source string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename cache file: %w", err)
	}

	meta := Metadata{
		LastUpdated: time.Now(),
		RecordCount: len(rows),
		Source:      source,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	metaTmp := metaPath(path) + ".tmp"
	if err := os.WriteFile(metaTmp, data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(metaTmp, metaPath(path)); err != nil {
		os.Remove(metaTmp)
		return fmt.Errorf("rename metadata: %w", err)
	}

	logger.Log.Infof("已缓存 %d 条记录到 %s", len(rows), path)
	return nil
}

// Load 读取缓存，仅当侧车时间戳在 maxAge 内才命中
// 返回的 bool 表示是否命中；缓存缺失或过期不算错误。
func Load(path string, maxAge time.Duration) ([]string, [][]string, bool, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, false, nil
	}

	metaData, err := os.ReadFile(metaPath(path))
	if err != nil {
		// 没有侧车就无法判断新鲜度，按未命中处理
		return nil, nil, false, nil
	}
	var meta Metadata
	if err := json.Unmarshal(metaData, &meta); err != nil {
		logger.Log.Warnf("缓存元数据损坏 [%s]: %v", path, err)
		return nil, nil, false, nil
	}

	age := time.Since(meta.LastUpdated)
	if age > maxAge {
		logger.Log.Infof("缓存已过期 [%s]: %.1f 小时 > %.1f 小时", path, age.Hours(), maxAge.Hours())
		return nil, nil, false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, false, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, false, fmt.Errorf("parse cache csv %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, false, nil
	}

	logger.Log.Infof("命中缓存 [%s]（%.1f 小时前更新）", path, age.Hours())
	return all[0], all[1:], true, nil
}
