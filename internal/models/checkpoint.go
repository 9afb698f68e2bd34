package models

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// CheckpointFile 检查点文件名(位于运行目录下)
const CheckpointFile = "checkpoint.json"

// Checkpoint 抓取阶段检查点
// 每处理完一个页面保存一次,--resume时跳过已完成的URL
// 失败的URL不记入已完成,恢复时会重试
type Checkpoint struct {
	// 运行信息
	RunID     string `json:"run_id"`
	Domain    string `json:"domain"`
	LinksFile string `json:"links_file"` // 本次运行的链接列表文件

	// 进度信息
	CompletedURLs []string `json:"completed_urls"` // 已完成的归一化URL
	UsedPaths     []string `json:"used_paths"`     // 已占用的输出路径(保持冲突后缀稳定)

	// 统计快照
	Stats RunStats `json:"stats"`

	// 时间戳
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 配置快照
	Config CrawlConfig `json:"config"`

	// 已完成URL的查找索引(不落盘)
	completed map[string]bool
}

// NewCheckpoint 创建检查点
func NewCheckpoint(runID, domain, linksFile string, config CrawlConfig) *Checkpoint {
	return &Checkpoint{
		RunID:         runID,
		Domain:        domain,
		LinksFile:     linksFile,
		CompletedURLs: make([]string, 0),
		UsedPaths:     make([]string, 0),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
		Config:        config,
		completed:     make(map[string]bool),
	}
}

// MarkCompleted 记录一个已处理完成的URL
// relPath为空表示软失败页面(无文件写出)
func (c *Checkpoint) MarkCompleted(normalizedURL, relPath string) {
	if c.completed == nil {
		c.completed = make(map[string]bool)
	}
	if c.completed[normalizedURL] {
		return
	}
	c.completed[normalizedURL] = true
	c.CompletedURLs = append(c.CompletedURLs, normalizedURL)
	if relPath != "" {
		c.UsedPaths = append(c.UsedPaths, relPath)
	}
	c.UpdatedAt = time.Now()
}

// IsCompleted 检查URL是否已处理完成
func (c *Checkpoint) IsCompleted(normalizedURL string) bool {
	if c.completed == nil {
		return false
	}
	return c.completed[normalizedURL]
}

// rebuildIndex 从CompletedURLs重建查找索引
// 从文件加载检查点后调用
func (c *Checkpoint) rebuildIndex() {
	c.completed = make(map[string]bool, len(c.CompletedURLs))
	for _, u := range c.CompletedURLs {
		c.completed[u] = true
	}
}

// ToJSON 序列化为JSON
func (c *Checkpoint) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// FromJSON 从JSON反序列化
func (c *Checkpoint) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}
	c.rebuildIndex()
	return nil
}

// SaveToFile 保存到文件
// 先写临时文件再重命名,避免中断时留下半截检查点
func (c *Checkpoint) SaveToFile(filepath string) error {
	data, err := c.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化检查点失败: %w", err)
	}
	tmpPath := filepath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("写入检查点失败: %w", err)
	}
	return os.Rename(tmpPath, filepath)
}

// LoadCheckpointFromFile 从文件加载检查点
func LoadCheckpointFromFile(filepath string) (*Checkpoint, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	var cp Checkpoint
	if err := cp.FromJSON(data); err != nil {
		return nil, fmt.Errorf("解析检查点失败: %w", err)
	}

	return &cp, nil
}
