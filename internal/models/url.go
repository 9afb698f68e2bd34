package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// URLRecord 发现集中的一条URL记录
// 由链接发现阶段产生,Index记录发现顺序,用于输出排序和文件编号
type URLRecord struct {
	URL        string    `json:"url"`                  // 原始绝对URL
	Normalized string    `json:"normalized_url"`       // 归一化URL(去重键)
	Depth      int       `json:"depth"`                // 发现深度(入口为0)
	Index      int       `json:"index"`                // 发现顺序序号
	SourceURL  string    `json:"source_url,omitempty"` // 发现此URL的源页面
	FoundAt    time.Time `json:"found_at"`             // 发现时间
}

// NewURLRecord 创建URL记录
// 归一化失败时返回错误(URL本身无法解析)
func NewURLRecord(rawURL string, depth int, index int, sourceURL string) (URLRecord, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return URLRecord{}, err
	}
	return URLRecord{
		URL:        rawURL,
		Normalized: normalized,
		Depth:      depth,
		Index:      index,
		SourceURL:  sourceURL,
		FoundAt:    time.Now(),
	}, nil
}

// NormalizeURL 归一化URL,作为发现集的去重键
// 规则: 移除fragment,协议和主机名转小写,路径和查询参数保持原样
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("URL格式无效: %w", err)
	}
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	return parsed.String(), nil
}

// ValidateURL 验证URL是否为可爬取的HTTP(S)地址
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}

// generateID 生成唯一ID
func generateID() string {
	return uuid.New().String()
}
