package models

import (
	"fmt"
	"regexp"
	"time"
)

// RunStatus 运行状态
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"   // 待执行
	RunStatusRunning   RunStatus = "running"   // 执行中
	RunStatusCompleted RunStatus = "completed" // 已完成
	RunStatusFailed    RunStatus = "failed"    // 失败
	RunStatusCancelled RunStatus = "cancelled" // 已取消
)

// CrawlMode 页面拉取模式
type CrawlMode string

const (
	ModeStatic  CrawlMode = "static"  // 静态HTTP拉取
	ModeBrowser CrawlMode = "browser" // 浏览器渲染拉取
	ModeAuto    CrawlMode = "auto"    // 先静态,检测到JS壳页面时回退浏览器
)

// RunStats 单次运行统计
type RunStats struct {
	Discovered int     `json:"discovered"`  // 发现的URL数
	Attempted  int     `json:"attempted"`   // 尝试拉取的URL数
	Succeeded  int     `json:"succeeded"`   // 成功写出文件的URL数
	Failed     int     `json:"failed"`      // 硬失败的URL数
	EmptyPages int     `json:"empty_pages"` // 空内容页面数(软失败)
	TotalBytes int64   `json:"total_bytes"` // 写出文件总字节数
	Duration   float64 `json:"duration"`    // 总耗时(秒)
}

// CrawlConfig 爬取与抓取配置
type CrawlConfig struct {
	Depth            int       `json:"depth" mapstructure:"depth"`                           // 最大发现深度 (默认:3)
	MaxPages         int       `json:"max_pages" mapstructure:"max_pages"`                   // 发现URL数上限 (默认:200)
	Delay            float64   `json:"delay" mapstructure:"delay"`                           // 请求间隔(秒) (默认:1.5)
	WaitTime         int       `json:"wait_time" mapstructure:"wait_time"`                   // 浏览器渲染等待(秒) (默认:3)
	Timeout          int       `json:"timeout" mapstructure:"timeout"`                       // 单次拉取超时(秒) (默认:30)
	Mode             CrawlMode `json:"mode" mapstructure:"mode"`                             // 拉取模式 (默认:auto)
	Headless         bool      `json:"headless" mapstructure:"headless"`                     // 无头浏览器模式 (默认:true)
	AllowCrossDomain bool      `json:"allow_cross_domain" mapstructure:"allow_cross_domain"` // 是否跟随跨域链接 (默认:false)
	IncludePatterns  []string  `json:"include_patterns" mapstructure:"include_patterns"`     // URL白名单正则
	ExcludePatterns  []string  `json:"exclude_patterns" mapstructure:"exclude_patterns"`     // URL黑名单正则
	ExtractEndpoints bool      `json:"extract_endpoints" mapstructure:"extract_endpoints"`   // 提取API端点签名 (默认:true)
	ExtractCode      bool      `json:"extract_code" mapstructure:"extract_code"`             // 提取代码示例 (默认:true)
}

// Validate 验证配置
// 任一项非法即为配置错误,运行不会开始
func (c *CrawlConfig) Validate() error {
	if c.Depth < 1 || c.Depth > 10 {
		return fmt.Errorf("深度必须在1-10之间,当前值: %d", c.Depth)
	}
	if c.MaxPages < 1 || c.MaxPages > 10000 {
		return fmt.Errorf("页面数上限必须在1-10000之间,当前值: %d", c.MaxPages)
	}
	if c.Delay < 0 || c.Delay > 60 {
		return fmt.Errorf("请求间隔必须在0-60秒之间,当前值: %.1f", c.Delay)
	}
	if c.WaitTime < 0 || c.WaitTime > 60 {
		return fmt.Errorf("渲染等待时间必须在0-60秒之间,当前值: %d", c.WaitTime)
	}
	if c.Timeout < 1 || c.Timeout > 300 {
		return fmt.Errorf("超时必须在1-300秒之间,当前值: %d", c.Timeout)
	}
	switch c.Mode {
	case ModeStatic, ModeBrowser, ModeAuto:
	default:
		return fmt.Errorf("无效的拉取模式: %s (可选: static|browser|auto)", c.Mode)
	}
	for _, p := range c.IncludePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("白名单正则无效 [%s]: %w", p, err)
		}
	}
	for _, p := range c.ExcludePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("黑名单正则无效 [%s]: %w", p, err)
		}
	}
	return nil
}

// DelayDuration 请求间隔的时长表示
func (c *CrawlConfig) DelayDuration() time.Duration {
	return time.Duration(c.Delay * float64(time.Second))
}

// TimeoutDuration 拉取超时的时长表示
func (c *CrawlConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
