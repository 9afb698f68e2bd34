package models

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"
)

// 失败分类,写入报告的error_type字段
const (
	ErrTypeTimeout    = "timeout"    // 拉取超时
	ErrTypeConnection = "connection" // 连接失败(拒绝/重置/DNS)
	ErrTypeHTTP4xx    = "http_4xx"   // 客户端错误状态码
	ErrTypeHTTP5xx    = "http_5xx"   // 服务端错误状态码
	ErrTypeParse      = "parse"      // 文档解析失败
	ErrTypeRender     = "render"     // 浏览器渲染失败
	ErrTypeWrite      = "write"      // 文件写入失败
	ErrTypeOther      = "other"      // 其他
)

// RunReport 运行报告
// 运行开始时创建,逐页更新,结束时落盘,落盘后不再修改
type RunReport struct {
	// 运行信息
	RunID  string    `json:"run_id"`
	Seeds  []string  `json:"seeds"`
	Domain string    `json:"domain"`
	Mode   CrawlMode `json:"mode"`
	Status RunStatus `json:"status"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats RunStats `json:"stats"`

	// 结果明细
	OutputFiles []OutputFile `json:"output_files"` // 成功写出的文件
	FailedURLs  []FailedURL  `json:"failed_urls"`  // 失败URL及原因
	EmptyURLs   []string     `json:"empty_urls"`   // 无可提取内容的URL

	// 输出路径
	LinksFile string `json:"links_file,omitempty"` // 发现链接文件
	RunDir    string `json:"run_dir"`              // 本次运行目录
	DocsDir   string `json:"docs_dir"`             // 文档树根目录

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// OutputFile 成功写出的文档文件
type OutputFile struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	FilePath  string    `json:"file_path"` // 相对于文档树根目录
	Size      int64     `json:"size"`
	Index     int       `json:"index"` // 发现顺序序号
	WrittenAt time.Time `json:"written_at"`
}

// FailedURL 失败URL信息
type FailedURL struct {
	URL       string `json:"url"`
	ErrorType string `json:"error_type"` // timeout, connection, http_4xx等
	ErrorMsg  string `json:"error_msg"`
}

// NewRunReport 创建运行报告
func NewRunReport(seeds []string, domain string, config CrawlConfig) *RunReport {
	return &RunReport{
		RunID:       generateID(),
		Seeds:       seeds,
		Domain:      domain,
		Mode:        config.Mode,
		Status:      RunStatusRunning,
		StartTime:   time.Now(),
		OutputFiles: make([]OutputFile, 0),
		FailedURLs:  make([]FailedURL, 0),
		EmptyURLs:   make([]string, 0),
		Config:      config,
	}
}

// AddSuccess 记录一个成功写出的文件
func (r *RunReport) AddSuccess(f OutputFile) {
	r.OutputFiles = append(r.OutputFiles, f)
	r.Stats.Succeeded++
	r.Stats.TotalBytes += f.Size
}

// AddFailure 记录一个失败URL
func (r *RunReport) AddFailure(url, errType, errMsg string) {
	r.FailedURLs = append(r.FailedURLs, FailedURL{
		URL:       url,
		ErrorType: errType,
		ErrorMsg:  errMsg,
	})
	r.Stats.Failed++
}

// AddEmpty 记录一个空内容页面(软失败)
func (r *RunReport) AddEmpty(url string) {
	r.EmptyURLs = append(r.EmptyURLs, url)
	r.Stats.EmptyPages++
}

// Finalize 结束运行,固定时间和状态
func (r *RunReport) Finalize(status RunStatus) {
	r.Status = status
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime).Seconds()
	r.Stats.Duration = r.Duration
}

// SuccessRate 当前成功率(百分比)
func (r *RunReport) SuccessRate() float64 {
	if r.Stats.Attempted == 0 {
		return 0
	}
	return float64(r.Stats.Succeeded) / float64(r.Stats.Attempted) * 100
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}

// ClassifyFetchError 将拉取错误归类为报告的error_type
// statusCode为0表示没有拿到HTTP响应
func ClassifyFetchError(err error, statusCode int) string {
	if statusCode >= 500 {
		return ErrTypeHTTP5xx
	}
	if statusCode >= 400 {
		return ErrTypeHTTP4xx
	}
	if err == nil {
		return ErrTypeOther
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTypeTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return ErrTypeTimeout
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "network is unreachable"):
		return ErrTypeConnection
	default:
		return ErrTypeOther
	}
}
