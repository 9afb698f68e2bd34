package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
	"github.com/schollz/progressbar/v3"
)

// 报告文件名
const (
	ReportFile      = "fetch_report.json"
	SuccessListFile = "success_files.json"
	FailedListFile  = "failed_urls.json"
	TextSummaryFile = "fetch_results.txt"
)

// Reporter 报告生成器,把一次运行的结果落盘到运行目录
type Reporter struct {
	runDir string
}

// NewReporter 创建报告生成器
func NewReporter(runDir string) *Reporter {
	return &Reporter{runDir: runDir}
}

// GenerateReport 生成抓取报告
// 写出完整JSON报告、成功/失败列表和一份人类可读的文本汇总
func (r *Reporter) GenerateReport(report *models.RunReport) error {
	if err := os.MkdirAll(r.runDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	// 保存主报告
	if err := r.saveJSONReport(ReportFile, report); err != nil {
		return err
	}

	// 保存成功文件列表
	if err := r.saveJSONReport(SuccessListFile, report.OutputFiles); err != nil {
		return err
	}

	// 保存失败URL列表
	if err := r.saveJSONReport(FailedListFile, report.FailedURLs); err != nil {
		return err
	}

	// 保存文本汇总
	summary := r.renderTextSummary(report)
	summaryPath := filepath.Join(r.runDir, TextSummaryFile)
	if err := os.WriteFile(summaryPath, []byte(summary), 0644); err != nil {
		return fmt.Errorf("写入文本汇总失败: %w", err)
	}

	Infof("✅ 报告已生成: %s", r.runDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(filename string, data interface{}) error {
	path := filepath.Join(r.runDir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// renderTextSummary 生成文本汇总
func (r *Reporter) renderTextSummary(report *models.RunReport) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 50) + "\n")
	sb.WriteString("抓取结果汇总\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	sb.WriteString(fmt.Sprintf("运行ID:   %s\n", report.RunID))
	sb.WriteString(fmt.Sprintf("目标域名: %s\n", report.Domain))
	sb.WriteString(fmt.Sprintf("种子URL:  %s\n", strings.Join(report.Seeds, ", ")))
	sb.WriteString(fmt.Sprintf("运行模式: %s\n", report.Mode))
	sb.WriteString(fmt.Sprintf("状态:     %s\n", report.Status))
	sb.WriteString(fmt.Sprintf("开始时间: %s\n", report.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("结束时间: %s\n", report.EndTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("总耗时:   %s\n", time.Duration(report.Duration*float64(time.Second)).Round(time.Millisecond)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("发现链接: %d\n", report.Stats.Discovered))
	sb.WriteString(fmt.Sprintf("尝试抓取: %d\n", report.Stats.Attempted))
	sb.WriteString(fmt.Sprintf("成功:     %d\n", report.Stats.Succeeded))
	sb.WriteString(fmt.Sprintf("失败:     %d\n", report.Stats.Failed))
	sb.WriteString(fmt.Sprintf("空页面:   %d\n", report.Stats.EmptyPages))
	sb.WriteString(fmt.Sprintf("总字节数: %s\n", FormatBytes(report.Stats.TotalBytes)))
	sb.WriteString(fmt.Sprintf("成功率:   %.1f%%\n", report.SuccessRate()))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("文档目录: %s\n", report.DocsDir))
	sb.WriteString(fmt.Sprintf("链接文件: %s\n", report.LinksFile))

	if len(report.OutputFiles) > 0 {
		sb.WriteString("\n生成的文件:\n")
		for _, f := range report.OutputFiles {
			sb.WriteString(fmt.Sprintf("  [%02d] %s  <- %s\n", f.Index, f.FilePath, f.URL))
		}
	}

	if len(report.FailedURLs) > 0 {
		sb.WriteString("\n失败列表:\n")
		for _, f := range report.FailedURLs {
			sb.WriteString(fmt.Sprintf("  [%s] %s: %s\n", f.ErrorType, f.URL, f.ErrorMsg))
		}
	}

	return sb.String()
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
