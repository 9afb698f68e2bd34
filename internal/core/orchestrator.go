package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/ApiDocFetch/internal/crawlers"
	"github.com/RecoveryAshes/ApiDocFetch/internal/extract"
	"github.com/RecoveryAshes/ApiDocFetch/internal/markdown"
	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
	"github.com/RecoveryAshes/ApiDocFetch/internal/output"
	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
	"golang.org/x/time/rate"
)

// 输出根目录下的固定名称
const (
	LinksFile   = "links.txt" // 链接列表文件名(位于运行目录下)
	RunsDirName = "runs"      // 运行目录的父目录名
)

// Orchestrator 运行编排器
// 串联链接发现、页面拉取、内容提取、Markdown渲染和落盘五个阶段
type Orchestrator struct {
	config    models.CrawlConfig
	seeds     []string
	domain    string
	runDir    string // 运行痕迹目录: links.txt、检查点和报告
	docsDir   string // Markdown文档树根目录
	resumeDir string // 非空表示从该运行目录续传

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 阶段组件
	fetcher   crawlers.PageFetcher
	matcher   *crawlers.Matcher
	extractor *extract.Extractor
	organizer *output.Organizer

	// 两个阶段共用的限速器
	limiter *rate.Limiter

	// 运行状态
	report     *models.RunReport
	checkpoint *models.Checkpoint
}

// NewOrchestrator 创建运行编排器
// resumeDir非空时复用该目录里的检查点和报告,否则按时间戳新建运行目录
func NewOrchestrator(seeds []string, cfg *Config, resumeDir string, headerProvider models.HeaderProvider) (*Orchestrator, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("至少需要一个种子URL")
	}

	parsedURL, err := url.Parse(seeds[0])
	if err != nil {
		return nil, fmt.Errorf("解析种子URL失败: %w", err)
	}
	domain := parsedURL.Host
	if domain == "" {
		return nil, fmt.Errorf("无法从URL中提取域名: %s", seeds[0])
	}

	matcher, err := crawlers.NewMatcher(cfg.Crawl.IncludePatterns, cfg.Crawl.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	rootName := cfg.Output.Name
	if rootName == "" {
		rootName = output.DeriveRootName(parsedURL.Hostname())
	}
	docsDir := filepath.Join(cfg.Output.BaseDir, rootName)

	runDir := resumeDir
	if runDir == "" {
		stamp := time.Now().Format("20060102_150405")
		runDir = filepath.Join(cfg.Output.BaseDir, RunsDirName,
			fmt.Sprintf("%s_%s", output.SiteLabel(parsedURL.Hostname()), stamp))
	}

	report := models.NewRunReport(seeds, domain, cfg.Crawl)
	report.RunDir = runDir
	report.DocsDir = docsDir

	return &Orchestrator{
		config:         cfg.Crawl,
		seeds:          seeds,
		domain:         domain,
		runDir:         runDir,
		docsDir:        docsDir,
		resumeDir:      resumeDir,
		headerProvider: headerProvider,
		fetcher:        buildFetcher(cfg.Crawl, headerProvider),
		matcher:        matcher,
		extractor:      extract.NewExtractor(cfg.Crawl),
		organizer:      output.NewOrganizer(docsDir),
		limiter:        rate.NewLimiter(rate.Every(cfg.Crawl.DelayDuration()), 1),
		report:         report,
	}, nil
}

// buildFetcher 按拉取模式组装拉取器
func buildFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) crawlers.PageFetcher {
	switch config.Mode {
	case models.ModeStatic:
		return crawlers.NewStaticFetcher(config, headerProvider)
	case models.ModeBrowser:
		return crawlers.NewBrowserFetcher(config, headerProvider)
	default:
		return crawlers.NewAutoFetcher(
			crawlers.NewStaticFetcher(config, headerProvider),
			crawlers.NewBrowserFetcher(config, headerProvider),
		)
	}
}

// RunDir 本次运行的痕迹目录
func (o *Orchestrator) RunDir() string {
	return o.runDir
}

// DocsDir 文档树根目录
func (o *Orchestrator) DocsDir() string {
	return o.docsDir
}

// Domain 目标站点域名
func (o *Orchestrator) Domain() string {
	return o.domain
}

// Report 当前运行报告
func (o *Orchestrator) Report() *models.RunReport {
	return o.report
}

// Run 执行完整流程: 链接发现 + 页面抓取 + 报告生成
func (o *Orchestrator) Run(ctx context.Context) error {
	utils.Infof("🚀 开始文档抓取任务")
	utils.Infof("目标站点: %s", o.domain)
	utils.Infof("种子URL: %d 个", len(o.seeds))
	utils.Infof("拉取模式: %s", o.config.Mode)
	utils.Infof("运行目录: %s", o.runDir)
	utils.Infof("文档目录: %s", o.docsDir)

	result, err := o.Discover(ctx)
	if err != nil {
		o.Finish(statusForError(err))
		return err
	}

	if err := o.FetchAll(ctx, result.Records); err != nil {
		o.Finish(statusForError(err))
		return err
	}

	return o.Finish(models.RunStatusCompleted)
}

// RunFromLinks 跳过发现阶段,直接抓取已有链接列表中的页面
func (o *Orchestrator) RunFromLinks(ctx context.Context, linksPath string) error {
	utils.Infof("🚀 开始文档抓取 (使用已有链接列表)")
	utils.Infof("链接列表: %s", linksPath)
	utils.Infof("拉取模式: %s", o.config.Mode)
	utils.Infof("运行目录: %s", o.runDir)
	utils.Infof("文档目录: %s", o.docsDir)

	records, err := o.RecordsFromLinksFile(linksPath)
	if err != nil {
		return err
	}
	o.report.Stats.Discovered = len(records)
	o.report.LinksFile = linksPath

	if err := os.MkdirAll(o.runDir, 0755); err != nil {
		return fmt.Errorf("创建运行目录失败: %w", err)
	}

	if _, err := crawlers.CheckResources(o.config.Mode); err != nil {
		utils.Warnf("资源预检失败: %v", err)
	}

	if err := o.FetchAll(ctx, records); err != nil {
		o.Finish(statusForError(err))
		return err
	}

	return o.Finish(models.RunStatusCompleted)
}

// Discover 执行链接发现阶段并保存链接列表
// 即使中途取消,已发现的链接也会写入links.txt
func (o *Orchestrator) Discover(ctx context.Context) (*crawlers.DiscoveryResult, error) {
	if err := os.MkdirAll(o.runDir, 0755); err != nil {
		return nil, fmt.Errorf("创建运行目录失败: %w", err)
	}

	if _, err := crawlers.CheckResources(o.config.Mode); err != nil {
		utils.Warnf("资源预检失败: %v", err)
	}

	discoverer := crawlers.NewDiscoverer(o.fetcher, o.matcher, o.limiter, o.config)
	result, err := discoverer.Discover(ctx, o.seeds)

	if result != nil && len(result.Records) > 0 {
		o.report.Stats.Discovered = len(result.Records)
		linksPath := filepath.Join(o.runDir, LinksFile)
		if werr := utils.WriteLinksFile(linksPath, o.seeds, result.Records); werr != nil {
			utils.Warnf("写入链接列表失败: %v", werr)
		} else {
			o.report.LinksFile = linksPath
			utils.Infof("🔗 链接列表已保存: %s", linksPath)
		}
	}

	return result, err
}

// FetchAll 抓取阶段: 按发现顺序逐个处理URL记录
// 每处理完一个页面保存检查点,失败的URL不记入检查点,续传时会重试
func (o *Orchestrator) FetchAll(ctx context.Context, records []models.URLRecord) error {
	if len(records) == 0 {
		utils.Warn("没有可抓取的URL")
		return nil
	}
	if o.report.Stats.Discovered == 0 {
		o.report.Stats.Discovered = len(records)
	}

	cpPath := filepath.Join(o.runDir, models.CheckpointFile)
	o.prepareCheckpoint(cpPath)

	utils.Infof("📥 开始抓取 %d 个页面 (模式: %s)", len(records), o.config.Mode)
	bar := utils.NewProgressBar(len(records), "📥 抓取文档页面")

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			utils.Warn("收到取消信号,停止抓取")
			return err
		}

		if o.checkpoint.IsCompleted(rec.Normalized) {
			utils.Debugf("跳过已完成: %s", rec.Normalized)
			_ = bar.Add(1)
			continue
		}

		if err := o.limiter.Wait(ctx); err != nil {
			return err
		}

		o.processRecord(ctx, rec)
		o.saveCheckpoint(cpPath)
		bar.Describe(fmt.Sprintf("📥 抓取文档页面 (成功率 %.0f%%)", o.report.SuccessRate()))
		_ = bar.Add(1)
	}

	_ = bar.Finish()
	fmt.Println()
	return nil
}

// processRecord 处理单个URL: 拉取 → 提取 → 渲染 → 落盘
func (o *Orchestrator) processRecord(ctx context.Context, rec models.URLRecord) {
	o.report.Stats.Attempted++

	result, err := o.fetcher.Fetch(ctx, rec.URL)
	if err != nil {
		errType := models.ClassifyFetchError(err, 0)
		o.report.AddFailure(rec.Normalized, errType, err.Error())
		utils.Warnf("❌ 拉取失败 [%s] %s: %v", errType, rec.Normalized, err)
		return
	}

	if result.StatusCode >= 400 {
		errType := models.ClassifyFetchError(nil, result.StatusCode)
		o.report.AddFailure(rec.Normalized, errType, fmt.Sprintf("HTTP %d", result.StatusCode))
		utils.Warnf("❌ 拉取失败 [HTTP %d]: %s", result.StatusCode, rec.Normalized)
		return
	}

	page, err := o.extractor.Extract(rec.Normalized, result.HTML)
	if err != nil {
		o.report.AddFailure(rec.Normalized, models.ErrTypeParse, err.Error())
		utils.Warnf("❌ 解析失败 %s: %v", rec.Normalized, err)
		return
	}
	page.FinalURL = result.FinalURL

	// 无正文内容算软失败,记录后不再重试
	if page.IsEmpty() {
		o.report.AddEmpty(rec.Normalized)
		o.checkpoint.MarkCompleted(rec.Normalized, "")
		utils.Warnf("⚠️  页面无有效内容: %s", rec.Normalized)
		return
	}

	md := markdown.Render(page)
	rel, size, err := o.organizer.Place(rec, page.Title, md)
	if err != nil {
		o.report.AddFailure(rec.Normalized, models.ErrTypeWrite, err.Error())
		utils.Errorf("写入失败 %s: %v", rec.Normalized, err)
		return
	}

	o.report.AddSuccess(models.OutputFile{
		URL:       rec.Normalized,
		Title:     page.Title,
		FilePath:  rel,
		Size:      size,
		Index:     rec.Index,
		WrittenAt: time.Now(),
	})
	o.checkpoint.MarkCompleted(rec.Normalized, rel)
	utils.Debugf("✅ [%02d] %s -> %s", rec.Index, rec.Normalized, rel)
}

// prepareCheckpoint 加载或新建检查点
// --resume时恢复已完成URL集合和已占用路径,保证冲突编号不回退
func (o *Orchestrator) prepareCheckpoint(cpPath string) {
	if o.resumeDir != "" {
		cp, err := models.LoadCheckpointFromFile(cpPath)
		if err == nil && cp.Domain == o.domain {
			o.checkpoint = cp
			for _, p := range cp.UsedPaths {
				o.organizer.MarkUsed(p)
			}
			o.restorePreviousResults()
			// 空页面已记入检查点不会重试,把上次的计数补回报告
			o.report.Stats.EmptyPages = cp.Stats.EmptyPages
			o.report.Stats.Attempted += cp.Stats.EmptyPages
			utils.Infof("🔄 断点续传: 已完成 %d 个URL", len(cp.CompletedURLs))
			return
		}
		if err != nil {
			utils.Warnf("检查点不可用,从头开始: %v", err)
		} else {
			utils.Warnf("检查点域名不匹配 (%s != %s),从头开始", cp.Domain, o.domain)
		}
	}

	o.checkpoint = models.NewCheckpoint(o.report.RunID, o.domain, LinksFile, o.config)
}

// restorePreviousResults 从上次运行的成功清单恢复已写文件
// 让续传后的索引和报告覆盖全部文件,而不只是本次新增的
func (o *Orchestrator) restorePreviousResults() {
	data, err := os.ReadFile(filepath.Join(o.runDir, utils.SuccessListFile))
	if err != nil {
		utils.Debugf("无上次成功清单可恢复: %v", err)
		return
	}

	var files []models.OutputFile
	if err := json.Unmarshal(data, &files); err != nil {
		utils.Warnf("解析上次成功清单失败: %v", err)
		return
	}

	for _, f := range files {
		if o.checkpoint.IsCompleted(f.URL) {
			o.report.Stats.Attempted++
			o.report.AddSuccess(f)
		}
	}
}

// saveCheckpoint 保存检查点,失败只告警不中断
func (o *Orchestrator) saveCheckpoint(cpPath string) {
	o.checkpoint.Stats = o.report.Stats
	if err := o.checkpoint.SaveToFile(cpPath); err != nil {
		utils.Warnf("保存检查点失败: %v", err)
	}
}

// RecordsFromLinksFile 从链接列表文件重建URL记录
// 行序即抓取顺序,序号按行分配
func (o *Orchestrator) RecordsFromLinksFile(path string) ([]models.URLRecord, error) {
	urls, err := utils.ReadURLsFromFile(path)
	if err != nil {
		return nil, err
	}

	records := make([]models.URLRecord, 0, len(urls))
	for i, u := range urls {
		rec, err := models.NewURLRecord(u, 0, i+1, "")
		if err != nil {
			utils.Warnf("跳过无效链接 (行 %d): %v", i+1, err)
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("链接文件中没有可用的URL: %s", path)
	}
	return records, nil
}

// Finish 收尾一次运行: 生成索引和报告,清理检查点
func (o *Orchestrator) Finish(status models.RunStatus) error {
	o.report.Finalize(status)

	if o.report.Stats.Attempted > 0 {
		if err := output.WriteIndexes(o.docsDir, o.report); err != nil {
			utils.Warnf("生成索引失败: %v", err)
		}

		reporter := utils.NewReporter(o.runDir)
		if err := reporter.GenerateReport(o.report); err != nil {
			utils.Warnf("生成报告失败: %v", err)
		}
	}

	// 运行完整结束后检查点不再需要
	if status == models.RunStatusCompleted {
		if err := os.Remove(filepath.Join(o.runDir, models.CheckpointFile)); err != nil && !os.IsNotExist(err) {
			utils.Debugf("清理检查点失败: %v", err)
		}
	}

	o.logSummary(status)
	return nil
}

// logSummary 打印运行摘要
func (o *Orchestrator) logSummary(status models.RunStatus) {
	utils.Info("==================================================")
	utils.Info("📊 抓取结果摘要")
	utils.Info("==================================================")
	utils.Infof("运行状态: %s", status)
	utils.Infof("发现URL数: %d", o.report.Stats.Discovered)
	utils.Infof("尝试抓取: %d", o.report.Stats.Attempted)
	utils.Infof("✅ 成功: %d", o.report.Stats.Succeeded)
	utils.Infof("❌ 失败: %d", o.report.Stats.Failed)
	utils.Infof("⚠️  空页面: %d", o.report.Stats.EmptyPages)
	utils.Infof("📦 输出大小: %s", utils.FormatBytes(o.report.Stats.TotalBytes))
	utils.Infof("⏱️  总耗时: %.2f秒", o.report.Duration)
	utils.Infof("成功率: %.1f%%", o.report.SuccessRate())
	utils.Infof("📁 文档目录: %s", o.docsDir)
	utils.Infof("📋 运行目录: %s", o.runDir)
	utils.Info("==================================================")
}

// statusForError 把错误映射为运行状态
func statusForError(err error) models.RunStatus {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.RunStatusCancelled
	}
	return models.RunStatusFailed
}

// Close 释放拉取器资源
func (o *Orchestrator) Close() error {
	return o.fetcher.Close()
}
