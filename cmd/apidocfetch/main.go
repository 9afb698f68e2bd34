package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/RecoveryAshes/ApiDocFetch/internal/core"
	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	headersFile    string   // 头部配置文件路径
	validateConfig bool     // 验证配置文件

	// 爬取参数
	targetURL        string
	urlFile          string
	depth            int
	maxPages         int
	delay            float64
	waitTime         int
	timeout          int
	mode             string
	headless         bool
	allowCrossDomain bool
	includePatterns  []string
	excludePatterns  []string
	noEndpoints      bool
	noCode           bool
	resumeDir        string
	outputDir        string
	outputName       string

	// fetch子命令参数
	linksFile string
)

// appConfig 在PersistentPreRunE中加载,后续命令直接使用
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "apidocfetch",
	Short: "API文档站点抓取工具",
	Long: `ApiDocFetch - 把在线API文档站点抓取为本地Markdown文档树 (Go版本)

这是一个面向API文档站点的抓取工具,支持:
  • 静态HTTP和浏览器渲染两种拉取模式,auto模式自动切换
  • 广度优先链接发现,深度/页面数/正则模式三重约束
  • 标题、段落、列表、表格、代码块和API端点签名提取
  • 按URL路径镜像的Markdown目录树和索引
  • 断点续传
  • 自定义HTTP请求头

使用示例:
  # 一条命令完成链接发现和抓取
  apidocfetch run -u https://developer.example.com/docs

  # 先发现链接,人工筛选后再抓取
  apidocfetch discover -u https://developer.example.com/docs
  apidocfetch fetch --links output/runs/example_20250101_120000/links.txt

  # 带认证头部抓取
  apidocfetch run -u https://docs.example.com -H "Authorization: Bearer token"

  # 中断后从运行目录续传
  apidocfetch fetch --resume output/runs/example_20250101_120000

  # 验证头部配置
  apidocfetch --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig = config

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 如果用户请求验证配置
		if validateConfig {
			return runValidateConfig()
		}

		// 如果没有提供任何参数,显示帮助信息
		if targetURL == "" && urlFile == "" && resumeDir == "" {
			return cmd.Help()
		}

		return runFullPipeline(cmd)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "执行完整流程: 链接发现 + 页面抓取",
	Long: `依次执行链接发现和页面抓取两个阶段。

发现的链接写入运行目录的links.txt,抓取结果按URL路径
组织成Markdown文档树,最后生成索引和运行报告。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if targetURL == "" && urlFile == "" && resumeDir == "" {
			return fmt.Errorf("至少需要一个种子URL (使用 -u 或 -f)")
		}
		return runFullPipeline(cmd)
	},
}

// runFullPipeline 完整流程入口
// 指定--resume时直接从运行目录的链接列表续传,不再重新发现
func runFullPipeline(cmd *cobra.Command) error {
	if resumeDir != "" {
		return runFetchFromLinks(cmd, filepath.Join(resumeDir, core.LinksFile))
	}

	orch, err := buildOrchestrator(cmd)
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx, cancel := setupSignalContext()
	defer cancel()

	if err := orch.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			utils.Warn("任务已取消")
			return nil
		}
		return fmt.Errorf("抓取失败: %w", err)
	}

	utils.Info("✨ 抓取任务完成!")
	return nil
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "只执行链接发现,生成links.txt",
	Long: `只执行链接发现阶段,把发现的URL按顺序写入links.txt。

适合先人工检查或筛选链接列表,再用fetch子命令抓取:
  apidocfetch discover -u https://developer.example.com/docs
  apidocfetch fetch --links output/runs/example_20250101_120000/links.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if targetURL == "" && urlFile == "" {
			return fmt.Errorf("至少需要一个种子URL (使用 -u 或 -f)")
		}

		orch, err := buildOrchestrator(cmd)
		if err != nil {
			return err
		}
		defer orch.Close()

		ctx, cancel := setupSignalContext()
		defer cancel()

		result, err := orch.Discover(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) && result != nil {
				utils.Warnf("链接发现已取消,已发现 %d 个链接", len(result.Records))
				return nil
			}
			return fmt.Errorf("链接发现失败: %w", err)
		}

		utils.Infof("✨ 链接发现完成! 共 %d 个链接", len(result.Records))
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "抓取已有链接列表中的页面",
	Long: `跳过链接发现阶段,直接抓取链接列表文件中的页面。

链接列表通常由discover子命令生成,每行一个URL,#开头的行是注释。
指定--resume <运行目录>可以从上次中断的位置继续。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		linksPath := linksFile
		if linksPath == "" && resumeDir != "" {
			linksPath = filepath.Join(resumeDir, core.LinksFile)
		}
		if linksPath == "" {
			return fmt.Errorf("必须指定链接列表文件 (--links 或 --resume)")
		}

		return runFetchFromLinks(cmd, linksPath)
	},
}

// runFetchFromLinks 从链接列表文件抓取
// 链接文件的第一个URL决定目标域名和输出目录
func runFetchFromLinks(cmd *cobra.Command, linksPath string) error {
	urls, err := utils.ReadURLsFromFile(linksPath)
	if err != nil {
		return fmt.Errorf("读取链接列表失败: %w", err)
	}
	if len(urls) == 0 {
		return fmt.Errorf("链接文件中没有可用的URL: %s", linksPath)
	}
	if targetURL == "" {
		targetURL = urls[0]
	}

	orch, err := buildOrchestrator(cmd)
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx, cancel := setupSignalContext()
	defer cancel()

	if err := orch.RunFromLinks(ctx, linksPath); err != nil {
		if errors.Is(err, context.Canceled) {
			utils.Warn("任务已取消")
			return nil
		}
		return fmt.Errorf("抓取失败: %w", err)
	}

	utils.Info("✨ 抓取任务完成!")
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ApiDocFetch %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("API文档站点抓取工具 - Go实现版本")
	},
}

// buildOrchestrator 汇总种子、合并参数并创建编排器
func buildOrchestrator(cmd *cobra.Command) (*core.Orchestrator, error) {
	seeds, err := collectSeeds(targetURL, urlFile)
	if err != nil {
		return nil, err
	}

	applyFlags(cmd, appConfig)
	if err := appConfig.Crawl.Validate(); err != nil {
		return nil, fmt.Errorf("参数验证失败: %w", err)
	}

	headerManager, err := core.NewHeaderManager(headersFile, appConfig.Headers, headers)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}

	orch, err := core.NewOrchestrator(seeds, appConfig, resumeDir, headerManager)
	if err != nil {
		return nil, fmt.Errorf("创建编排器失败: %w", err)
	}
	return orch, nil
}

// applyFlags 合并命令行参数到配置,命令行优先
func applyFlags(cmd *cobra.Command, cfg *core.Config) {
	cfg.MergeCLIFlags(depth, maxPages, delay, waitTime, timeout, mode, includePatterns, excludePatterns)

	// 布尔参数只在显式指定时覆盖配置
	if cmd.Flags().Changed("headless") {
		cfg.Crawl.Headless = headless
	}
	if cmd.Flags().Changed("allow-cross-domain") {
		cfg.Crawl.AllowCrossDomain = allowCrossDomain
	}
	if noEndpoints {
		cfg.Crawl.ExtractEndpoints = false
	}
	if noCode {
		cfg.Crawl.ExtractCode = false
	}

	if outputDir != "" {
		cfg.Output.BaseDir = outputDir
	}
	if outputName != "" {
		cfg.Output.Name = outputName
	}
}

// runValidateConfig 验证HTTP头部配置并显示合并结果
func runValidateConfig() error {
	utils.Info("🔍 验证HTTP头部配置...")

	headerManager, err := core.NewHeaderManager(headersFile, appConfig.Headers, headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}

	if err := headerManager.LoadConfig(); err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if err := headerManager.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	// 显示合并后的头部(脱敏)
	safeHeaders := headerManager.GetSafeHeaders()
	utils.Info("✅ 配置验证通过!")
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for name, value := range safeHeaders {
		utils.Infof("  %s: %s", name, value)
	}
	return nil
}

// setupSignalContext 创建随中断信号取消的上下文
// 第一次信号触发优雅收尾,第二次强制退出
func setupSignalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		utils.Warnf("收到中断信号: %v, 正在优雅收尾...", sig)
		cancel()

		sig = <-sigChan
		utils.Warnf("再次收到信号: %v, 强制退出", sig)
		os.Exit(1)
	}()

	return ctx, cancel
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().StringVar(&headersFile, "headers-file", "", "HTTP头部配置文件路径 (默认 configs/headers.yaml)")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 爬取参数(子命令共用)
	rootCmd.PersistentFlags().StringVarP(&targetURL, "url", "u", "", "种子URL (必需,除非使用 --url-file)")
	rootCmd.PersistentFlags().StringVarP(&urlFile, "url-file", "f", "", "包含种子URL列表的文件路径")
	rootCmd.PersistentFlags().IntVarP(&depth, "depth", "d", 0, "链接发现深度 (1-10, 默认3)")
	rootCmd.PersistentFlags().IntVarP(&maxPages, "max-pages", "p", 0, "发现URL数上限 (1-10000, 默认200)")
	rootCmd.PersistentFlags().Float64Var(&delay, "delay", -1, "请求间隔秒数 (0-60, 默认1.5)")
	rootCmd.PersistentFlags().IntVarP(&waitTime, "wait", "w", -1, "浏览器渲染等待秒数 (0-60, 默认3)")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 0, "单页拉取超时秒数 (1-300, 默认30)")
	rootCmd.PersistentFlags().StringVarP(&mode, "mode", "m", "", "拉取模式 (static|browser|auto, 默认auto)")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.PersistentFlags().BoolVar(&allowCrossDomain, "allow-cross-domain", false, "跟随跨域链接")
	rootCmd.PersistentFlags().StringSliceVar(&includePatterns, "include", []string{}, "URL白名单正则,可多次指定")
	rootCmd.PersistentFlags().StringSliceVar(&excludePatterns, "exclude", []string{}, "URL黑名单正则,可多次指定")
	rootCmd.PersistentFlags().BoolVar(&noEndpoints, "no-endpoints", false, "不提取API端点签名")
	rootCmd.PersistentFlags().BoolVar(&noCode, "no-code", false, "不提取代码示例")
	rootCmd.PersistentFlags().StringVar(&resumeDir, "resume", "", "从指定运行目录续传 (读取其中的links.txt和checkpoint.json)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "输出根目录 (默认output)")
	rootCmd.PersistentFlags().StringVar(&outputName, "name", "", "文档树目录名 (默认按站点域名推导)")

	// fetch子命令参数
	fetchCmd.Flags().StringVarP(&linksFile, "links", "l", "", "链接列表文件路径 (discover子命令生成)")

	// 添加子命令
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
