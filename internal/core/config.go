package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Crawl   models.CrawlConfig `mapstructure:"crawl"`
	Logging LoggingConfig      `mapstructure:"logging"`
	Output  OutputConfig       `mapstructure:"output"`
	Headers map[string]string  `mapstructure:"headers"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"` // 所有文档树的父目录
	Name    string `mapstructure:"name"`     // 文档树根目录名,留空时按站点域名推导
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".apidocfetch"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在,使用默认值
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 爬取配置默认值
	v.SetDefault("crawl.depth", 3)
	v.SetDefault("crawl.max_pages", 200)
	v.SetDefault("crawl.delay", 1.5)
	v.SetDefault("crawl.wait_time", 3)
	v.SetDefault("crawl.timeout", 30)
	v.SetDefault("crawl.mode", "auto")
	v.SetDefault("crawl.headless", true)
	v.SetDefault("crawl.allow_cross_domain", false)
	v.SetDefault("crawl.extract_endpoints", true)
	v.SetDefault("crawl.extract_code", true)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.name", "")
}

// GetCrawlConfig 从配置中提取爬取配置
func (c *Config) GetCrawlConfig() models.CrawlConfig {
	return c.Crawl
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件,未设置的参数用哨兵值跳过
func (c *Config) MergeCLIFlags(
	depth int,
	maxPages int,
	delay float64,
	waitTime int,
	timeout int,
	mode string,
	includePatterns []string,
	excludePatterns []string,
) {
	if depth > 0 {
		c.Crawl.Depth = depth
	}
	if maxPages > 0 {
		c.Crawl.MaxPages = maxPages
	}
	if delay >= 0 {
		c.Crawl.Delay = delay
	}
	if waitTime >= 0 {
		c.Crawl.WaitTime = waitTime
	}
	if timeout > 0 {
		c.Crawl.Timeout = timeout
	}
	if mode != "" {
		c.Crawl.Mode = models.CrawlMode(mode)
	}
	if len(includePatterns) > 0 {
		c.Crawl.IncludePatterns = includePatterns
	}
	if len(excludePatterns) > 0 {
		c.Crawl.ExcludePatterns = excludePatterns
	}
}
