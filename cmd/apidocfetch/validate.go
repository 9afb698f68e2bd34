package main

import (
	"fmt"
	"net/url"

	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
)

// collectSeeds 汇总命令行和文件中的种子URL
// 第一个种子的域名决定目标域名和输出目录名
func collectSeeds(targetURL, urlFile string) ([]string, error) {
	seeds := make([]string, 0, 1)

	if targetURL != "" {
		normalized, err := EnsureScheme(targetURL)
		if err != nil {
			return nil, fmt.Errorf("无效的目标URL: %w", err)
		}
		if err := models.ValidateURL(normalized); err != nil {
			return nil, fmt.Errorf("无效的目标URL: %w", err)
		}
		seeds = append(seeds, normalized)
	}

	if urlFile != "" {
		urls, err := utils.ReadURLsFromFile(urlFile)
		if err != nil {
			return nil, fmt.Errorf("读取URL文件失败: %w", err)
		}
		seeds = append(seeds, urls...)
	}

	if len(seeds) == 0 {
		return nil, fmt.Errorf("至少需要一个种子URL (使用 -u 或 -f)")
	}

	return seeds, nil
}

// EnsureScheme 补全缺失的协议,默认https
func EnsureScheme(urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	if parsed.Scheme == "" {
		urlStr = "https://" + urlStr
		parsed, err = url.Parse(urlStr)
		if err != nil {
			return "", err
		}
	}

	return parsed.String(), nil
}
