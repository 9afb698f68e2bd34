package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
)

// indexFile 目录索引文件名
const indexFile = "README.md"

// WriteIndexes 生成文档树的索引文件
// 每个子目录一个README.md列出目录内页面,根目录的README.md汇总整次运行
func WriteIndexes(docsDir string, report *models.RunReport) error {
	if err := os.MkdirAll(docsDir, 0755); err != nil {
		return fmt.Errorf("创建文档目录失败: %w", err)
	}

	folders, order := groupByFolder(report.OutputFiles)

	for _, folder := range order {
		if folder == "" {
			continue // 根目录文件直接列在总索引里
		}
		if err := writeFolderIndex(docsDir, folder, folders[folder]); err != nil {
			return err
		}
	}

	if err := writeRootIndex(docsDir, report, folders, order); err != nil {
		return err
	}

	utils.Infof("📄 索引已生成: %d 个目录", len(order))
	return nil
}

// groupByFolder 按所在目录归组输出文件,保持发现顺序
func groupByFolder(files []models.OutputFile) (map[string][]models.OutputFile, []string) {
	folders := make(map[string][]models.OutputFile)
	order := make([]string, 0)

	for _, f := range files {
		folder := filepath.Dir(f.FilePath)
		if folder == "." {
			folder = ""
		}
		if _, ok := folders[folder]; !ok {
			order = append(order, folder)
		}
		folders[folder] = append(folders[folder], f)
	}

	return folders, order
}

// writeFolderIndex 写子目录的README.md
func writeFolderIndex(docsDir, folder string, files []models.OutputFile) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", folder))
	for _, f := range files {
		sb.WriteString(fmt.Sprintf("- [%s](%s)\n", f.Title, filepath.Base(f.FilePath)))
	}

	path := filepath.Join(docsDir, folder, indexFile)
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("写入目录索引失败 %s: %w", folder, err)
	}
	return nil
}

// writeRootIndex 写根目录的总索引README.md
func writeRootIndex(docsDir string, report *models.RunReport, folders map[string][]models.OutputFile, order []string) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", filepath.Base(docsDir)))
	sb.WriteString(fmt.Sprintf("生成时间: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("来源站点: %s\n\n", report.Domain))
	if len(report.Seeds) > 0 {
		sb.WriteString(fmt.Sprintf("种子URL: %s\n\n", strings.Join(report.Seeds, ", ")))
	}
	sb.WriteString(fmt.Sprintf("共尝试 %d 个页面, 成功 %d, 失败 %d\n",
		report.Stats.Attempted, report.Stats.Succeeded, report.Stats.Failed))

	// 根目录下的文件直接列出
	if rootFiles, ok := folders[""]; ok {
		sb.WriteString("\n")
		for _, f := range rootFiles {
			sb.WriteString(fmt.Sprintf("- [%s](%s)\n", f.Title, f.FilePath))
		}
	}

	for _, folder := range order {
		if folder == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", folder))
		for _, f := range folders[folder] {
			sb.WriteString(fmt.Sprintf("- [%s](%s)\n", f.Title, filepath.ToSlash(f.FilePath)))
		}
	}

	if len(report.FailedURLs) > 0 {
		sb.WriteString("\n## 抓取失败\n\n")
		for _, f := range report.FailedURLs {
			sb.WriteString(fmt.Sprintf("- %s (%s: %s)\n", f.URL, f.ErrorType, f.ErrorMsg))
		}
	}

	path := filepath.Join(docsDir, indexFile)
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("写入总索引失败: %w", err)
	}
	return nil
}
