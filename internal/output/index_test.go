package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
)

// buildReport 构造带三个成功文件和一个失败URL的测试报告
func buildReport() *models.RunReport {
	report := models.NewRunReport(
		[]string{"https://docs.example.com/api"},
		"docs.example.com",
		models.CrawlConfig{Depth: 3, MaxPages: 200, Delay: 0, WaitTime: 3, Timeout: 30, Mode: models.ModeStatic},
	)

	report.AddSuccess(models.OutputFile{
		URL:      "https://docs.example.com/api/users",
		Title:    "Users",
		FilePath: filepath.Join("api_users", "docs.example.com_01_users.md"),
		Size:     120,
		Index:    1,
	})
	report.AddSuccess(models.OutputFile{
		URL:      "https://docs.example.com/api/users/create",
		Title:    "Create User",
		FilePath: filepath.Join("api_users", "docs.example.com_02_create_user.md"),
		Size:     80,
		Index:    2,
	})
	report.AddSuccess(models.OutputFile{
		URL:      "https://docs.example.com/",
		Title:    "Overview",
		FilePath: "docs.example.com_03_overview.md",
		Size:     40,
		Index:    3,
	})
	report.AddFailure("https://docs.example.com/broken", models.ErrTypeHTTP4xx, "HTTP 404")
	report.Stats.Attempted = 4

	return report
}

func TestWriteIndexes(t *testing.T) {
	docsDir := t.TempDir()
	report := buildReport()

	// 子目录正常由Place创建,这里手动补上
	if err := os.MkdirAll(filepath.Join(docsDir, "api_users"), 0755); err != nil {
		t.Fatalf("创建测试目录失败: %v", err)
	}

	if err := WriteIndexes(docsDir, report); err != nil {
		t.Fatalf("生成索引失败: %v", err)
	}

	// 子目录索引: 按Base文件名链接, 保持发现顺序
	folderIdx, err := os.ReadFile(filepath.Join(docsDir, "api_users", "README.md"))
	if err != nil {
		t.Fatalf("读取子目录索引失败: %v", err)
	}
	idx := string(folderIdx)
	if !strings.Contains(idx, "# api_users") {
		t.Error("子目录索引应该以目录名为标题")
	}
	if !strings.Contains(idx, "- [Users](docs.example.com_01_users.md)") {
		t.Errorf("子目录索引应该按文件名链接, 内容:\n%s", idx)
	}
	if strings.Index(idx, "Users") > strings.Index(idx, "Create User") {
		t.Error("子目录索引应该保持发现顺序")
	}

	// 根索引: 运行统计、根目录文件和各目录分节
	rootIdx, err := os.ReadFile(filepath.Join(docsDir, "README.md"))
	if err != nil {
		t.Fatalf("读取根索引失败: %v", err)
	}
	root := string(rootIdx)

	if !strings.Contains(root, "共尝试 4 个页面, 成功 3, 失败 1") {
		t.Errorf("根索引应该包含运行统计, 内容:\n%s", root)
	}
	if !strings.Contains(root, "来源站点: docs.example.com") {
		t.Error("根索引应该包含来源站点")
	}
	if !strings.Contains(root, "## api_users") {
		t.Error("根索引应该为每个子目录生成分节")
	}
	if !strings.Contains(root, "- [Overview](docs.example.com_03_overview.md)") {
		t.Error("根目录的文件应该直接列在根索引里")
	}
	if !strings.Contains(root, "## 抓取失败") {
		t.Error("有失败URL时应该生成失败分节")
	}
	if !strings.Contains(root, "https://docs.example.com/broken (http_4xx: HTTP 404)") {
		t.Errorf("失败分节应该包含URL和错误分类, 内容:\n%s", root)
	}
}

func TestWriteIndexes_NoFailures(t *testing.T) {
	docsDir := t.TempDir()

	report := models.NewRunReport([]string{"https://docs.example.com/"}, "docs.example.com", models.CrawlConfig{})
	report.AddSuccess(models.OutputFile{
		URL:      "https://docs.example.com/",
		Title:    "Overview",
		FilePath: "docs.example.com_01_overview.md",
		Size:     40,
		Index:    1,
	})
	report.Stats.Attempted = 1

	if err := WriteIndexes(docsDir, report); err != nil {
		t.Fatalf("生成索引失败: %v", err)
	}

	rootIdx, err := os.ReadFile(filepath.Join(docsDir, "README.md"))
	if err != nil {
		t.Fatalf("读取根索引失败: %v", err)
	}
	if strings.Contains(string(rootIdx), "## 抓取失败") {
		t.Error("没有失败URL时不应该生成失败分节")
	}
}

func TestWriteIndexes_EmptyRun(t *testing.T) {
	docsDir := filepath.Join(t.TempDir(), "empty_docs")

	report := models.NewRunReport([]string{"https://docs.example.com/"}, "docs.example.com", models.CrawlConfig{})

	// 没有任何输出文件时也能生成根索引,目录被创建
	if err := WriteIndexes(docsDir, report); err != nil {
		t.Fatalf("空运行生成索引失败: %v", err)
	}
	if _, err := os.Stat(filepath.Join(docsDir, "README.md")); err != nil {
		t.Errorf("根索引应该存在: %v", err)
	}
}

func TestGroupByFolder(t *testing.T) {
	files := []models.OutputFile{
		{Title: "A", FilePath: filepath.Join("api", "a.md")},
		{Title: "Root", FilePath: "root.md"},
		{Title: "B", FilePath: filepath.Join("api", "b.md")},
		{Title: "C", FilePath: filepath.Join("guide", "c.md")},
	}

	folders, order := groupByFolder(files)

	if len(order) != 3 {
		t.Fatalf("期望3个目录分组, 得到: %d", len(order))
	}
	// 首次出现顺序: api, 根目录, guide
	if order[0] != "api" || order[1] != "" || order[2] != "guide" {
		t.Errorf("分组顺序应该按首次出现, 得到: %v", order)
	}
	if len(folders["api"]) != 2 {
		t.Errorf("api目录应该有2个文件, 得到: %d", len(folders["api"]))
	}
	if folders["api"][0].Title != "A" || folders["api"][1].Title != "B" {
		t.Error("目录内文件应该保持原始顺序")
	}
}
