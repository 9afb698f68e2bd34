package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckpoint_MarkCompleted(t *testing.T) {
	cp := NewCheckpoint("run-1", "example.com", "links.txt", CrawlConfig{})

	cp.MarkCompleted("https://example.com/a", "example.com_01_a.md")
	cp.MarkCompleted("https://example.com/b", "example.com_02_b.md")

	if !cp.IsCompleted("https://example.com/a") {
		t.Error("标记后IsCompleted应该返回true")
	}
	if cp.IsCompleted("https://example.com/c") {
		t.Error("未标记的URL不应该是已完成")
	}
	if len(cp.CompletedURLs) != 2 {
		t.Errorf("期望2个已完成URL, 得到: %d", len(cp.CompletedURLs))
	}
	if len(cp.UsedPaths) != 2 {
		t.Errorf("期望2个已占用路径, 得到: %d", len(cp.UsedPaths))
	}
}

func TestCheckpoint_MarkCompleted_Dedup(t *testing.T) {
	cp := NewCheckpoint("run-1", "example.com", "links.txt", CrawlConfig{})

	cp.MarkCompleted("https://example.com/a", "a.md")
	cp.MarkCompleted("https://example.com/a", "a.md")
	cp.MarkCompleted("https://example.com/a", "a_1.md")

	if len(cp.CompletedURLs) != 1 {
		t.Errorf("重复标记不应该追加, 得到: %d 条", len(cp.CompletedURLs))
	}
	if len(cp.UsedPaths) != 1 {
		t.Errorf("重复标记不应该追加路径, 得到: %d 条", len(cp.UsedPaths))
	}
}

func TestCheckpoint_MarkCompleted_EmptyPath(t *testing.T) {
	cp := NewCheckpoint("run-1", "example.com", "links.txt", CrawlConfig{})

	// 空页面: 记完成但没有输出文件
	cp.MarkCompleted("https://example.com/empty", "")

	if !cp.IsCompleted("https://example.com/empty") {
		t.Error("空页面也应该被标记为已完成")
	}
	if len(cp.UsedPaths) != 0 {
		t.Errorf("空路径不应该进入UsedPaths, 得到: %v", cp.UsedPaths)
	}
}

func TestCheckpoint_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	cpPath := filepath.Join(dir, CheckpointFile)

	cp := NewCheckpoint("run-42", "api.example.com", "links.txt", CrawlConfig{Depth: 3, MaxPages: 100})
	cp.MarkCompleted("https://api.example.com/docs", "api.example.com_01_docs.md")
	cp.MarkCompleted("https://api.example.com/docs/auth", "api.example.com_02_auth.md")
	cp.Stats.Attempted = 2
	cp.Stats.Succeeded = 2

	if err := cp.SaveToFile(cpPath); err != nil {
		t.Fatalf("保存检查点失败: %v", err)
	}
	if _, err := os.Stat(cpPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("保存完成后不应该留下临时文件")
	}

	loaded, err := LoadCheckpointFromFile(cpPath)
	if err != nil {
		t.Fatalf("加载检查点失败: %v", err)
	}
	if loaded.RunID != "run-42" {
		t.Errorf("期望RunID 'run-42', 得到: %s", loaded.RunID)
	}
	if loaded.Domain != "api.example.com" {
		t.Errorf("期望域名 'api.example.com', 得到: %s", loaded.Domain)
	}
	if !loaded.IsCompleted("https://api.example.com/docs") {
		t.Error("加载后的检查点应该重建已完成索引")
	}
	if loaded.IsCompleted("https://api.example.com/other") {
		t.Error("未完成的URL在加载后不应该是已完成")
	}
	if loaded.Stats.Succeeded != 2 {
		t.Errorf("统计快照应该完整恢复, 得到成功数: %d", loaded.Stats.Succeeded)
	}
	if loaded.Config.MaxPages != 100 {
		t.Errorf("配置快照应该完整恢复, 得到MaxPages: %d", loaded.Config.MaxPages)
	}
}

func TestLoadCheckpointFromFile_Missing(t *testing.T) {
	_, err := LoadCheckpointFromFile(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("文件不存在应该返回错误")
	}
}

func TestLoadCheckpointFromFile_Corrupted(t *testing.T) {
	dir := t.TempDir()
	cpPath := filepath.Join(dir, CheckpointFile)
	if err := os.WriteFile(cpPath, []byte("{broken json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadCheckpointFromFile(cpPath)
	if err == nil {
		t.Error("损坏的检查点文件应该返回错误")
	}
}
