package models

import (
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		rawURL   string
		expected string
		wantErr  bool
	}{
		{"移除fragment", "https://docs.example.com/api/v1#section-2", "https://docs.example.com/api/v1", false},
		{"协议转小写", "HTTPS://docs.example.com/api", "https://docs.example.com/api", false},
		{"主机名转小写", "https://Docs.Example.COM/api", "https://docs.example.com/api", false},
		{"路径大小写保留", "https://docs.example.com/API/V1", "https://docs.example.com/API/V1", false},
		{"查询参数保留", "https://docs.example.com/page?version=2&lang=en", "https://docs.example.com/page?version=2&lang=en", false},
		{"尾斜杠保留", "https://docs.example.com/api/", "https://docs.example.com/api/", false},
		{"只有fragment差异", "https://docs.example.com/api#top", "https://docs.example.com/api", false},
		{"无效URL", "http://exa mple.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.rawURL)
			if (err != nil) != tt.wantErr {
				t.Fatalf("期望错误=%v, 实际错误=%v", tt.wantErr, err)
			}
			if !tt.wantErr && got != tt.expected {
				t.Errorf("期望 %q, 得到 %q", tt.expected, got)
			}
		})
	}
}

func TestNormalizeURL_FragmentVariantsCollapse(t *testing.T) {
	// 同一页面的不同fragment应该归一化为同一个键
	a, err := NormalizeURL("https://docs.example.com/api#intro")
	if err != nil {
		t.Fatalf("归一化失败: %v", err)
	}
	b, err := NormalizeURL("https://docs.example.com/api#usage")
	if err != nil {
		t.Fatalf("归一化失败: %v", err)
	}
	if a != b {
		t.Errorf("fragment变体应该归一化为同一URL: %q != %q", a, b)
	}
}

func TestNewURLRecord(t *testing.T) {
	rec, err := NewURLRecord("https://Docs.Example.com/api#top", 2, 7, "https://docs.example.com/")
	if err != nil {
		t.Fatalf("创建URL记录失败: %v", err)
	}

	if rec.URL != "https://Docs.Example.com/api#top" {
		t.Errorf("原始URL应该保持不变, 得到: %q", rec.URL)
	}
	if rec.Normalized != "https://docs.example.com/api" {
		t.Errorf("归一化URL错误, 得到: %q", rec.Normalized)
	}
	if rec.Depth != 2 {
		t.Errorf("期望深度2, 得到: %d", rec.Depth)
	}
	if rec.Index != 7 {
		t.Errorf("期望序号7, 得到: %d", rec.Index)
	}
	if rec.SourceURL != "https://docs.example.com/" {
		t.Errorf("来源页面错误, 得到: %q", rec.SourceURL)
	}
	if rec.FoundAt.IsZero() {
		t.Error("发现时间未设置")
	}
}

func TestNewURLRecord_InvalidURL(t *testing.T) {
	_, err := NewURLRecord("http://exa mple.com", 0, 1, "")
	if err == nil {
		t.Error("无效URL应该返回错误")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		wantErr bool
	}{
		{"合法https", "https://docs.example.com/api", false},
		{"合法http", "http://docs.example.com", false},
		{"带端口", "http://localhost:8080/docs", false},
		{"非法协议ftp", "ftp://example.com/file", true},
		{"缺少主机名", "https:///path-only", true},
		{"相对路径", "/api/v1/users", true},
		{"空字符串", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.rawURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.wantErr, err)
			}
		})
	}
}
