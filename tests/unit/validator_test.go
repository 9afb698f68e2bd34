package unit

import (
	"net/http"
	"strings"
	"testing"

	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
)

func TestHeaderValidator_ValidateName(t *testing.T) {
	validator := utils.NewHeaderValidator()

	tests := []struct {
		name        string
		headerName  string
		expectError bool
	}{
		{"合法名称-标准头部", "User-Agent", false},
		{"合法名称-带数字", "X-Request-ID-2", false},
		{"合法名称-单字符", "X", false},
		{"合法名称-认证头部", "Authorization", false},
		{"非法名称-包含空格", "User Agent", true},
		{"非法名称-包含下划线", "X_Custom", true},
		{"非法名称-包含冒号", "X:Custom", true},
		{"非法名称-中文", "自定义头部", true},
		{"非法名称-空字符串", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateName(tt.headerName)
			if (err != nil) != tt.expectError {
				t.Errorf("ValidateName(%q) 期望错误=%v, 实际错误=%v", tt.headerName, tt.expectError, err)
			}
		})
	}
}

func TestHeaderValidator_ValidateValue(t *testing.T) {
	validator := utils.NewHeaderValidator()

	tests := []struct {
		name        string
		headerValue string
		expectError bool
	}{
		{"合法值-普通UA", "Mozilla/5.0 (X11; Linux x86_64)", false},
		{"合法值-Bearer令牌", "Bearer eyJhbGciOiJIUzI1NiJ9.payload.sig", false},
		{"合法值-空字符串", "", false},
		{"合法值-包含制表符", "a\tb", false},
		{"合法值-刚好到上限", strings.Repeat("x", utils.MaxHeaderValueLength), false},
		{"非法值-超过上限", strings.Repeat("x", utils.MaxHeaderValueLength+1), true},
		{"非法值-NUL字符", "value\x00null", true},
		{"非法值-换行注入", "value\r\nX-Injected: evil", true},
		{"非法值-非ASCII", "值中带中文", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateValue("X-Test", tt.headerValue)
			if (err != nil) != tt.expectError {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
		})
	}
}

func TestHeaderValidator_IsForbidden(t *testing.T) {
	validator := utils.NewHeaderValidator()

	// 四个由HTTP客户端自动管理的头部都不允许自定义
	for _, name := range utils.ForbiddenHeaders {
		if !validator.IsForbidden(name) {
			t.Errorf("%s 应该被禁止", name)
		}
		if !validator.IsForbidden(strings.ToLower(name)) {
			t.Errorf("%s 小写形式也应该被禁止", name)
		}
		if !validator.IsForbidden(strings.ToUpper(name)) {
			t.Errorf("%s 大写形式也应该被禁止", name)
		}
	}

	for _, name := range []string{"User-Agent", "Accept", "Authorization", "X-Api-Key"} {
		if validator.IsForbidden(name) {
			t.Errorf("%s 不应该被禁止", name)
		}
	}
}

func TestHeaderValidator_ValidateHeader(t *testing.T) {
	validator := utils.NewHeaderValidator()

	tests := []struct {
		name        string
		headerName  string
		headerValue string
		expectError bool
	}{
		{"合法头部", "Accept-Language", "zh-CN,zh;q=0.9", false},
		{"禁止头部-Host", "Host", "docs.example.com", true},
		{"禁止头部-Connection", "connection", "keep-alive", true},
		{"禁止头部-Transfer-Encoding", "Transfer-Encoding", "chunked", true},
		{"名称非法直接拒绝", "Bad Name", "value", true},
		{"值非法直接拒绝", "X-Bad", "bad\x01value", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateHeader(tt.headerName, tt.headerValue)
			if (err != nil) != tt.expectError {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
		})
	}
}

func TestHeaderValidator_Validate(t *testing.T) {
	validator := utils.NewHeaderValidator()

	t.Run("全部合法", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("User-Agent", "ApiDocFetch/1.0")
		headers.Set("Accept", "text/html")
		headers.Set("Authorization", "Bearer token123")

		if err := validator.Validate(headers); err != nil {
			t.Errorf("期望无错误, 实际错误=%v", err)
		}
	})

	t.Run("混入禁止头部", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("User-Agent", "ApiDocFetch/1.0")
		headers.Set("Content-Length", "42")

		if err := validator.Validate(headers); err == nil {
			t.Error("期望返回错误, 但无错误")
		}
	})

	t.Run("混入非法值", func(t *testing.T) {
		headers := http.Header{
			"X-Custom": {"ok", "bad\x00value"},
		}

		if err := validator.Validate(headers); err == nil {
			t.Error("多值头部中任一非法值都应该报错")
		}
	})
}
