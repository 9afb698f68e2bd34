package utils

import (
	"net/http"
	"strings"
)

// SensitiveKeywords 敏感头部名称关键字,命中即脱敏
var SensitiveKeywords = []string{
	"authorization",
	"token",
	"key",
	"secret",
	"password",
	"credential",
	"api-key",
}

// HeaderRedactor 头部脱敏器,日志输出前隐藏敏感值
type HeaderRedactor struct {
	sensitiveKeywords []string
}

// NewHeaderRedactor 创建头部脱敏器
func NewHeaderRedactor() *HeaderRedactor {
	return &HeaderRedactor{
		sensitiveKeywords: SensitiveKeywords,
	}
}

// IsSensitiveHeader 根据名称关键字判断头部是否敏感
func (hr *HeaderRedactor) IsSensitiveHeader(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range hr.sensitiveKeywords {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

// RedactHeaderValue 脱敏单个头部值
// Bearer令牌仅保留前缀,长密钥保留首尾4位,短密钥完全隐藏
func (hr *HeaderRedactor) RedactHeaderValue(name, value string) string {
	if !hr.IsSensitiveHeader(name) {
		return value
	}

	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer ***"
	}

	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}

	return "***"
}

// Redact 脱敏整个http.Header,返回可安全写入日志的map
func (hr *HeaderRedactor) Redact(headers http.Header) map[string]string {
	result := make(map[string]string)
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}

		// 只取第一个值 (大多数头部只有一个值)
		value := values[0]
		if hr.IsSensitiveHeader(name) {
			result[name] = hr.RedactHeaderValue(name, value)
		} else {
			result[name] = value
		}
	}
	return result
}

// RedactToString 脱敏后拼为 "Name: value, ..." 形式,用于日志输出
func (hr *HeaderRedactor) RedactToString(headers http.Header) string {
	redacted := hr.Redact(headers)
	var parts []string
	for name, value := range redacted {
		parts = append(parts, name+": "+value)
	}
	return strings.Join(parts, ", ")
}
