// Package output 负责Markdown文件的落盘布局,镜像站点的URL路径结构
package output

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
)

// genericLabels 不适合作为站点名的通用域名标签
var genericLabels = map[string]bool{
	"docs": true, "doc": true, "developer": true, "dev": true, "api": true,
	"www": true, "com": true, "org": true, "net": true, "io": true,
}

// maxSlugLen 文件名slug的最大长度
const maxSlugLen = 60

// Organizer 输出组织器
// 把渲染好的Markdown按URL路径结构写入文档目录,文件名冲突时追加编号
type Organizer struct {
	docsDir string
	used    map[string]bool // 已占用的相对路径
}

// NewOrganizer 创建输出组织器
func NewOrganizer(docsDir string) *Organizer {
	return &Organizer{
		docsDir: docsDir,
		used:    make(map[string]bool),
	}
}

// DocsDir 文档根目录
func (o *Organizer) DocsDir() string {
	return o.docsDir
}

// MarkUsed 预先占用一个相对路径
// 断点续传时用已完成文件预置冲突集,编号不会回退复用
func (o *Organizer) MarkUsed(rel string) {
	o.used[rel] = true
}

// PathFor 计算URL记录对应的相对输出路径,不修改状态
// 同名冲突时在扩展名前追加 _1, _2 直到找到未占用的路径
func (o *Organizer) PathFor(rec models.URLRecord, title string) string {
	folder := FolderFor(rec.Normalized)
	name := fmt.Sprintf("%s_%02d_%s.md", fileHost(rec.Normalized), rec.Index, Slugify(title))

	rel := filepath.Join(folder, name)
	if !o.used[rel] {
		return rel
	}

	base := strings.TrimSuffix(rel, ".md")
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d.md", base, i)
		if !o.used[candidate] {
			return candidate
		}
	}
}

// Place 把Markdown写入目标路径并占用该路径
// 返回相对路径和写入字节数
func (o *Organizer) Place(rec models.URLRecord, title string, markdown string) (string, int64, error) {
	rel := o.PathFor(rec, title)
	abs := filepath.Join(o.docsDir, rel)

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", 0, fmt.Errorf("创建输出目录失败: %w", err)
	}

	if err := os.WriteFile(abs, []byte(markdown), 0644); err != nil {
		return "", 0, fmt.Errorf("写入Markdown文件失败: %w", err)
	}

	o.used[rel] = true
	utils.Debugf("已写入: %s (%d bytes)", rel, len(markdown))

	return rel, int64(len(markdown)), nil
}

// SiteLabel 从站点主机名提取站点标签
// 取二级域名标签;标签太通用时从右向左找第一个有意义的标签
func SiteLabel(host string) string {
	host = stripPort(host)

	// IP地址没有可用的域名标签
	if net.ParseIP(host) != nil {
		return sanitizeLabel(strings.ReplaceAll(host, ".", "_"))
	}

	labels := strings.Split(strings.ToLower(host), ".")

	// 注册域标签(倒数第二个)
	if len(labels) >= 2 {
		sld := labels[len(labels)-2]
		if !genericLabels[sld] {
			return sanitizeLabel(sld)
		}
	}

	// 从右向左找第一个非通用标签
	for i := len(labels) - 1; i >= 0; i-- {
		if !genericLabels[labels[i]] && labels[i] != "" {
			return sanitizeLabel(labels[i])
		}
	}

	return "site"
}

// DeriveRootName 从站点主机名推导文档根目录名
// developer.acronis.com -> acronis_docs, docs.python.org -> python_docs
func DeriveRootName(host string) string {
	return SiteLabel(host) + "_docs"
}

// FolderFor 从URL路径推导子目录名
// 丢弃空段和带扩展名的末段,剩余段用下划线连接;没有剩余段时放在根目录
func FolderFor(normalizedURL string) string {
	parsed, err := url.Parse(normalizedURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(parsed.Path, "/")
	kept := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg != "" {
			kept = append(kept, seg)
		}
	}

	// 末段是文件名(index.html之类)时不作为目录
	if len(kept) > 0 && strings.Contains(kept[len(kept)-1], ".") {
		kept = kept[:len(kept)-1]
	}

	if len(kept) == 0 {
		return ""
	}

	for i, seg := range kept {
		kept[i] = sanitizeLabel(seg)
	}
	return strings.Join(kept, "_")
}

// slugRe 非字母数字的连续字符
var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 把标题转成文件名片段
// 小写、非字母数字转下划线、折叠、截断到60字符,空结果用untitled
func Slugify(title string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(title), "_")
	slug = strings.Trim(slug, "_")

	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "_")
	}

	if slug == "" {
		return "untitled"
	}
	return slug
}

// sanitizeLabel 清理目录名片段
func sanitizeLabel(s string) string {
	cleaned := slugRe.ReplaceAllString(strings.ToLower(s), "_")
	return strings.Trim(cleaned, "_")
}

// fileHost 文件名中使用的主机名,冒号不能出现在文件名里
func fileHost(normalizedURL string) string {
	parsed, err := url.Parse(normalizedURL)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return strings.ReplaceAll(parsed.Host, ":", "_")
}

// stripPort 去掉主机名里的端口
func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
