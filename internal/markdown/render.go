// Package markdown 把提取出的内容块渲染为Markdown文档
package markdown

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
)

// Render 把单个页面渲染为Markdown文档
// 文档头为H1标题、来源行和分隔线,之后按原始顺序渲染全部内容块
// 不重排也不截断,提取到什么就渲染什么
func Render(page *models.PageContent) string {
	base := baseOf(page)

	var sb strings.Builder
	sb.WriteString("# " + page.Title + "\n\n")
	sb.WriteString("**Source:** " + page.URL + "\n\n")
	sb.WriteString("---\n\n")

	for _, block := range page.Blocks {
		switch block.Kind {
		case models.BlockHeading:
			writeHeading(&sb, block)
		case models.BlockParagraph:
			writeParagraph(&sb, block, base)
		case models.BlockList:
			writeList(&sb, block, base)
		case models.BlockTable:
			writeTable(&sb, block)
		case models.BlockCode:
			writeCode(&sb, block)
		case models.BlockEndpoint:
			fmt.Fprintf(&sb, "- **%s** `%s`\n\n", block.Method, block.Path)
		default:
			// 新增块类型必须在这里有分支,悄悄丢内容不可接受
			utils.Warnf("未知的内容块类型: %s", block.Kind)
		}
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// writeHeading 标题块,层级钳制在1-6
func writeHeading(sb *strings.Builder, block models.Block) {
	level := block.Level
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	sb.WriteString(strings.Repeat("#", level) + " " + block.Text + "\n\n")
}

// writeParagraph 段落块,行内HTML转为Markdown
func writeParagraph(sb *strings.Builder, block models.Block, base string) {
	text := inlineMarkdown(block.HTML, block.Text, base)
	if text == "" {
		return
	}
	sb.WriteString(text + "\n\n")
}

// writeList 列表块,两空格缩进表示嵌套,有序列表按层级单独计数
func writeList(sb *strings.Builder, block models.Block, base string) {
	counters := make(map[int]int)

	for _, item := range block.Items {
		// 回到浅层时重置更深层级的计数
		for d := range counters {
			if d > item.Depth {
				delete(counters, d)
			}
		}
		counters[item.Depth]++

		marker := "-"
		if block.Ordered {
			marker = fmt.Sprintf("%d.", counters[item.Depth])
		}

		text := inlineMarkdown(item.HTML, item.Text, base)
		sb.WriteString(strings.Repeat("  ", item.Depth) + marker + " " + text + "\n")
	}

	sb.WriteString("\n")
}

// writeTable 表格块,参差行补齐到最大列宽,单元格内的竖线转义
func writeTable(sb *strings.Builder, block models.Block) {
	width := len(block.Header)
	for _, row := range block.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return
	}

	writeRow := func(cells []string) {
		sb.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(" " + escapePipes(cell) + " |")
		}
		sb.WriteString("\n")
	}

	writeRow(block.Header)
	sb.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
	for _, row := range block.Rows {
		writeRow(row)
	}

	sb.WriteString("\n")
}

// writeCode 代码块,代码内出现三连以上反引号时加长围栏
func writeCode(sb *strings.Builder, block models.Block) {
	fenceLen := 3
	if run := longestBacktickRun(block.Code); run >= 3 {
		fenceLen = run + 1
	}
	fence := strings.Repeat("`", fenceLen)

	sb.WriteString(fence + block.Lang + "\n")
	sb.WriteString(block.Code + "\n")
	sb.WriteString(fence + "\n\n")
}

// inlineMarkdown 把行内HTML转换为Markdown
// 转换失败或结果为空时退回纯文本,行内场景不保留换行
func inlineMarkdown(htmlStr, fallback, base string) string {
	if strings.TrimSpace(htmlStr) == "" {
		return fallback
	}

	var opts []converter.ConvertOptionFunc
	if base != "" {
		opts = append(opts, converter.WithDomain(base))
	}

	md, err := htmltomarkdown.ConvertString(htmlStr, opts...)
	if err != nil {
		utils.Debugf("行内HTML转换失败,使用纯文本: %v", err)
		return fallback
	}

	md = strings.TrimSpace(collapseSpace(md))
	if md == "" {
		return fallback
	}
	return md
}

// baseOf 取页面的 scheme://host,供相对链接解析
func baseOf(page *models.PageContent) string {
	raw := page.FinalURL
	if raw == "" {
		raw = page.URL
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// escapePipes 转义单元格里的竖线
func escapePipes(cell string) string {
	return strings.ReplaceAll(cell, "|", `\|`)
}

// longestBacktickRun 最长连续反引号长度
func longestBacktickRun(s string) int {
	longest, current := 0, 0
	for _, r := range s {
		if r == '`' {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}

// whitespaceRe 连续空白
var whitespaceRe = regexp.MustCompile(`\s+`)

// collapseSpace 压缩连续空白为单个空格
func collapseSpace(s string) string {
	return whitespaceRe.ReplaceAllString(s, " ")
}
