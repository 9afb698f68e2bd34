// Package extract 从文档页面HTML中提取结构化内容块
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
)

// titleSelectors 页面标题选择器,按优先级排列
var titleSelectors = []string{
	"h1",
	"title",
	".page-title",
	".doc-title",
	".api-title",
	`[role="heading"][aria-level="1"]`,
}

// regionSelectors 正文区域选择器,按优先级排列
// 覆盖常见文档框架(Sphinx, Docusaurus, GitBook, Swagger UI等)的容器类名
var regionSelectors = []string{
	"main",
	`[role="main"]`,
	".main-content",
	".content",
	".documentation",
	".api-docs",
	".doc-content",
	"article",
	".markdown-body",
	".rst-content",
}

// noiseSelector 导航类噪音元素,从正文区域内移除
const noiseSelector = "nav, footer, script, style, noscript, .sidebar, .navigation, .toc, .breadcrumb, header"

// endpointRe API端点签名: HTTP方法后跟以/开头的路径
var endpointRe = regexp.MustCompile(`(GET|POST|PUT|DELETE|PATCH|HEAD|OPTIONS)\s+(/[^\s\n\)"']+)`)

// knownLangs class属性中直接作为语言名出现的值
var knownLangs = map[string]bool{
	"python": true, "javascript": true, "typescript": true, "go": true,
	"bash": true, "shell": true, "curl": true, "json": true, "yaml": true,
	"xml": true, "ruby": true, "java": true, "php": true, "http": true,
}

// Extractor 内容提取器
// 从页面HTML中识别正文区域,按文档顺序提取标题、段落、列表、表格、代码和端点签名
type Extractor struct {
	extractEndpoints bool
	extractCode      bool
}

// NewExtractor 创建内容提取器
func NewExtractor(config models.CrawlConfig) *Extractor {
	return &Extractor{
		extractEndpoints: config.ExtractEndpoints,
		extractCode:      config.ExtractCode,
	}
}

// Extract 从HTML中提取页面内容
// 正文区域为空不是错误,返回无内容块的记录由调用方软跳过
func (e *Extractor) Extract(pageURL string, htmlContent string) (*models.PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	page := &models.PageContent{
		URL:         pageURL,
		Title:       extractTitle(doc),
		ExtractedAt: time.Now(),
	}

	region := selectRegion(doc)
	region.Find(noiseSelector).Remove()

	// 端点按 方法+路径 页面内去重
	seen := make(map[string]bool)
	e.walkBlocks(region, page, seen)

	if page.IsEmpty() {
		utils.Debugf("页面无可提取内容: %s", pageURL)
	}

	return page, nil
}

// extractTitle 提取页面标题
// 依次尝试各选择器,取首个非空且长度合理的文本,全部落空用Untitled
func extractTitle(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		text := cleanText(doc.Find(sel).First().Text())
		if text != "" && len(text) < 200 {
			return text
		}
	}
	return "Untitled"
}

// selectRegion 选择正文区域,全部选择器落空时退回body
func selectRegion(doc *goquery.Document) *goquery.Selection {
	for _, sel := range regionSelectors {
		if region := doc.Find(sel).First(); region.Length() > 0 {
			return region
		}
	}
	return doc.Find("body").First()
}

// walkBlocks 按文档顺序遍历区域内的块级元素
// 遇到块级元素就地收块,其余元素视为容器继续向下
func (e *Extractor) walkBlocks(region *goquery.Selection, page *models.PageContent, seen map[string]bool) {
	var process func(s *goquery.Selection)
	process = func(s *goquery.Selection) {
		if s.Length() == 0 {
			return
		}

		tag := goquery.NodeName(s)
		switch tag {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			if text := cleanText(s.Text()); text != "" {
				level := int(tag[1] - '0')
				page.Blocks = append(page.Blocks, models.NewHeadingBlock(level, text))
			}

		case "p", "blockquote":
			e.addTextBlock(page, s, seen)

		case "ul":
			if items := e.listItems(s, 0); len(items) > 0 {
				page.Blocks = append(page.Blocks, models.NewListBlock(items, false))
			}

		case "ol":
			if items := e.listItems(s, 0); len(items) > 0 {
				page.Blocks = append(page.Blocks, models.NewListBlock(items, true))
			}

		case "table":
			e.addTable(page, s)

		case "pre":
			e.addCode(page, s, seen)

		default:
			s.Children().Each(func(_ int, child *goquery.Selection) {
				process(child)
			})
		}
	}
	process(region)
}

// addTextBlock 收一个段落,短独立行形如 "GET /v1/charges" 记为端点签名
func (e *Extractor) addTextBlock(page *models.PageContent, s *goquery.Selection, seen map[string]bool) {
	text := cleanText(s.Text())
	if text == "" {
		return
	}

	if e.extractEndpoints && len(text) < 100 {
		if m := endpointRe.FindStringSubmatch(text); m != nil && strings.HasPrefix(text, m[1]) {
			e.addEndpoint(page, seen, m[1], m[2])
			return
		}
	}

	page.Blocks = append(page.Blocks, models.NewParagraphBlock(text, innerHTML(s)))
}

// addCode 收一个代码块并扫描其中的端点签名
// 代码示例里常见完整的请求行,端点提取不依赖代码块开关
func (e *Extractor) addCode(page *models.PageContent, s *goquery.Selection, seen map[string]bool) {
	// pre内的文本保持原样,只去掉首尾空行
	code := strings.Trim(s.Text(), "\n")
	if strings.TrimSpace(code) == "" {
		return
	}

	if e.extractCode {
		lang := classLang(s)
		if lang == "" {
			lang = inferLang(code)
		}
		page.Blocks = append(page.Blocks, models.NewCodeBlock(code, lang))
	}

	if e.extractEndpoints {
		for _, m := range endpointRe.FindAllStringSubmatch(code, -1) {
			e.addEndpoint(page, seen, m[1], m[2])
		}
	}
}

// addEndpoint 记录端点签名,页面内按 方法+路径 去重
func (e *Extractor) addEndpoint(page *models.PageContent, seen map[string]bool, method, path string) {
	key := method + " " + path
	if seen[key] {
		return
	}
	seen[key] = true
	page.Blocks = append(page.Blocks, models.NewEndpointBlock(method, path))
}

// addTable 收一个表格,th整行作为表头,其余作为数据行
func (e *Extractor) addTable(page *models.PageContent, table *goquery.Selection) {
	var header []string
	var rows [][]string

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cleanText(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}

		if header == nil && tr.Find("th").Length() > 0 && tr.Find("td").Length() == 0 {
			header = cells
			return
		}
		rows = append(rows, cells)
	})

	if header == nil && len(rows) == 0 {
		return
	}

	page.Blocks = append(page.Blocks, models.NewTableBlock(header, rows))
}

// listItems 提取列表项,嵌套列表递归展平并记录层级
func (e *Extractor) listItems(list *goquery.Selection, depth int) []models.ListItem {
	var items []models.ListItem

	list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		// 列表项自身的文本不含嵌套列表的内容
		own := li.Clone()
		own.Find("ul, ol").Remove()

		if text := cleanText(own.Text()); text != "" {
			items = append(items, models.ListItem{
				Text:  text,
				HTML:  innerHTML(own),
				Depth: depth,
			})
		}

		li.ChildrenFiltered("ul, ol").Each(func(_ int, nested *goquery.Selection) {
			items = append(items, e.listItems(nested, depth+1)...)
		})
	})

	return items
}

// classLang 从pre或内嵌code的class属性中取语言提示
func classLang(pre *goquery.Selection) string {
	classes := pre.AttrOr("class", "")
	if code := pre.Find("code").First(); code.Length() > 0 {
		classes += " " + code.AttrOr("class", "")
	}

	for _, cls := range strings.Fields(classes) {
		lower := strings.ToLower(cls)
		switch {
		case strings.HasPrefix(lower, "language-"):
			return strings.TrimPrefix(lower, "language-")
		case strings.HasPrefix(lower, "lang-"):
			return strings.TrimPrefix(lower, "lang-")
		case knownLangs[lower]:
			return lower
		}
	}
	return ""
}

// inferLang 根据代码内容形状猜测语言,猜不出返回空
func inferLang(code string) string {
	trimmed := strings.TrimSpace(code)
	switch {
	case strings.HasPrefix(trimmed, "curl ") || strings.HasPrefix(trimmed, "wget "):
		return "bash"
	case strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "class "):
		return "python"
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		return "json"
	case strings.HasPrefix(trimmed, "<"):
		return "xml"
	}
	return ""
}

// spaceRe 连续空白
var spaceRe = regexp.MustCompile(`\s+`)

// cleanText 压缩空白并去掉首尾空格
func cleanText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// innerHTML 取选区的内部HTML,失败时返回空串
func innerHTML(s *goquery.Selection) string {
	h, err := s.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(h)
}
