package models

import (
	"encoding/json"
	"time"
)

// BlockKind 内容块类型
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"   // 标题
	BlockParagraph BlockKind = "paragraph" // 段落
	BlockList      BlockKind = "list"      // 有序/无序列表
	BlockTable     BlockKind = "table"     // 表格
	BlockCode      BlockKind = "code"      // 代码块
	BlockEndpoint  BlockKind = "endpoint"  // API端点签名
)

// Block 一个分类后的内容块
// Kind决定哪些字段有效,渲染时按Kind穷举分派
type Block struct {
	Kind BlockKind `json:"kind"`

	// heading
	Level int `json:"level,omitempty"` // 标题层级(1-6)

	// heading/paragraph共用
	Text string `json:"text,omitempty"` // 纯文本内容
	HTML string `json:"html,omitempty"` // 原始内嵌HTML(用于行内格式转换)

	// list
	Items   []ListItem `json:"items,omitempty"`
	Ordered bool       `json:"ordered,omitempty"` // true为有序列表

	// table
	Header []string   `json:"header,omitempty"`
	Rows   [][]string `json:"rows,omitempty"`

	// code
	Code string `json:"code,omitempty"`
	Lang string `json:"lang,omitempty"` // 语言提示,未知时为空

	// endpoint
	Method string `json:"method,omitempty"` // HTTP方法
	Path   string `json:"path,omitempty"`   // 路径模板
}

// ListItem 列表项
type ListItem struct {
	Text  string `json:"text"`
	HTML  string `json:"html,omitempty"`
	Depth int    `json:"depth"` // 嵌套层级(顶层为0)
}

// NewHeadingBlock 创建标题块
func NewHeadingBlock(level int, text string) Block {
	return Block{Kind: BlockHeading, Level: level, Text: text}
}

// NewParagraphBlock 创建段落块
func NewParagraphBlock(text, html string) Block {
	return Block{Kind: BlockParagraph, Text: text, HTML: html}
}

// NewListBlock 创建列表块
func NewListBlock(items []ListItem, ordered bool) Block {
	return Block{Kind: BlockList, Items: items, Ordered: ordered}
}

// NewTableBlock 创建表格块
func NewTableBlock(header []string, rows [][]string) Block {
	return Block{Kind: BlockTable, Header: header, Rows: rows}
}

// NewCodeBlock 创建代码块
func NewCodeBlock(code, lang string) Block {
	return Block{Kind: BlockCode, Code: code, Lang: lang}
}

// NewEndpointBlock 创建端点签名块
func NewEndpointBlock(method, path string) Block {
	return Block{Kind: BlockEndpoint, Method: method, Path: path}
}

// PageContent 单个页面的提取结果
// 每个成功拉取的页面产生一条,产生后不再修改
type PageContent struct {
	URL         string    `json:"url"`       // 请求URL
	FinalURL    string    `json:"final_url"` // 重定向后的最终URL
	Title       string    `json:"title"`     // 页面标题
	Blocks      []Block   `json:"blocks"`    // 按文档顺序排列的内容块
	ExtractedAt time.Time `json:"extracted_at"`
}

// IsEmpty 判断页面是否没有任何可提取内容
// 空页面是软失败: 不写文件,不计入硬失败
func (p *PageContent) IsEmpty() bool {
	return len(p.Blocks) == 0
}

// CountKind 统计指定类型的内容块数量
func (p *PageContent) CountKind(kind BlockKind) int {
	n := 0
	for _, b := range p.Blocks {
		if b.Kind == kind {
			n++
		}
	}
	return n
}

// ToJSON 序列化为JSON
func (p *PageContent) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
