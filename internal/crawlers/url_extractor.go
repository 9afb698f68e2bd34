package crawlers

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExtractLinks 从HTML中按文档顺序提取<a href>链接
// 相对链接根据baseURL解析为绝对地址,仅保留http/https协议,页面内去重
// baseURL应为重定向后的最终URL,否则相对链接会解析到错误的路径
func ExtractLinks(htmlContent string, baseURL string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("解析baseURL失败: %w", err)
	}

	var links []string
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}

				linkURL, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					break
				}

				// 转换为绝对URL
				absolute := base.ResolveReference(linkURL)
				if absolute.Scheme != "http" && absolute.Scheme != "https" {
					break
				}

				absoluteStr := absolute.String()
				if !seen[absoluteStr] {
					seen[absoluteStr] = true
					links = append(links, absoluteStr)
				}
				break
			}
		}

		// 递归处理子节点
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return links, nil
}
