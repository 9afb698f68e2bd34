package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html"
)

// StaticFetcher 静态页面拉取器(使用Colly)
// 适用于服务端渲染的文档站点,单次HTTP请求即可取到完整HTML
type StaticFetcher struct {
	collector *colly.Collector
	config    models.CrawlConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 当前请求的结果暂存,Colly回调写入,Fetch读取
	mu       sync.Mutex
	status   int
	body     []byte
	finalURL string
	lastErr  error
}

// NewStaticFetcher 创建静态拉取器
func NewStaticFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) *StaticFetcher {
	// 自定义HTTP客户端,禁用TLS证书验证
	// 允许访问自签名、过期或主机名不匹配的HTTPS站点
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		Timeout: config.TimeoutDuration(),
	}

	// 同步collector,逐页拉取
	// 不设置AllowedDomains,域名过滤完全由应用层控制
	// AllowURLRevisit禁用Colly内部的访问去重,去重由发现阶段负责
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
	)

	c.SetClient(httpClient)
	c.SetRequestTimeout(config.TimeoutDuration())
	utils.Debugf("静态拉取器: HTTP超时 %d 秒, TLS证书验证已禁用", config.Timeout)

	sf := &StaticFetcher{
		collector:      c,
		config:         config,
		headerProvider: headerProvider,
	}

	sf.setupCallbacks()

	return sf
}

// setupCallbacks 设置Colly回调
func (sf *StaticFetcher) setupCallbacks() {
	// 访问前: 应用自定义HTTP头部
	sf.collector.OnRequest(func(r *colly.Request) {
		if sf.headerProvider != nil {
			headers, err := sf.headerProvider.GetHeaders()
			if err != nil {
				utils.Warnf("获取HTTP头部失败: %v", err)
			} else {
				for name, values := range headers {
					if len(values) > 0 {
						r.Headers.Set(name, values[0])
					}
				}
			}
		}

		utils.Debugf("访问: %s", r.URL.String())
	})

	// 响应处理: 解压并暂存页面内容
	sf.collector.OnResponse(func(r *colly.Response) {
		body := r.Body

		// 自定义Accept-Encoding头部会关闭Go传输层的自动解压,需要手动处理
		contentEncoding := r.Headers.Get("Content-Encoding")
		if contentEncoding != "" {
			decompressed, err := decompressResponse(contentEncoding, r.Body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", r.Request.URL, contentEncoding, err)
				// 解压失败,仍然尝试使用原始body
			} else {
				body = decompressed
				utils.Debugf("成功解压响应 [%s]: 原始=%d bytes, 解压后=%d bytes", r.Request.URL, len(r.Body), len(body))
			}
		}

		sf.mu.Lock()
		sf.status = r.StatusCode
		sf.body = body
		// 重定向后Colly会更新Request.URL,此处即为最终URL
		sf.finalURL = r.Request.URL.String()
		sf.mu.Unlock()
	})

	// 错误处理: HTTP错误状态码也会走到这里,保留状态码供调用方判定
	sf.collector.OnError(func(r *colly.Response, err error) {
		sf.mu.Lock()
		if r != nil {
			sf.status = r.StatusCode
			sf.body = r.Body
			if r.Request != nil && r.Request.URL != nil {
				sf.finalURL = r.Request.URL.String()
			}
		}
		sf.lastErr = err
		sf.mu.Unlock()
	})
}

// Fetch 拉取单个页面
func (sf *StaticFetcher) Fetch(ctx context.Context, pageURL string) (*FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 清空上一次的结果
	sf.mu.Lock()
	sf.status = 0
	sf.body = nil
	sf.finalURL = ""
	sf.lastErr = nil
	sf.mu.Unlock()

	// 同步collector,Visit阻塞直到请求完成
	visitErr := sf.collector.Visit(pageURL)

	sf.mu.Lock()
	status := sf.status
	body := sf.body
	finalURL := sf.finalURL
	lastErr := sf.lastErr
	sf.mu.Unlock()

	// 拿到了HTTP状态码,无论成败都交给调用方判定
	if status > 0 {
		if finalURL == "" {
			finalURL = pageURL
		}
		return &FetchResult{
			StatusCode: status,
			HTML:       string(body),
			FinalURL:   finalURL,
		}, nil
	}

	// 网络层失败
	if lastErr != nil {
		return nil, fmt.Errorf("静态拉取失败: %w", lastErr)
	}
	if visitErr != nil {
		return nil, fmt.Errorf("静态拉取失败: %w", visitErr)
	}

	return nil, fmt.Errorf("静态拉取失败: 未收到响应")
}

// Close 释放资源
// Colly collector无需显式关闭
func (sf *StaticFetcher) Close() error {
	return nil
}

// LooksLikeAppShell 判断HTML是否为JavaScript应用的空壳页面
// 这类页面的内容由前端框架在浏览器中渲染,静态拉取只能拿到挂载点
//
// 判断规则:
//   - 存在常见SPA挂载点(id为root/app/__next等的空容器)且可见文本很少
//   - 或页面引用了脚本但几乎没有可见文本
func LooksLikeAppShell(htmlContent string) bool {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return false
	}

	var textLen int
	var scriptCount int
	var hasMountPoint bool

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script":
				scriptCount++
				return
			case "style", "noscript":
				return
			case "div", "main", "section":
				for _, attr := range n.Attr {
					if attr.Key == "id" {
						switch strings.ToLower(attr.Val) {
						case "root", "app", "__next", "__nuxt", "q-app":
							hasMountPoint = true
						}
					}
				}
			}
		}

		if n.Type == html.TextNode {
			textLen += len(strings.TrimSpace(n.Data))
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// 挂载点存在且正文文本极少,典型的React/Vue空壳
	if hasMountPoint && textLen < 200 {
		return true
	}

	// 没有明确挂载点,但脚本很多且几乎无文本
	return scriptCount > 0 && textLen < 80
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		// 没有压缩,直接返回原始内容
		return body, nil

	default:
		// 未知编码,返回警告但仍然返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
