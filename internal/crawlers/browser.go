package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// 错误类型定义
var (
	ErrBrowserCrashed    = errors.New("浏览器崩溃")
	ErrMaxRetriesReached = errors.New("已达最大重试次数")
)

// maxBrowserRetries 浏览器崩溃后的最大重启次数
const maxBrowserRetries = 3

// BrowserFetcher 浏览器页面拉取器(使用Rod)
// 适用于前端框架渲染的文档站点,在真实浏览器中执行JavaScript后取渲染结果
type BrowserFetcher struct {
	config models.CrawlConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 浏览器实例,首次Fetch时延迟启动
	browser *rod.Browser

	// 浏览器重启次数
	restarts int
}

// NewBrowserFetcher 创建浏览器拉取器
// 浏览器进程在首次Fetch时才启动,纯静态运行不付出启动成本
func NewBrowserFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) *BrowserFetcher {
	return &BrowserFetcher{
		config:         config,
		headerProvider: headerProvider,
	}
}

// Fetch 在浏览器中加载页面并返回渲染后的HTML
// 浏览器崩溃时自动重启,最多重试3次
func (bf *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (*FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= maxBrowserRetries; attempt++ {
		if attempt > 0 {
			utils.Warnf("浏览器崩溃,准备重启(重试%d/%d)", attempt, maxBrowserRetries)
			bf.closeBrowser()
			bf.restarts++
			time.Sleep(2 * time.Second)
		}

		if err := bf.ensureBrowser(); err != nil {
			utils.Errorf("浏览器启动失败(重试%d/%d): %v", attempt, maxBrowserRetries, err)
			lastErr = err
			continue
		}

		result, err := bf.fetchWithBrowser(ctx, pageURL)
		if errors.Is(err, ErrBrowserCrashed) {
			lastErr = err
			continue
		}
		return result, err
	}

	return nil, fmt.Errorf("%w: %v", ErrMaxRetriesReached, lastErr)
}

// fetchWithBrowser 在当前浏览器实例中加载单个页面
// 返回ErrBrowserCrashed表示浏览器崩溃,需要重启
func (bf *BrowserFetcher) fetchWithBrowser(ctx context.Context, pageURL string) (result *FetchResult, err error) {
	// 浏览器操作可能panic,统一转换为崩溃错误触发重启
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("浏览器操作panic: %v", r)
			result = nil
			err = ErrBrowserCrashed
		}
	}()

	page, pageErr := bf.browser.Page(proto.TargetCreateTarget{})
	if pageErr != nil {
		utils.Errorf("创建标签页失败: %v", pageErr)
		return nil, ErrBrowserCrashed
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx).Timeout(bf.config.TimeoutDuration())

	// 应用自定义HTTP头部
	router := bf.setupHeaderIntercept(page)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// 监听主文档响应,捕获HTTP状态码
	respCh := make(chan *proto.NetworkResponseReceived, 1)
	waitEvent := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			select {
			case respCh <- e:
			default:
			}
			return true
		}
		return false
	})
	go waitEvent()

	if navErr := page.Navigate(pageURL); navErr != nil {
		return nil, fmt.Errorf("导航失败: %w", navErr)
	}

	if loadErr := page.WaitLoad(); loadErr != nil {
		return nil, fmt.Errorf("等待页面加载失败: %w", loadErr)
	}

	// 额外等待,让前端框架完成渲染
	time.Sleep(time.Duration(bf.config.WaitTime) * time.Second)

	htmlContent, htmlErr := page.HTML()
	if htmlErr != nil {
		return nil, fmt.Errorf("读取页面HTML失败: %w", htmlErr)
	}

	// 重定向后的最终URL
	finalURL := pageURL
	if info, infoErr := page.Info(); infoErr == nil && info.URL != "" {
		finalURL = info.URL
	}

	status := 0
	select {
	case e := <-respCh:
		status = e.Response.Status
	case <-time.After(500 * time.Millisecond):
		// 响应事件未捕获到(如缓存命中)
	}

	// 状态未知但页面有内容,按成功处理
	if status == 0 && strings.TrimSpace(htmlContent) != "" {
		status = http.StatusOK
	}

	utils.Debugf("页面加载完成: %s (状态: %d)", finalURL, status)

	return &FetchResult{
		StatusCode: status,
		HTML:       htmlContent,
		FinalURL:   finalURL,
	}, nil
}

// setupHeaderIntercept 通过请求劫持注入自定义HTTP头部
func (bf *BrowserFetcher) setupHeaderIntercept(page *rod.Page) *rod.HijackRouter {
	if bf.headerProvider == nil {
		return nil
	}

	headers, err := bf.headerProvider.GetHeaders()
	if err != nil {
		utils.Warnf("获取HTTP头部失败: %v", err)
		return nil
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(hctx *rod.Hijack) {
		for name, values := range headers {
			if len(values) > 0 {
				hctx.Request.Req().Header.Set(name, values[0])
			}
		}

		// 让浏览器继续处理请求,只改头部不截响应
		hctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()

	return router
}

// ensureBrowser 启动浏览器(如果尚未启动)
func (bf *BrowserFetcher) ensureBrowser() error {
	if bf.browser != nil {
		return nil
	}

	l := launcher.New()
	if bf.config.Headless {
		l = l.Headless(true)
	} else {
		l = l.Headless(false)
	}

	// 忽略证书错误,允许访问自签名、过期或主机名不匹配的HTTPS站点
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("连接浏览器失败: %w", err)
	}

	bf.browser = browser
	utils.Debugf("浏览器已启动: %s", controlURL)
	return nil
}

// closeBrowser 关闭浏览器
// 浏览器已经崩溃时MustClose会panic,吞掉即可
func (bf *BrowserFetcher) closeBrowser() {
	if bf.browser == nil {
		return
	}

	func() {
		defer func() { _ = recover() }()
		bf.browser.MustClose()
	}()

	bf.browser = nil
	utils.Debugf("浏览器已关闭")
}

// Restarts 返回浏览器重启次数
func (bf *BrowserFetcher) Restarts() int {
	return bf.restarts
}

// Close 关闭浏览器并释放资源
func (bf *BrowserFetcher) Close() error {
	bf.closeBrowser()
	return nil
}
