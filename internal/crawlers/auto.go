package crawlers

import (
	"context"

	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
)

// AutoFetcher 自动模式拉取器
// 先用静态HTTP拉取,检测到JS应用壳页面时换浏览器重拉同一页面
// 浏览器重拉失败时回退静态结果,保证链接发现不中断
type AutoFetcher struct {
	static  *StaticFetcher
	browser *BrowserFetcher
}

// NewAutoFetcher 创建自动模式拉取器
// 接管两个拉取器的关闭责任
func NewAutoFetcher(static *StaticFetcher, browser *BrowserFetcher) *AutoFetcher {
	return &AutoFetcher{
		static:  static,
		browser: browser,
	}
}

// Fetch 拉取页面
func (a *AutoFetcher) Fetch(ctx context.Context, pageURL string) (*FetchResult, error) {
	result, err := a.static.Fetch(ctx, pageURL)
	if err != nil {
		// 网络层都不通,浏览器也到不了
		return nil, err
	}

	if result.StatusCode >= 400 || !LooksLikeAppShell(result.HTML) {
		return result, nil
	}

	utils.Infof("🌐 检测到JS渲染页面,切换浏览器模式: %s", pageURL)

	rendered, err := a.browser.Fetch(ctx, pageURL)
	if err != nil {
		utils.Warnf("浏览器拉取失败,回退静态结果: %v", err)
		return result, nil
	}

	return rendered, nil
}

// Close 关闭两个拉取器
func (a *AutoFetcher) Close() error {
	staticErr := a.static.Close()
	browserErr := a.browser.Close()
	if browserErr != nil {
		return browserErr
	}
	return staticErr
}
