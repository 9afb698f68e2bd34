package crawlers

import (
	"context"
)

// FetchResult 单个页面的拉取结果
type FetchResult struct {
	StatusCode int    // HTTP状态码
	HTML       string // 页面HTML(浏览器模式下为渲染后的DOM)
	FinalURL   string // 重定向后的最终URL
}

// PageFetcher 页面拉取器接口
// 链接发现和内容抓取两个阶段共用,静态和浏览器两种实现
type PageFetcher interface {
	// Fetch 拉取单个页面
	// HTTP错误状态(4xx/5xx)不作为error返回,体现在StatusCode中
	// error仅表示网络层失败(超时、连接拒绝、DNS解析失败等)
	Fetch(ctx context.Context, pageURL string) (*FetchResult, error)

	// Close 释放拉取器持有的资源
	Close() error
}
