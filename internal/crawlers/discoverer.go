package crawlers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
	"golang.org/x/time/rate"
)

// Discoverer 链接发现爬虫
// 从种子URL开始广度优先遍历,产出按发现顺序排列的URL清单
// 只负责找链接,页面内容的抓取和转换由后续阶段处理
type Discoverer struct {
	fetcher PageFetcher
	matcher *Matcher
	limiter *rate.Limiter
	config  models.CrawlConfig
}

// DiscoveryResult 发现阶段的结果
type DiscoveryResult struct {
	Records []models.URLRecord // 按发现顺序排列的URL记录
	Visited int                // 实际访问的页面数
	Failed  []models.FailedURL // 访问失败的页面
}

// NewDiscoverer 创建链接发现爬虫
func NewDiscoverer(fetcher PageFetcher, matcher *Matcher, limiter *rate.Limiter, config models.CrawlConfig) *Discoverer {
	return &Discoverer{
		fetcher: fetcher,
		matcher: matcher,
		limiter: limiter,
		config:  config,
	}
}

// Discover 从种子URL开始广度优先发现链接
// 取消时返回已发现的部分结果和ctx错误
func (d *Discoverer) Discover(ctx context.Context, seeds []string) (*DiscoveryResult, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("种子URL列表为空")
	}

	// 目标域名取第一个种子的主机名
	targetDomain, err := hostOf(seeds[0])
	if err != nil {
		return nil, fmt.Errorf("解析种子URL失败: %w", err)
	}

	frontier := NewFrontier(targetDomain, d.config.AllowCrossDomain, d.config.Depth, d.config.MaxPages)
	result := &DiscoveryResult{}

	// 种子入队,种子本身也要通过模式过滤
	for _, seed := range seeds {
		normalized, err := models.NormalizeURL(seed)
		if err != nil {
			utils.Warnf("跳过无效种子URL: %s - %v", seed, err)
			continue
		}

		if !d.matcher.Matches(normalized) {
			utils.Warnf("种子URL未通过模式过滤,跳过: %s", seed)
			continue
		}

		if _, err := frontier.Push(seed, 0, ""); err != nil {
			utils.Warnf("种子URL入队失败 [%s]: %v", seed, err)
		}
	}

	if frontier.DiscoveredCount() == 0 {
		return nil, fmt.Errorf("没有种子URL通过验证和模式过滤")
	}

	utils.Infof("🔍 链接发现启动: 种子 %d 个, 最大深度 %d, 最大页面数 %d",
		frontier.DiscoveredCount(), d.config.Depth, d.config.MaxPages)

	for {
		if err := ctx.Err(); err != nil {
			result.Records = frontier.Ordered()
			return result, err
		}

		// 发现集已满,继续访问也无法新增链接
		if frontier.Full() {
			utils.Infof("已达到最大页面数限制 (%d),停止发现", d.config.MaxPages)
			break
		}

		rec, ok := frontier.Pop()
		if !ok {
			break
		}

		// 请求间隔
		if err := d.limiter.Wait(ctx); err != nil {
			result.Records = frontier.Ordered()
			return result, err
		}

		fetched, err := d.fetcher.Fetch(ctx, rec.URL)
		result.Visited++

		if err != nil {
			utils.Warnf("发现阶段访问失败 [%s]: %v", rec.URL, err)
			result.Failed = append(result.Failed, models.FailedURL{
				URL:       rec.Normalized,
				ErrorType: models.ClassifyFetchError(err, 0),
				ErrorMsg:  err.Error(),
			})
			continue
		}

		if fetched.StatusCode >= 400 {
			utils.Warnf("发现阶段访问失败 [%s]: HTTP %d", rec.URL, fetched.StatusCode)
			result.Failed = append(result.Failed, models.FailedURL{
				URL:       rec.Normalized,
				ErrorType: models.ClassifyFetchError(nil, fetched.StatusCode),
				ErrorMsg:  fmt.Sprintf("HTTP %d", fetched.StatusCode),
			})
			continue
		}

		d.harvestLinks(frontier, rec, fetched)

		if result.Visited%10 == 0 {
			utils.Infof("发现进度: 已访问 %d 页, 已发现 %d 个链接, 待访问 %d",
				result.Visited, frontier.DiscoveredCount(), frontier.PendingCount())
		}
	}

	result.Records = frontier.Ordered()

	utils.Infof("✅ 链接发现完成: 共发现 %d 个链接 (访问 %d 页, 失败 %d 页)",
		len(result.Records), result.Visited, len(result.Failed))

	return result, nil
}

// harvestLinks 从已拉取的页面中提取链接并尝试入队
func (d *Discoverer) harvestLinks(frontier *Frontier, rec models.URLRecord, fetched *FetchResult) {
	// 子链接深度超限时无需解析页面
	if rec.Depth+1 > d.config.Depth {
		return
	}

	// 相对链接按重定向后的最终URL解析
	base := fetched.FinalURL
	if base == "" {
		base = rec.URL
	}

	// 重定向落到了别的URL时,重新校验最终URL是否仍在目标范围内
	// 入队去重仍以原始请求URL为准,只有链接解析基于最终URL
	finalNorm, err := models.NormalizeURL(base)
	if err == nil && finalNorm != rec.Normalized {
		if !d.matcher.Matches(finalNorm) {
			utils.Debugf("重定向后URL未通过模式过滤,跳过链接提取: %s -> %s", rec.Normalized, finalNorm)
			return
		}
	}

	links, err := ExtractLinks(fetched.HTML, base)
	if err != nil {
		utils.Warnf("提取链接失败 [%s]: %v", rec.URL, err)
		return
	}

	added := 0
	for _, link := range links {
		normalized, err := models.NormalizeURL(link)
		if err != nil {
			continue
		}

		if frontier.Seen(normalized) {
			continue
		}

		if !d.matcher.Matches(normalized) {
			continue
		}

		if _, err := frontier.Push(link, rec.Depth+1, rec.Normalized); err != nil {
			utils.Debugf("链接未入队 [%s]: %v", link, err)
			continue
		}
		added++
	}

	if added > 0 {
		utils.Debugf("从页面提取了 %d 个新链接: %s", added, rec.URL)
	}
}

// hostOf 取URL的主机名(小写)
func hostOf(rawURL string) (string, error) {
	normalized, err := models.NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL缺少主机名: %s", rawURL)
	}

	return parsed.Host, nil
}
