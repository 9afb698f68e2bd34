package crawlers

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
)

// Frontier 链接发现边界
// 职责: 管理待访问URL的先进先出队列和入队去重集合
// 同一规范化URL只会入队一次,首次入队的深度和序号生效
type Frontier struct {
	// 待处理URL队列(先进先出,保持发现顺序)
	pending []models.URLRecord

	// 全部已接受的记录,按发现顺序排列
	ordered []models.URLRecord

	// 已入队URL集合(键为规范化URL)
	enqueued map[string]bool

	// 保护队列和集合的互斥锁
	mu sync.Mutex

	// 目标域名(用于跨域过滤)
	targetDomain string

	// 是否允许跨域
	allowCrossDomain bool

	// 最大发现深度
	maxDepth int

	// 最多发现的页面数
	maxPages int
}

// NewFrontier 创建链接边界实例
func NewFrontier(targetDomain string, allowCrossDomain bool, maxDepth int, maxPages int) *Frontier {
	return &Frontier{
		pending:          make([]models.URLRecord, 0, 64),
		ordered:          make([]models.URLRecord, 0, 64),
		enqueued:         make(map[string]bool),
		targetDomain:     targetDomain,
		allowCrossDomain: allowCrossDomain,
		maxDepth:         maxDepth,
		maxPages:         maxPages,
	}
}

// Push 尝试把URL加入边界
// 依次检查URL有效性、深度限制、跨域过滤、去重和页面数上限
// 被拒绝时返回带原因的错误,接受时返回已分配序号的记录
func (f *Frontier) Push(rawURL string, depth int, sourceURL string) (models.URLRecord, error) {
	// 检查URL有效性并规范化
	normalized, err := models.NormalizeURL(rawURL)
	if err != nil {
		return models.URLRecord{}, err
	}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return models.URLRecord{}, fmt.Errorf("URL格式无效: %w", err)
	}

	// 检查协议
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return models.URLRecord{}, fmt.Errorf("不支持的协议: %s", parsed.Scheme)
	}

	// 检查深度限制
	if depth > f.maxDepth {
		return models.URLRecord{}, fmt.Errorf("深度超过限制: %d > %d", depth, f.maxDepth)
	}

	// 检查跨域
	if !f.allowCrossDomain && parsed.Host != f.targetDomain {
		return models.URLRecord{}, fmt.Errorf("跨域链接已过滤: %s (目标域名: %s)", parsed.Host, f.targetDomain)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// 检查是否已入队
	if f.enqueued[normalized] {
		return models.URLRecord{}, fmt.Errorf("URL已入队: %s", normalized)
	}

	// 检查页面数上限
	if len(f.ordered) >= f.maxPages {
		return models.URLRecord{}, fmt.Errorf("已达到最大页面数限制: %d", f.maxPages)
	}

	rec := models.URLRecord{
		URL:        rawURL,
		Normalized: normalized,
		Depth:      depth,
		Index:      len(f.ordered) + 1,
		SourceURL:  sourceURL,
	}

	f.enqueued[normalized] = true
	f.pending = append(f.pending, rec)
	f.ordered = append(f.ordered, rec)

	return rec, nil
}

// Pop 取出下一个待访问的URL记录
// 队列为空时第二个返回值为false
func (f *Frontier) Pop() (models.URLRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.pending) == 0 {
		return models.URLRecord{}, false
	}

	rec := f.pending[0]
	f.pending = f.pending[1:]
	return rec, true
}

// Seen 检查规范化URL是否已入队
func (f *Frontier) Seen(normalized string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enqueued[normalized]
}

// PendingCount 返回当前待访问URL数量
func (f *Frontier) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// DiscoveredCount 返回已接受的URL总数(含已弹出的)
func (f *Frontier) DiscoveredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ordered)
}

// Full 检查是否已达页面数上限
func (f *Frontier) Full() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ordered) >= f.maxPages
}

// Ordered 返回按发现顺序排列的全部记录副本
func (f *Frontier) Ordered() []models.URLRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.URLRecord, len(f.ordered))
	copy(out, f.ordered)
	return out
}

// Reset 清空队列和去重集合,为下一次发现准备全新状态
func (f *Frontier) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = f.pending[:0]
	f.ordered = f.ordered[:0]
	f.enqueued = make(map[string]bool)
}
