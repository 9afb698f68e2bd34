// Package crawlers 提供文档站点的链接发现和页面拉取功能
//
// # 概述
//
// crawlers包实现了两阶段抓取的第一阶段(链接发现)和页面拉取基础设施。
// 链接发现从种子URL开始广度优先遍历,产出按发现顺序排列的URL清单;
// 页面拉取提供静态(Colly)和浏览器(go-rod)两种实现,供发现和抓取阶段共用。
//
// # 核心组件
//
// ## Discoverer (链接发现爬虫)
//
// 广度优先遍历文档站点,收集通过模式过滤的同域链接。
// 深度和页面数受配置约束,请求间隔由rate.Limiter控制。
//
//	discoverer := NewDiscoverer(fetcher, matcher, limiter, config)
//	result, err := discoverer.Discover(ctx, []string{"https://docs.example.com/api"})
//	for _, rec := range result.Records {
//	    fmt.Println(rec.Index, rec.Normalized, rec.Depth)
//	}
//
// ## Frontier (链接边界)
//
// 先进先出的待访问队列加规范化URL去重集合。
// 同一URL只入队一次,首次入队的深度和发现序号生效。
// 深度超限、跨域、超出页面数上限的链接在Push时被拒绝。
//
//	frontier := NewFrontier("docs.example.com", false, 3, 200)
//	rec, err := frontier.Push("https://docs.example.com/api", 0, "")
//	rec, ok := frontier.Pop()
//
// ## Matcher (模式过滤器)
//
// include/exclude正则过滤,exclude优先。模式在构造时编译,
// 非法正则是配置错误,启动即失败。
//
//	matcher, err := NewMatcher([]string{`/api/`}, []string{`\.pdf$`})
//	ok := matcher.Matches("https://docs.example.com/api/charges")
//
// ## StaticFetcher / BrowserFetcher (页面拉取器)
//
// 两种PageFetcher实现。StaticFetcher基于Colly发起单次HTTP请求,
// 适用于服务端渲染的站点;BrowserFetcher基于go-rod驱动真实浏览器,
// 等待JavaScript渲染完成后取DOM,适用于前端框架构建的站点。
// 两者都注入自定义HTTP头部、跳过TLS证书验证并保留重定向后的最终URL。
//
//	fetcher := NewStaticFetcher(config, headerProvider)
//	result, err := fetcher.Fetch(ctx, "https://docs.example.com/api")
//	fmt.Println(result.StatusCode, result.FinalURL, len(result.HTML))
//
// auto模式的降级判断由LooksLikeAppShell支持: 静态结果像前端应用空壳时,
// 调用方改用BrowserFetcher重新拉取。
//
// ## CheckResources (资源预检)
//
// 运行前检查系统内存和CPU。浏览器模式对内存敏感,
// 可用内存不足500MB时提前给出警告。
//
//	snapshot, err := CheckResources(models.ModeBrowser)
//
// # 错误处理
//
//   - 网络层失败(超时、连接拒绝): Fetch返回error,由调用方分类记录
//   - HTTP错误状态(4xx/5xx): Fetch返回结果,StatusCode交由调用方判定
//   - 浏览器崩溃: panic被捕获转换为ErrBrowserCrashed,自动重启最多3次
//   - 发现阶段单页失败: 记录后继续,不中断遍历
//
// # 并发模型
//
// 抓取全程单线程顺序执行,对目标站点保持温和的请求节奏。
// Frontier仍然持锁,Colly回调可能运行在collector自己的goroutine上。
package crawlers
