package crawlers

import (
	"fmt"
	"regexp"
)

// Matcher URL模式过滤器
// include为空时视为全部放行,exclude的优先级高于include
type Matcher struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewMatcher 编译include/exclude模式并创建过滤器
// 模式为非锚定的正则表达式,区分大小写,对完整规范化URL求值
func NewMatcher(includePatterns, excludePatterns []string) (*Matcher, error) {
	include, err := compilePatterns(includePatterns)
	if err != nil {
		return nil, fmt.Errorf("include模式无效: %w", err)
	}

	exclude, err := compilePatterns(excludePatterns)
	if err != nil {
		return nil, fmt.Errorf("exclude模式无效: %w", err)
	}

	return &Matcher{include: include, exclude: exclude}, nil
}

// compilePatterns 逐个编译正则,出错时报告具体模式
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("正则表达式 %q 编译失败: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Matches 判断URL是否通过过滤
// 先查exclude,命中任一即拒绝;再查include,列表为空或命中任一即通过
func (m *Matcher) Matches(url string) bool {
	for _, re := range m.exclude {
		if re.MatchString(url) {
			return false
		}
	}

	if len(m.include) == 0 {
		return true
	}

	for _, re := range m.include {
		if re.MatchString(url) {
			return true
		}
	}

	return false
}
