package report

import (
	"strings"

	"alphabot/internal/config"
)

// Definition 一种可路由的报表
type Definition struct {
	Name           string
	Endpoint       string
	RequiredFields []string
	Aliases        []string
	MinLevel       int
}

// Registry 报表注册表, 负责按名称或别名解析报表类型
type Registry struct {
	defs []Definition
}

func NewRegistry(entries []config.ReportEntry) *Registry {
	defs := make([]Definition, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" || e.Endpoint == "" {
			continue
		}
		defs = append(defs, Definition{
			Name:           e.Name,
			Endpoint:       e.Endpoint,
			RequiredFields: e.RequiredFields,
			Aliases:        e.Aliases,
			MinLevel:       e.MinLevel,
		})
	}
	return &Registry{defs: defs}
}

// Get 按报表名精确查找
func (r *Registry) Get(name string) (Definition, bool) {
	for _, d := range r.defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Match 在用户文本中查找报表名或别名.
// 多个报表同时命中时取注册顺序靠前的一个.
func (r *Registry) Match(text string) (Definition, bool) {
	lower := strings.ToLower(text)
	for _, d := range r.defs {
		if containsTerm(lower, strings.ReplaceAll(d.Name, "_", " ")) ||
			containsTerm(lower, d.Name) {
			return d, true
		}
		for _, alias := range d.Aliases {
			if containsTerm(lower, alias) {
				return d, true
			}
		}
	}
	return Definition{}, false
}

// All 返回全部注册报表
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

func containsTerm(lowerText, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	return strings.Contains(lowerText, term)
}
