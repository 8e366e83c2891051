package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	FormatText = "text"
	FormatHTML = "html"
)

// Registry 是 Source 的只读注册表（按 name 索引）。
type Registry struct {
	byName map[string]Source
}

func NewRegistry(sources ...Source) (Registry, error) {
	byName := make(map[string]Source, len(sources))
	for _, s := range sources {
		if s == nil {
			return Registry{}, fmt.Errorf("source 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(s.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("source.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 source：%q", name)
		}
		byName[name] = s
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Source, bool) {
	if r.byName == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	s, ok := r.byName[name]
	return s, ok
}

// Resolve 选择报告的 Source：显式 format 优先，否则按扩展名推断（.html/.htm => html，其余 => text）。
func (r Registry) Resolve(format, path string) (Source, error) {
	name := strings.ToLower(strings.TrimSpace(format))
	if name == "" {
		name = FormatFor(path)
	}
	s, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("未注册的报告格式：%q", name)
	}
	return s, nil
}

// FormatFor 按扩展名推断报告格式。
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatText
	}
}
