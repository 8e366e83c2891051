package text

import (
	"github.com/John-Robertt/wastemap/internal/infra/textx"
	"github.com/John-Robertt/wastemap/internal/source"
)

// Source 读取纯文本报告：按配置的编码解码后按通用换行规则切分。
type Source struct{}

func (Source) Name() string { return source.FormatText }

func (Source) Lines(b []byte, encoding string) ([]string, error) {
	s, err := textx.Decode(b, encoding)
	if err != nil {
		return nil, err
	}
	return textx.SplitLines(s), nil
}
