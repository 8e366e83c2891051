package html

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/wastemap/internal/infra/textx"
	"github.com/John-Robertt/wastemap/internal/source"
)

// Source 读取报告的 HTML 导出版本。
//
// 规则：
// - 存在 <pre> 时，只取所有 <pre> 的文本（按文档顺序，以换行连接）
// - 否则取 <body> 的文本内容
// 取到的文本按与纯文本报告相同的规则切分，保证行偏移含义不变。
type Source struct{}

func (Source) Name() string { return source.FormatHTML }

func (Source) Lines(b []byte, encoding string) ([]string, error) {
	if len(b) == 0 {
		return nil, errors.New("html 为空")
	}
	s, err := textx.Decode(b, encoding)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return nil, err
	}

	pres := doc.Find("pre")
	if pres.Length() > 0 {
		blocks := make([]string, 0, pres.Length())
		pres.Each(func(_ int, sel *goquery.Selection) {
			// <pre> 紧跟的第一个换行在 HTML 解析时已被丢弃；这里去掉块尾换行，避免块间多出空行。
			blocks = append(blocks, strings.TrimRight(sel.Text(), "\r\n"))
		})
		return textx.SplitLines(strings.Join(blocks, "\n")), nil
	}

	return textx.SplitLines(doc.Find("body").Text()), nil
}
