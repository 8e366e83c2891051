// Package textx 负责把报告字节解码为文本行。
package textx

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding 是报告的默认字符编码。
const DefaultEncoding = "utf-8"

// Lookup 按 WHATWG 标签（例如 "utf-8"、"windows-1252"、"latin1"）查找编码。
// UTF-8 使用会剥离 BOM 的解码器，避免 BOM 粘在第一行上。
func Lookup(name string) (encoding.Encoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultEncoding
	}
	switch name {
	case "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("不支持的编码 %q：%w", name, err)
	}
	return enc, nil
}

// Decode 把 b 按 name 指定的编码转换为 UTF-8 字符串。
func Decode(b []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("按 %q 解码失败：%w", name, err)
	}
	return string(out), nil
}

// SplitLines 按通用换行规则（\n、\r\n、\r）切分文本，返回不含换行符的行。
//
// 与逐行读取文件的语义一致：结尾的换行不会产生额外的空行，空文本得到 0 行。
func SplitLines(s string) []string {
	lines := make([]string, 0, strings.Count(s, "\n")+1)
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			lines = append(lines, s[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, s[start:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
