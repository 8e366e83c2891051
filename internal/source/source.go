// Package source 把不同格式的报告统一转换为文本行。
//
// 行偏移是与报告版式之间的外部契约，因此所有 Source 都必须
// 按同一套换行规则切分（见 textx.SplitLines），不做任何合并/去空行。
package source

// Source 把报告原始字节转换为行序列。
//
// 约束：
// - Lines 必须是纯函数：相同输入 => 相同输出
// - 行内容保持原样（不 trim），trim 由 Extractor 按字段完成
type Source interface {
	Name() string
	Lines(b []byte, encoding string) ([]string, error)
}
