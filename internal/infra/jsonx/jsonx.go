// Package jsonx 提供保持键顺序的 JSON 对象读写。
//
// 所有阶段的输入/输出都是“键 -> 值”的 JSON 对象，
// 而“输入迭代顺序”是各阶段语义的一部分（先到先得/后写覆盖），
// 因此不能经过 Go 的无序 map。
package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Indent 是所有 JSON 产物的缩进（4 个空格，便于人工阅读与 diff）。
const Indent = "    "

// NotObjectError 表示顶层 JSON 值不是对象。
type NotObjectError struct {
	Got string
}

func (e *NotObjectError) Error() string {
	return fmt.Sprintf("顶层 JSON 必须是对象，实际是 %s", e.Got)
}

// NullValueError 表示对象中某个键的值是 null，而目标类型无法区分 null 与零值。
type NullValueError struct {
	Key string
}

func (e *NullValueError) Error() string {
	return fmt.Sprintf("键 %q 的值为 null", e.Key)
}

// DecodeObject 把顶层 JSON 对象按键出现顺序解码为有序表。
//
// 约束：
// - 重复键：保留首次出现的位置，值取最后一次出现的值
// - 值为 null => *NullValueError（V 为 json.RawMessage 时原样保留 "null"，由调用方判断）
func DecodeObject[V any](b []byte) (*orderedmap.OrderedMap[string, V], error) {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("JSON 内容为空")
		}
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, &NotObjectError{Got: describe(tok)}
	}

	om := orderedmap.New[string, V]()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("期望对象键，实际是 %s", describe(tok))
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("键 %q 的值无效：%w", key, err)
		}
		v, err := decodeValue[V](key, raw)
		if err != nil {
			return nil, err
		}
		om.Set(key, v)
	}
	// 消费结尾的 '}'。
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("顶层对象之后存在多余内容")
	}
	return om, nil
}

// Encode 以固定缩进序列化 v，并以换行结尾；不做 HTML 转义（& < > 原样输出）。
//
// 有序表必须走 EncodeObject：其自带的 MarshalJSON 总会做 HTML 转义。
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeObject 按插入顺序把有序表序列化为 JSON 对象，格式与 Encode 相同。
func EncodeObject[V any](om *orderedmap.OrderedMap[string, V]) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for p := om.Oldest(); p != nil; p = p.Next() {
		if p != om.Oldest() {
			compact.WriteByte(',')
		}
		k, err := marshal(p.Key)
		if err != nil {
			return nil, err
		}
		v, err := marshal(p.Value)
		if err != nil {
			return nil, fmt.Errorf("键 %q 的值无法编码：%w", p.Key, err)
		}
		compact.Write(k)
		compact.WriteByte(':')
		compact.Write(v)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", Indent); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// marshal 是不做 HTML 转义的紧凑编码（去掉 Encoder 追加的换行）。
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func decodeValue[V any](key string, raw json.RawMessage) (V, error) {
	var v V
	if _, keepRaw := any(v).(json.RawMessage); keepRaw {
		return any(raw).(V), nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return v, &NullValueError{Key: key}
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("键 %q 的值无效：%w", key, err)
	}
	return v, nil
}

func describe(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		if v == '[' {
			return "数组"
		}
		return fmt.Sprintf("%q", string(v))
	case string:
		return "字符串"
	case float64, json.Number:
		return "数字"
	case bool:
		return "布尔值"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", tok)
	}
}
