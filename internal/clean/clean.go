// Package clean 把 Extractor 产出的文本字段转换为数值，并丢弃无法转换的记录。
package clean

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/John-Robertt/wastemap/internal/domain"
)

// Input 是 Cleaner 的输入：国家 -> 原始 JSON 记录。
// 记录保持未解码形态，字段缺失/类型错误属于单记录问题，不能让整个文件解码失败。
type Input = orderedmap.OrderedMap[string, json.RawMessage]

const (
	FieldWaste     = "waste"
	FieldMWI       = "mwi"
	FieldArchetype = "archetype"
)

// FieldError 描述单条记录的转换失败。Reason 取值见 domain.Reason*。
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Field, e.Reason, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Clean 逐条转换 in 中的记录。
//
// 约束：
// - 输出的键是输入键的子集，顺序与输入一致
// - 单条失败只产生一条诊断，不影响其他记录
func Clean(in *Input) (*domain.CleanTable, []domain.Diagnostic) {
	out := domain.NewCleanTable()
	var diags []domain.Diagnostic

	for p := in.Oldest(); p != nil; p = p.Next() {
		rec, err := Record(p.Value)
		if err != nil {
			reason := domain.ReasonConversion
			var fe *FieldError
			if errors.As(err, &fe) {
				reason = fe.Reason
			}
			diags = append(diags, domain.Diagnostic{
				Stage:   domain.StageClean,
				Country: p.Key,
				Reason:  reason,
				Msg:     fmt.Sprintf("因转换错误跳过：%v", err),
			})
			continue
		}
		out.Set(p.Key, rec)
	}
	return out, diags
}

// Record 转换单条原始记录；任何字段失败都返回 *FieldError。
func Record(raw json.RawMessage) (domain.CleanRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return domain.CleanRecord{}, &FieldError{Reason: domain.ReasonWrongType, Err: fmt.Errorf("记录不是 JSON 对象：%s", abbrev(raw))}
	}

	wasteText, err := stringField(fields, FieldWaste)
	if err != nil {
		return domain.CleanRecord{}, err
	}
	waste, err := ParseWaste(wasteText)
	if err != nil {
		return domain.CleanRecord{}, &FieldError{Field: FieldWaste, Reason: domain.ReasonConversion, Err: err}
	}

	mwiText, err := stringField(fields, FieldMWI)
	if err != nil {
		return domain.CleanRecord{}, err
	}
	mwi, err := ParseMWI(mwiText)
	if err != nil {
		return domain.CleanRecord{}, &FieldError{Field: FieldMWI, Reason: domain.ReasonConversion, Err: err}
	}

	archetype, err := stringField(fields, FieldArchetype)
	if err != nil {
		return domain.CleanRecord{}, err
	}

	return domain.CleanRecord{Waste: waste, MWI: mwi, Archetype: archetype}, nil
}

// ParseWaste 删除所有非 ASCII 数字字符后按十进制解析。
//
// 注意：负号也会被删除，"-12" 得到 12（按字符删除，而不是取负）。
func ParseWaste(s string) (int64, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, fmt.Errorf("没有可用的数字：%q", s)
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("无法解析 %q：%w", digits, err)
	}
	return v, nil
}

// ParseMWI 去掉原始文本首尾各至多一个 '%'，再去掉空白后按浮点解析；结果必须是有限值。
//
// '%' 只认最外侧字符：" 45.2% " 的 '%' 不在两端，解析失败。
func ParseMWI(s string) (float64, error) {
	t := strings.TrimPrefix(s, "%")
	t = strings.TrimSuffix(t, "%")
	t = strings.TrimSpace(t)
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("无法解析 %q：%w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("不是有限数值：%q", s)
	}
	return v, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", &FieldError{Field: name, Reason: domain.ReasonMissingField, Err: fmt.Errorf("缺少字段")}
	}
	// null 能被解码进 string（得到 ""），这里必须单独拦下。
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", &FieldError{Field: name, Reason: domain.ReasonWrongType, Err: fmt.Errorf("期望字符串，实际是 null")}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &FieldError{Field: name, Reason: domain.ReasonWrongType, Err: fmt.Errorf("期望字符串，实际是 %s", abbrev(raw))}
	}
	return s, nil
}

func abbrev(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
