// Package extract 从定位式文本报告中按固定行偏移摘取每个国家的原始字段。
package extract

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/wastemap/internal/domain"
)

// Anchor 是每个国家区块中的锚点短语（按子串匹配）。
const Anchor = "The expected mismanaged waste in 2024"

// 相对锚点行的固定偏移。这些数值是与报告版式之间的外部契约，
// 报告版式变化时必须整体重新核对，不能单独微调。
const (
	CountryOffset   = -22
	MWIOffset       = -13
	ArchetypeOffset = -1
	WasteOffset     = +2
)

// Extract 扫描 lines，为每个锚点按固定偏移构造 RawRecord。
//
// 规则：
// - 国家行越过文件开头（i+CountryOffset < 0）：静默跳过该锚点
// - 同名国家先到先得：之后的锚点被静默忽略（即使该区块已被截断）
// - waste 行越过文件结尾：跳过该锚点，并记一条诊断
// - 所有字段只做 TrimSpace，不校验数字格式
func Extract(lines []string) (*domain.RawTable, []domain.Diagnostic) {
	out := domain.NewRawTable()
	var diags []domain.Diagnostic

	for i, line := range lines {
		if !strings.Contains(line, Anchor) {
			continue
		}

		ci := i + CountryOffset
		if ci < 0 {
			continue
		}
		country := strings.TrimSpace(lines[ci])

		if _, ok := out.Get(country); ok {
			continue
		}

		wi := i + WasteOffset
		if wi >= len(lines) {
			diags = append(diags, domain.Diagnostic{
				Stage:   domain.StageExtract,
				Country: country,
				Reason:  domain.ReasonTruncated,
				Msg:     fmt.Sprintf("锚点位于第 %d 行，但报告在 waste 行（第 %d 行）之前结束", i+1, wi+1),
			})
			continue
		}
		out.Set(country, domain.RawRecord{
			Waste:     strings.TrimSpace(lines[wi]),
			MWI:       strings.TrimSpace(lines[i+MWIOffset]),
			Archetype: strings.TrimSpace(lines[i+ArchetypeOffset]),
		})
	}
	return out, diags
}
