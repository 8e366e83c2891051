// Package shade 按各国 waste 占最大值的比例为地图计算填充色。
package shade

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/John-Robertt/wastemap/internal/domain"
)

const (
	DefaultStartColor = "#FFFFFF"
	DefaultEndColor   = "#8B0000"
)

var colorRE = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// RGB 是 8 位通道颜色。
type RGB struct {
	R, G, B uint8
}

// ParseColor 解析 "#RRGGBB"。
func ParseColor(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if !colorRE.MatchString(s) {
		return RGB{}, fmt.Errorf("颜色必须形如 #RRGGBB，实际 %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return RGB{}, err
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Gradient 在 Start 与 End 之间按百分比线性插值。
type Gradient struct {
	Start RGB
	End   RGB
}

// At 返回 pct（会被截断到 [0,100]）处的颜色；各通道向下取整。
func (g Gradient) At(pct float64) RGB {
	pct = math.Max(0, math.Min(100, pct))
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Floor(float64(a) + (float64(b)-float64(a))*(pct/100)))
	}
	return RGB{
		R: lerp(g.Start.R, g.End.R),
		G: lerp(g.Start.G, g.End.G),
		B: lerp(g.Start.B, g.End.B),
	}
}

// Shade 为 clean 中每个能找到 code 的国家生成 MapFill（按 clean 的顺序）。
//
// 找不到 code 的国家记一条诊断并跳过；所有 waste 都为 0 时比例记为 0。
func Shade(clean *domain.CleanTable, codes *domain.CodeTable, g Gradient) ([]domain.MapFill, []domain.Diagnostic) {
	var maxWaste int64
	for p := clean.Oldest(); p != nil; p = p.Next() {
		if p.Value.Waste > maxWaste {
			maxWaste = p.Value.Waste
		}
	}

	fills := make([]domain.MapFill, 0, clean.Len())
	var diags []domain.Diagnostic
	for p := clean.Oldest(); p != nil; p = p.Next() {
		code, ok := codes.Get(p.Key)
		if !ok || code == "" {
			diags = append(diags, domain.Diagnostic{
				Stage:   domain.StageShade,
				Country: p.Key,
				Reason:  domain.ReasonCountryNotFound,
				Msg:     "国家映射中没有该国家的 code",
			})
			continue
		}

		var pct float64
		if maxWaste > 0 {
			pct = float64(p.Value.Waste) / float64(maxWaste) * 100
		}
		fills = append(fills, domain.MapFill{
			ID:              code,
			Country:         p.Key,
			WastePercentage: pct,
			Fill:            g.At(pct).Hex(),
		})
	}
	return fills, diags
}
