package invert

import (
	"fmt"

	"github.com/John-Robertt/wastemap/internal/domain"
)

// Invert 把 国家 -> code 反转为 code -> 国家。
//
// 多个国家共用同一个 code 时，按输入顺序后写覆盖；这不是错误，
// 被覆盖的组合以信息类诊断返回，输出不受影响。
func Invert(in *domain.CodeTable) (*domain.CountryTable, []domain.Diagnostic) {
	out := domain.NewCountryTable()
	var diags []domain.Diagnostic

	for p := in.Oldest(); p != nil; p = p.Next() {
		country, code := p.Key, p.Value
		if prev, ok := out.Set(code, country); ok {
			diags = append(diags, domain.Diagnostic{
				Stage:   domain.StageInvert,
				Country: country,
				Reason:  domain.ReasonCodeOverwritten,
				Msg:     fmt.Sprintf("code %q 原本对应 %q，被 %q 覆盖", code, prev, country),
			})
		}
	}
	return out, diags
}
