package domain

const (
	StageExtract = "extract"
	StageClean   = "clean"
	StageInvert  = "invert"
	StageShade   = "shade"
)

const (
	ReasonConversion      = "conversion_failed"
	ReasonMissingField    = "missing_field"
	ReasonWrongType       = "wrong_type"
	ReasonTruncated       = "truncated_block"
	ReasonCodeOverwritten = "code_overwritten"
	ReasonCountryNotFound = "country_not_found"
)

// Diagnostic 描述一条可恢复的单记录问题。
// 核心函数只收集、不打印；由上层决定输出方式。
type Diagnostic struct {
	Stage   string `json:"stage"`
	Country string `json:"country"`
	Reason  string `json:"reason"`
	Msg     string `json:"msg"`
}
