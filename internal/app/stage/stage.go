// Package stage 把各阶段的纯函数包装为“读取 -> 转换 -> 原子写出”的一次性流程。
//
// 约束：
// - 必需输入不存在 => 返回包裹 fsx.MissingInputError 的 *Error，不写任何文件
// - 单记录问题只进入 StageReport.Diagnostics，不会中止阶段
// - 只有在转换与编码全部成功后才写出（dry-run 时不写）
package stage

import (
	"encoding/json"
	"fmt"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/John-Robertt/wastemap/internal/clean"
	"github.com/John-Robertt/wastemap/internal/config"
	"github.com/John-Robertt/wastemap/internal/domain"
	"github.com/John-Robertt/wastemap/internal/extract"
	"github.com/John-Robertt/wastemap/internal/infra/fsx"
	"github.com/John-Robertt/wastemap/internal/infra/jsonx"
	"github.com/John-Robertt/wastemap/internal/invert"
	"github.com/John-Robertt/wastemap/internal/shade"
	"github.com/John-Robertt/wastemap/internal/source"
)

// Names 是 all 命令的执行顺序。
var Names = []string{domain.StageExtract, domain.StageClean, domain.StageInvert, domain.StageShade}

// Error 是阶段级（致命）错误。
type Error struct {
	Stage string
	Op    string // "read" / "decode" / "encode" / "write"
	Path  string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("stage=%s op=%s path=%s: %v", e.Stage, e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Runner 持有执行阶段所需的全部依赖；零值 Log 会被替换为 Nop。
type Runner struct {
	Eff     config.EffectiveConfig
	Sources source.Registry
	Log     *zap.Logger
}

// Run 按名称执行单个阶段。
func (r Runner) Run(name string) (domain.StageReport, error) {
	switch name {
	case domain.StageExtract:
		return r.Extract()
	case domain.StageClean:
		return r.Clean()
	case domain.StageInvert:
		return r.Invert()
	case domain.StageShade:
		return r.Shade()
	default:
		return domain.StageReport{}, fmt.Errorf("未知阶段：%q", name)
	}
}

// Extract: report -> waste_data.json
func (r Runner) Extract() (domain.StageReport, error) {
	rep := r.begin(domain.StageExtract, r.Eff.WasteData, r.Eff.Report)

	src, err := r.Sources.Resolve(r.Eff.ReportFormat, r.Eff.Report)
	if err != nil {
		return rep, &Error{Stage: rep.Stage, Op: "read", Path: r.Eff.Report, Err: err}
	}
	b, err := fsx.ReadInput(r.Eff.Report)
	if err != nil {
		return rep, &Error{Stage: rep.Stage, Op: "read", Path: r.Eff.Report, Err: err}
	}
	lines, err := src.Lines(b, r.Eff.Encoding)
	if err != nil {
		return rep, &Error{Stage: rep.Stage, Op: "decode", Path: r.Eff.Report, Err: err}
	}
	r.logger().Debug("报告已读取", zap.String("source", src.Name()), zap.Int("lines", len(lines)))

	out, diags := extract.Extract(lines)
	rep.Summary.Read = len(lines)
	rep.Summary.Written = out.Len()
	return r.finish(rep, diags, func() ([]byte, error) { return jsonx.EncodeObject(out) })
}

// Clean: waste_data.json -> cleaned_data.json
func (r Runner) Clean() (domain.StageReport, error) {
	rep := r.begin(domain.StageClean, r.Eff.CleanedData, r.Eff.WasteData)

	in, err := readObject[json.RawMessage](rep.Stage, r.Eff.WasteData)
	if err != nil {
		return rep, err
	}

	out, diags := clean.Clean(in)
	rep.Summary.Read = in.Len()
	rep.Summary.Written = out.Len()
	return r.finish(rep, diags, func() ([]byte, error) { return jsonx.EncodeObject(out) })
}

// Invert: countryToCode.json -> codeToCountry.json
func (r Runner) Invert() (domain.StageReport, error) {
	rep := r.begin(domain.StageInvert, r.Eff.CodeToCountry, r.Eff.CountryToCode)

	in, err := readObject[string](rep.Stage, r.Eff.CountryToCode)
	if err != nil {
		return rep, err
	}

	out, diags := invert.Invert(in)
	rep.Summary.Read = in.Len()
	rep.Summary.Written = out.Len()
	return r.finish(rep, diags, func() ([]byte, error) { return jsonx.EncodeObject(out) })
}

// Shade: cleaned_data.json + countryToCode.json -> map_data.json
func (r Runner) Shade() (domain.StageReport, error) {
	rep := r.begin(domain.StageShade, r.Eff.MapData, r.Eff.CleanedData, r.Eff.CountryToCode)

	cleaned, err := readObject[domain.CleanRecord](rep.Stage, r.Eff.CleanedData)
	if err != nil {
		return rep, err
	}
	codes, err := readObject[string](rep.Stage, r.Eff.CountryToCode)
	if err != nil {
		return rep, err
	}

	fills, diags := shade.Shade(cleaned, codes, r.Eff.Gradient)
	rep.Summary.Read = cleaned.Len()
	rep.Summary.Written = len(fills)
	return r.finish(rep, diags, func() ([]byte, error) { return jsonx.Encode(fills) })
}

func (r Runner) begin(name, output string, inputs ...string) domain.StageReport {
	return domain.StageReport{
		Stage:     name,
		Inputs:    inputs,
		Output:    output,
		DryRun:    r.Eff.DryRun,
		StartedAt: time.Now().UTC(),
	}
}

// finish 记录诊断、编码并（非 dry-run 时）原子写出。
func (r Runner) finish(rep domain.StageReport, diags []domain.Diagnostic, encode func() ([]byte, error)) (domain.StageReport, error) {
	log := r.logger().With(zap.String("stage", rep.Stage))

	for _, d := range diags {
		fields := []zap.Field{zap.String("country", d.Country), zap.String("reason", d.Reason), zap.String("msg", d.Msg)}
		if d.Reason == domain.ReasonCodeOverwritten {
			log.Debug("code 被覆盖", fields...)
			continue
		}
		rep.Summary.Skipped++
		log.Warn("记录被跳过", fields...)
	}
	rep.Diagnostics = diags

	b, err := encode()
	if err != nil {
		return rep, &Error{Stage: rep.Stage, Op: "encode", Path: rep.Output, Err: err}
	}

	if !rep.DryRun {
		if err := fsx.WriteFileAtomic(rep.Output, b); err != nil {
			return rep, &Error{Stage: rep.Stage, Op: "write", Path: rep.Output, Err: err}
		}
	}

	rep.FinishedAt = time.Now().UTC()
	rep.Finalize()
	log.Info("阶段完成",
		zap.String("output", rep.Output),
		zap.Bool("dry_run", rep.DryRun),
		zap.Int("read", rep.Summary.Read),
		zap.Int("written", rep.Summary.Written),
		zap.Int("skipped", rep.Summary.Skipped),
	)
	return rep, nil
}

func (r Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func readObject[V any](stageName, path string) (*orderedmap.OrderedMap[string, V], error) {
	b, err := fsx.ReadInput(path)
	if err != nil {
		return nil, &Error{Stage: stageName, Op: "read", Path: path, Err: err}
	}
	om, err := jsonx.DecodeObject[V](b)
	if err != nil {
		return nil, &Error{Stage: stageName, Op: "decode", Path: path, Err: err}
	}
	return om, nil
}
