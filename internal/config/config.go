package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/wastemap/internal/infra/textx"
	"github.com/John-Robertt/wastemap/internal/shade"
	"github.com/John-Robertt/wastemap/internal/source"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// 配置文件名：同一目录下优先 JSON，其次 YAML。
const (
	FileNameJSON = "wastemap.json"
	FileNameYAML = "wastemap.yaml"
)

// 各阶段文件的内置默认名（相对 Dir）。
const (
	DefaultReport        = "report.txt"
	DefaultWasteData     = "waste_data.json"
	DefaultCleanedData   = "cleaned_data.json"
	DefaultCountryToCode = "countryToCode.json"
	DefaultCodeToCountry = "codeToCountry.json"
	DefaultMapData       = "map_data.json"
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证 --dry-run=false 可以覆盖配置文件中的 dry_run: true。
type CLIArgs struct {
	Dir string

	DryRun    bool
	DryRunSet bool
}

// FileConfig 对应 wastemap.json / wastemap.yaml 的解析结构。
type FileConfig struct {
	Report        string       `json:"report" yaml:"report"`
	ReportFormat  string       `json:"report_format" yaml:"report_format"`
	Encoding      string       `json:"encoding" yaml:"encoding"`
	WasteData     string       `json:"waste_data" yaml:"waste_data"`
	CleanedData   string       `json:"cleaned_data" yaml:"cleaned_data"`
	CountryToCode string       `json:"country_to_code" yaml:"country_to_code"`
	CodeToCountry string       `json:"code_to_country" yaml:"code_to_country"`
	MapData       string       `json:"map_data" yaml:"map_data"`
	DryRun        *bool        `json:"dry_run" yaml:"dry_run"`
	Shade         *ShadeConfig `json:"shade" yaml:"shade"`
}

type ShadeConfig struct {
	StartColor string `json:"start_color" yaml:"start_color"`
	EndColor   string `json:"end_color" yaml:"end_color"`
}

// EffectiveConfig 是合并并规范化后的最终配置：所有路径均为 clean + absolute，
// 实现层直接消费，不再做二次默认/优先级判断。
type EffectiveConfig struct {
	Dir string

	// ConfigFile 是实际读取的配置文件；没有配置文件时为空。
	ConfigFile string

	Report       string
	ReportFormat string
	Encoding     string

	WasteData     string
	CleanedData   string
	CountryToCode string
	CodeToCountry string
	MapData       string

	DryRun bool

	Gradient shade.Gradient
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 在工作目录下发现可选的配置文件，然后与 CLI 参数合并为最终配置。
//
// 工作目录：CLI --dir > cwd。
// 覆盖优先级（固定）：
// - dry_run：CLI --dry-run/--dry-run=false > config > 默认 false
// - 其他字段：config > 内置默认（CLI 不暴露）
// 没有配置文件时，行为与直接在 cwd 下运行各脚本完全一致。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	dir := cwdAbs
	if strings.TrimSpace(cli.Dir) != "" {
		dir = absCleanFrom(cwdAbs, cli.Dir)
	}

	fc, cfgPath, err := discover(dir)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return merge(dir, cli, fc, cfgPath)
}

func merge(dir string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	format := strings.ToLower(strings.TrimSpace(fc.ReportFormat))
	switch format {
	case "", source.FormatText, source.FormatHTML:
	default:
		return invalid(fmt.Errorf("report_format 只能是 text 或 html，实际是 %q", fc.ReportFormat))
	}

	encoding := strings.TrimSpace(fc.Encoding)
	if encoding == "" {
		encoding = textx.DefaultEncoding
	}
	if _, err := textx.Lookup(encoding); err != nil {
		return invalid(err)
	}

	dryRun := false
	if cli.DryRunSet {
		dryRun = cli.DryRun
	} else if fc.DryRun != nil {
		dryRun = *fc.DryRun
	}

	startColor, endColor := shade.DefaultStartColor, shade.DefaultEndColor
	if fc.Shade != nil {
		if s := strings.TrimSpace(fc.Shade.StartColor); s != "" {
			startColor = s
		}
		if s := strings.TrimSpace(fc.Shade.EndColor); s != "" {
			endColor = s
		}
	}
	start, err := shade.ParseColor(startColor)
	if err != nil {
		return invalid(fmt.Errorf("shade.start_color 无效：%w", err))
	}
	end, err := shade.ParseColor(endColor)
	if err != nil {
		return invalid(fmt.Errorf("shade.end_color 无效：%w", err))
	}

	file := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			v = def
		}
		return absCleanFrom(dir, v)
	}

	return EffectiveConfig{
		Dir:           dir,
		ConfigFile:    cfgPath,
		Report:        file(fc.Report, DefaultReport),
		ReportFormat:  format,
		Encoding:      encoding,
		WasteData:     file(fc.WasteData, DefaultWasteData),
		CleanedData:   file(fc.CleanedData, DefaultCleanedData),
		CountryToCode: file(fc.CountryToCode, DefaultCountryToCode),
		CodeToCountry: file(fc.CodeToCountry, DefaultCodeToCountry),
		MapData:       file(fc.MapData, DefaultMapData),
		DryRun:        dryRun,
		Gradient:      shade.Gradient{Start: start, End: end},
	}, nil
}

// discover 依次尝试 wastemap.json、wastemap.yaml；都不存在时返回零值配置与空路径。
func discover(dir string) (FileConfig, string, error) {
	for _, name := range []string{FileNameJSON, FileNameYAML} {
		path := filepath.Join(dir, name)
		fc, exists, err := readFileConfig(path)
		if err != nil {
			return FileConfig{}, path, err
		}
		if exists {
			return fc, path, nil
		}
	}
	return FileConfig{}, "", nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并按扩展名解析配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = json.Unmarshal(b, &fc)
	}
	if err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
