package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/wastemap/internal/shade"
)

func TestLoadEffective_NoConfigUsesDefaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigFile != "" {
		t.Fatalf("不期望读取配置文件：%q", eff.ConfigFile)
	}
	checks := map[string]string{
		eff.Report:        filepath.Join(cwd, DefaultReport),
		eff.WasteData:     filepath.Join(cwd, DefaultWasteData),
		eff.CleanedData:   filepath.Join(cwd, DefaultCleanedData),
		eff.CountryToCode: filepath.Join(cwd, DefaultCountryToCode),
		eff.CodeToCountry: filepath.Join(cwd, DefaultCodeToCountry),
		eff.MapData:       filepath.Join(cwd, DefaultMapData),
	}
	for got, want := range checks {
		if got != want {
			t.Fatalf("期望路径 %q，实际 %q", want, got)
		}
	}
	if eff.DryRun {
		t.Fatalf("默认不应 dry-run")
	}
	if eff.Encoding != "utf-8" || eff.ReportFormat != "" {
		t.Fatalf("编码/格式默认值不正确：%q %q", eff.Encoding, eff.ReportFormat)
	}
	if eff.Gradient.End.Hex() != shade.DefaultEndColor {
		t.Fatalf("默认 end_color 不正确：%s", eff.Gradient.End.Hex())
	}
}

func TestLoadEffective_CLIDirRelative(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{Dir: "data"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := filepath.Join(cwd, "data"); eff.Dir != want {
		t.Fatalf("期望 dir=%q，实际=%q", want, eff.Dir)
	}
	if want := filepath.Join(cwd, "data", DefaultReport); eff.Report != want {
		t.Fatalf("期望 report=%q，实际=%q", want, eff.Report)
	}
}

func TestLoadEffective_JSONFileAndDryRunOverride(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileNameJSON), []byte(`{"report":"in/report.html","waste_data":"/abs/w.json","dry_run":true}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigFile != filepath.Join(cwd, FileNameJSON) {
		t.Fatalf("配置文件路径不正确：%q", eff.ConfigFile)
	}
	if want := filepath.Join(cwd, "in", "report.html"); eff.Report != want {
		t.Fatalf("期望 report=%q，实际=%q", want, eff.Report)
	}
	if eff.WasteData != filepath.Clean("/abs/w.json") {
		t.Fatalf("绝对路径应保持不变：%q", eff.WasteData)
	}
	if !eff.DryRun {
		t.Fatalf("期望 dry_run=true")
	}

	// --dry-run=false 必须覆盖配置中的 true。
	eff2, err := LoadEffective(cwd, CLIArgs{DryRun: false, DryRunSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff2.DryRun {
		t.Fatalf("期望 CLI 覆盖为 dry_run=false")
	}
}

func TestLoadEffective_YAMLFile(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileNameYAML), []byte("encoding: windows-1252\nreport_format: html\nshade:\n  end_color: \"#003366\"\n"))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Encoding != "windows-1252" || eff.ReportFormat != "html" {
		t.Fatalf("YAML 字段未生效：%+v", eff)
	}
	if eff.Gradient.End.Hex() != "#003366" || eff.Gradient.Start.Hex() != shade.DefaultStartColor {
		t.Fatalf("颜色配置不正确：%s %s", eff.Gradient.Start.Hex(), eff.Gradient.End.Hex())
	}
}

func TestLoadEffective_JSONPreferredOverYAML(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileNameJSON), []byte(`{"map_data":"from-json.json"}`))
	writeFile(t, filepath.Join(cwd, FileNameYAML), []byte("map_data: from-yaml.json\n"))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if filepath.Base(eff.MapData) != "from-json.json" {
		t.Fatalf("期望优先使用 JSON 配置，实际 %q", eff.MapData)
	}
}

func TestLoadEffective_Invalid(t *testing.T) {
	cases := []struct {
		name string
		file string
		body string
	}{
		{name: "broken json", file: FileNameJSON, body: `{`},
		{name: "broken yaml", file: FileNameYAML, body: "report: [\n"},
		{name: "bad format", file: FileNameJSON, body: `{"report_format":"pdf"}`},
		{name: "bad encoding", file: FileNameJSON, body: `{"encoding":"nope-9"}`},
		{name: "bad color", file: FileNameJSON, body: `{"shade":{"start_color":"white"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, tc.file), []byte(tc.body))

			_, err := LoadEffective(cwd, CLIArgs{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败 %q：%v", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
