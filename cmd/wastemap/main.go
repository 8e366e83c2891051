package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/John-Robertt/wastemap/internal/app/stage"
	"github.com/John-Robertt/wastemap/internal/config"
	"github.com/John-Robertt/wastemap/internal/domain"
	"github.com/John-Robertt/wastemap/internal/source"
	"github.com/John-Robertt/wastemap/internal/source/html"
	"github.com/John-Robertt/wastemap/internal/source/text"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// exitError 携带明确的退出码；其他从 cobra 冒出的错误一律视为用法错误（2）。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

type cli struct {
	stdout io.Writer
	stderr io.Writer

	dir     string
	dryRun  bool
	verbose bool

	log *zap.Logger
}

// execute 是进程入口的可测试版本：返回退出码而不是直接退出。
//
// 约束：
// - 0：成功（单记录诊断不影响退出码）
// - 1：致命错误（缺失输入、无法解析、无法写出、配置无效）
// - 2：用法错误（未知命令/参数、非法参数值）
func execute(args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		fmt.Fprintf(stderr, "错误：%v\n", ee.err)
		return ee.code
	}
	fmt.Fprintf(stderr, "参数错误：%v\n\n使用 \"wastemap --help\" 查看用法。\n", err)
	return 2
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wastemap",
		Short: "塑料垃圾国家报告的离线数据准备工具",
		Long: `wastemap 把国家报告整理为地图可用的数据，每个阶段读文件、写一个 JSON 文件：

  extract  report.txt -> waste_data.json
  clean    waste_data.json -> cleaned_data.json
  invert   countryToCode.json -> codeToCountry.json
  shade    cleaned_data.json + countryToCode.json -> map_data.json
  all      依次执行以上四个阶段

可选配置文件：<dir>/wastemap.json 或 <dir>/wastemap.yaml。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := c.buildLogger()
			if err != nil {
				return &exitError{code: 1, err: fmt.Errorf("初始化日志失败：%w", err)}
			}
			c.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%s: %w", cmd.CommandPath(), err)
	})

	root.PersistentFlags().StringVar(&c.dir, "dir", "", "工作目录（默认：当前目录）")
	root.PersistentFlags().BoolVar(&c.dryRun, "dry-run", false, "执行阶段但不写出任何文件；支持 --dry-run=false 覆盖配置")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "输出 debug 日志")

	short := map[string]string{
		domain.StageExtract: "从报告中按行偏移摘出国家记录",
		domain.StageClean:   "把摘出的字段转换为数值，丢弃无效记录",
		domain.StageInvert:  "把 国家 -> code 映射反转为 code -> 国家",
		domain.StageShade:   "按 waste 比例计算每个国家的地图填充色",
	}
	for _, name := range stage.Names {
		names := []string{name}
		root.AddCommand(&cobra.Command{
			Use:   name,
			Short: short[name],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runStages(cmd, names)
			},
		})
	}
	root.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "依次执行 extract、clean、invert、shade；遇到致命错误即停止",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStages(cmd, stage.Names)
		},
	})
	return root
}

// buildLogger 使用 production 配置的编码与级别，但输出固定到 stderr（stdout 留给报告）。
func (c *cli) buildLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if c.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if f, ok := c.stderr.(*os.File); ok && f == os.Stderr {
		return cfg.Build()
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), zapcore.AddSync(c.stderr), cfg.Level)
	return zap.New(core), nil
}

func (c *cli) runStages(cmd *cobra.Command, names []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("读取当前目录失败：%w", err)}
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Dir:       c.dir,
		DryRun:    c.dryRun,
		DryRunSet: cmd.Flags().Changed("dry-run"),
	})
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	c.log.Debug("配置（生效）",
		zap.String("dir", eff.Dir),
		zap.String("config_file", eff.ConfigFile),
		zap.String("report", eff.Report),
		zap.String("report_format", eff.ReportFormat),
		zap.String("encoding", eff.Encoding),
		zap.Bool("dry_run", eff.DryRun),
	)

	reg, err := source.NewRegistry(text.Source{}, html.Source{})
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("初始化 source registry 失败：%w", err)}
	}

	r := stage.Runner{Eff: eff, Sources: reg, Log: c.log}
	for _, name := range names {
		rep, err := r.Run(name)
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		c.emitReport(rep)
	}
	return nil
}

// emitReport：stdout 是 TTY 时输出一行人类可读摘要；否则每个阶段输出一个 StageReport JSON。
// 诊断与摘要始终走 stderr。
func (c *cli) emitReport(rep domain.StageReport) {
	line := fmt.Sprintf("%s 完成：read=%d written=%d skipped=%d", rep.Stage, rep.Summary.Read, rep.Summary.Written, rep.Summary.Skipped)
	if rep.DryRun {
		line += " (dry-run)"
	}

	if isTTY(c.stdout) {
		fmt.Fprintf(c.stdout, "%s -> %s\n", line, rep.Output)
		for _, d := range rep.Diagnostics {
			fmt.Fprintf(c.stderr, "%s %s: %s\n", d.Country, d.Reason, d.Msg)
		}
		return
	}

	enc := json.NewEncoder(c.stdout)
	_ = enc.Encode(rep)
	fmt.Fprintln(c.stderr, line)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
