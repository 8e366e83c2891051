package domain

import (
	"encoding/json"
	"time"
)

// StageReport 是每个阶段对外稳定输出（stdout JSON）的结构。
type StageReport struct {
	Stage  string   `json:"stage"`
	Inputs []string `json:"inputs"`
	Output string   `json:"output"`
	DryRun bool     `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary     StageSummary `json:"summary"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// StageSummary 中 Skipped 只统计被丢弃的记录；信息类诊断（例如 code 覆盖）不计入。
type StageSummary struct {
	Read    int `json:"read"`
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) 保证 inputs/diagnostics 输出为 [] 而不是 null
//
// 诊断保持产生顺序（即输入顺序），不重新排序。
func (r *StageReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Inputs == nil {
		r.Inputs = []string{}
	}
	if r.Diagnostics == nil {
		r.Diagnostics = []Diagnostic{}
	}
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
func (r StageReport) MarshalJSON() ([]byte, error) {
	type Alias StageReport
	return json.Marshal(Alias(r))
}
