package domain

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// RawRecord 是从报告中按行偏移摘出的原始字段（全部保持文本形态）。
//
// 约束：Extractor 不校验数字格式，校验全部推迟到 Cleaner。
type RawRecord struct {
	Waste     string `json:"waste"`
	MWI       string `json:"mwi"`
	Archetype string `json:"archetype"`
}

// CleanRecord 是 Cleaner 的输出：waste 为非负整数，mwi 为有限浮点（不做缩放）。
type CleanRecord struct {
	Waste     int64   `json:"waste"`
	MWI       float64 `json:"mwi"`
	Archetype string  `json:"archetype"`
}

// MapFill 描述地图上一个国家的填充色（按 waste 占最大值的比例插值）。
type MapFill struct {
	ID              string  `json:"id"`
	Country         string  `json:"country"`
	WastePercentage float64 `json:"waste_percentage"`
	Fill            string  `json:"fill"`
}

// 所有按键索引的表都是插入有序的：
// “输入迭代顺序”“先到先得”“后写覆盖”都以文件中的出现顺序为准。
type (
	RawTable     = orderedmap.OrderedMap[string, RawRecord]
	CleanTable   = orderedmap.OrderedMap[string, CleanRecord]
	CodeTable    = orderedmap.OrderedMap[string, string]
	CountryTable = orderedmap.OrderedMap[string, string]
)

func NewRawTable() *RawTable         { return orderedmap.New[string, RawRecord]() }
func NewCleanTable() *CleanTable     { return orderedmap.New[string, CleanRecord]() }
func NewCodeTable() *CodeTable       { return orderedmap.New[string, string]() }
func NewCountryTable() *CountryTable { return orderedmap.New[string, string]() }
