package bucket

import (
	"fmt"
	"math"
	"sort"

	"github.com/elonfeng/lens/pkg/score"
)

// row is one line of a legend: integer scores from..to share a label.
type row struct {
	from, to    int
	label       string
	description string
	examples    []string
	color       string
}

// PoliticalSpectrum classifies an article's overall political leaning.
var PoliticalSpectrum = MustTable("political", score.Spectrum, fromRows(score.Spectrum, []row{
	{-10, -10, "極度台獨/解構中華", "徹底否認中華民國體制，追求法理建國。", []string{"支那", "流亡政府", "脫脂"}, "#4BA069"},
	{-9, -8, "激進獨派/深綠", "強烈台灣民族主義，視國民黨為殖民遺毒。", []string{"抗中保台", "賣台賊"}, "#6AB986"},
	{-7, -5, "主流綠營/抗中立場", "強調「中華民國台灣」，反對九二共識。", []string{"民主防衛", "互不隸屬"}, "#8FCBA4"},
	{-4, -2, "理性防中/西方盟友", "基於自由價值排斥中國，第一島鏈視角。", []string{"去風險化", "印太戰略"}, "#D5ECDD"},
	{-1, -1, "微幅疑中/現狀派", "對中國保持距離，但不願激怒對方。", []string{"維持現狀", "避戰"}, "#EDF7F1"},
	{0, 0, "絕對中立", "無情感色彩，純粹紀錄。", []string{"兩岸", "雙方"}, "#B8E7FF"},
	{1, 1, "務實交流/商業優先", "政治放一邊，賺錢優先。", []string{"兩岸紅利", "經貿往來"}, "#B8E7FF"},
	{2, 4, "疑美論/輕度親中", "批判「倚美謀獨」，主張對中避險。", []string{"棋子", "要和平不要戰爭"}, "#61C5FF"},
	{5, 7, "主流藍營/中華文化", "強調九二共識、反台獨、同文同種。", []string{"兩岸一家親", "數典忘祖"}, "#2B05FF"},
	{8, 9, "和平統一/紅色宣傳", "讚揚中國成就，唱衰台灣。", []string{"祖國強大", "一國兩制"}, "#FD08C7"},
	{10, 10, "武統意圖/敵對入侵", "無視台灣主權，正當化武力行為。", []string{"留島不留人", "武力解放"}, "#FF0705"},
}))

// EntityRole classifies the narrative role an article assigns to an entity.
var EntityRole = MustTable("entity", score.Alignment, fromRows(score.Alignment, []row{
	{-10, -10, "大反派(妖魔化)", "非理性攻擊，煽動仇恨。", []string{"賣國賊", "邪惡軸心"}, "#c084fc"},
	{-9, -7, "麻煩製造者(標靶)", "無限放大錯誤，獵巫。", []string{"毫無悔意", "又出包"}, "#c084fc"},
	{-6, -4, "被質疑者(負面框架)", "單向引用批評，暗示動機不純。", []string{"外界質疑", "恐涉嫌"}, "#d8b4fe"},
	{-3, -2, "局外人(冷淡)", "剝奪能動性，生硬稱呼。", []string{"聲稱", "據傳"}, "#e9d5ff"},
	{-1, 1, "新聞當事人(中立)", "去情緒化，等距報導。", []string{"表示", "指出"}, "#d1d5db"},
	{2, 3, "受訪嘉賓(友善)", "完整引用論述，優先報導其解釋。", []string{"強調", "語重心長"}, "#fef9c3"},
	{4, 6, "建設者(盟友)", "放大政績，縮小失誤。敵人的敵人。", []string{"一針見血", "獲好評"}, "#fde047"},
	{7, 9, "英雄/領袖(護航)", "主動辯護，使用高強度正面形容詞。", []string{"霸氣", "不畏強權"}, "#facc15"},
	{10, 10, "救世主(造神)", "神格化，情感動員。", []string{"偉大", "歷史時刻"}, "#eab308"},
}))

var tables = map[string]*Table{
	PoliticalSpectrum.Name(): PoliticalSpectrum,
	EntityRole.Name():        EntityRole,
}

// Lookup returns a canonical table by name ("political" or "entity").
func Lookup(name string) (*Table, bool) {
	t, ok := tables[name]
	return t, ok
}

// Names lists the canonical table names in sorted order.
func Names() []string {
	names := make([]string, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// fromRows turns integer legend rows into real-valued buckets. Row a..b covers
// [a-0.5, b+0.5), clipped to the domain, so a score rounds half up to its row.
func fromRows(d score.Domain, rows []row) []Bucket {
	out := make([]Bucket, len(rows))
	for i, r := range rows {
		lo := float64(r.from) - 0.5
		if float64(r.from) == d.Min {
			lo = d.Min
		}
		hi := math.Nextafter(float64(r.to)+0.5, math.Inf(-1))
		if float64(r.to) == d.Max {
			hi = d.Max
		}
		out[i] = Bucket{
			LowerBound:  lo,
			UpperBound:  hi,
			Range:       rangeLabel(r.from, r.to),
			Label:       r.label,
			Description: r.description,
			Examples:    r.examples,
			Color:       r.color,
		}
	}
	return out
}

func rangeLabel(from, to int) string {
	if from == to {
		return signed(from)
	}
	return fmt.Sprintf("%s ~ %s", signed(from), signed(to))
}

func signed(v int) string {
	if v > 0 {
		return fmt.Sprintf("+%d", v)
	}
	return fmt.Sprintf("%d", v)
}
