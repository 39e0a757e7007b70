package nutrition

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
)

const exportTitle = "ヨガ実践者のためのヴィーガンクッキー"

var exportMethod = []string{
	"全ての材料をボウルに入れてよく混ぜ合わせます。",
	"生地を8等分にして平たく形を整えます。",
	"160℃に予熱したオーブンで15〜18分焼きます。",
	"焼きあがったら完全に冷ましてからお召し上がりください。",
}

// RenderExport formats a report as the plain-text recipe card used for
// sharing. Ratios print as 0 when the recipe has no calories.
func RenderExport(report nutrition.Report) string {
	r := report.Result

	var b strings.Builder
	b.WriteString(exportTitle + "\n\n")

	fmt.Fprintf(&b, "【材料】（%d枚分）\n", nutrition.ServingCount)
	for _, line := range report.Recipe.Lines() {
		fmt.Fprintf(&b, "・%s %sg\n", line.DisplayName, formatNumber(line.AmountGrams))
	}

	b.WriteString("\n【作り方】\n")
	for i, step := range exportMethod {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	b.WriteString("\n【栄養情報】\n")
	fmt.Fprintf(&b, "・レシピ全体: %sg / %skcal / タンパク質%sg / 原価¥%s\n",
		formatNumber(r.TotalWeight), formatNumber(r.Calories),
		formatNumber(r.Protein), formatNumber(r.Price))
	fmt.Fprintf(&b, "・1枚あたり: %sg / %skcal / タンパク質%sg / 原価¥%s\n",
		formatNumber(r.PerServing.Weight), formatNumber(r.PerServing.Calories),
		formatNumber(r.PerServing.Protein), formatNumber(r.PerServing.Price))
	fmt.Fprintf(&b, "・PFC比率: P:%s%% / F:%s%% / C:%s%%\n",
		formatNumber(r.MacroRatio.Protein), formatNumber(r.MacroRatio.Fat),
		formatNumber(r.MacroRatio.Carbs))
	fmt.Fprintf(&b, "・GI値: %d\n", r.GlycemicIndex)
	fmt.Fprintf(&b, "・アミノ酸スコア: %d%%\n", int(math.Round(r.AminoAcidScore.TotalScore)))

	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
