package services

import (
	"fmt"
	"sort"
	"strings"

	"triagent/internal/models"
)

// EmptyBatchSummary 空批次的统一摘要文案
const EmptyBatchSummary = "No tickets processed!"

// BuildSummary 对分类结果做确定性聚合摘要。
// results 与 tickets 按下标配对，nil 条目计为处理失败。
func BuildSummary(tickets []models.Ticket, results []*models.Classification) string {
	total := len(tickets)
	if total == 0 {
		return EmptyBatchSummary
	}

	categoryCounts := make(map[string]int)
	var categoryOrder []string // 首次出现顺序，用于最高频类别的平票裁决
	priorityCounts := map[string]int{"high": 0, "medium": 0, "low": 0}

	processed := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		processed++
		if _, seen := categoryCounts[r.Category]; !seen {
			categoryOrder = append(categoryOrder, r.Category)
		}
		categoryCounts[r.Category]++
		if p := strings.ToLower(r.Priority); p == "high" || p == "medium" || p == "low" {
			priorityCounts[p]++
		}
	}
	failed := total - processed

	parts := []string{fmt.Sprintf("Processed %d out of %d tickets.", processed, total)}

	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d tickets failed processing.", failed))
	}

	if len(categoryCounts) > 0 {
		names := make([]string, 0, len(categoryCounts))
		for cat := range categoryCounts {
			names = append(names, cat)
		}
		sort.Strings(names)
		counts := make([]string, 0, len(names))
		for _, cat := range names {
			counts = append(counts, fmt.Sprintf("%d %s", categoryCounts[cat], cat))
		}
		parts = append(parts, fmt.Sprintf("Categories: %s.", strings.Join(counts, ", ")))
	}

	parts = append(parts, fmt.Sprintf("Priorities: %d high, %d medium, %d low.",
		priorityCounts["high"], priorityCounts["medium"], priorityCounts["low"]))

	if len(categoryOrder) > 0 {
		top := categoryOrder[0]
		for _, cat := range categoryOrder[1:] {
			if categoryCounts[cat] > categoryCounts[top] {
				top = cat
			}
		}
		parts = append(parts, fmt.Sprintf("Most common issue: %s (%d tickets).", top, categoryCounts[top]))
	}

	return strings.Join(parts, " ")
}
