package services

import (
	"strings"

	"triagent/internal/models"
)

// KeywordNotes 关键词回退分类的固定备注
const KeywordNotes = "Auto-categorized based on keywords in title/description"

// 分类规则按声明顺序匹配，先命中者生效。
// 升级关键词只在命中分支内生效（例如 "urgent" 不会升级 bug 类工单）。
var (
	billingKeywords = []string{"payment", "billing", "invoice", "subscription", "charge"}
	billingUrgent   = []string{"urgent", "critical", "asap"}

	bugKeywords = []string{"bug", "error", "crash", "broken", "not working"}
	bugCritical = []string{"crash", "down", "critical"}

	featureKeywords = []string{"feature", "enhancement", "request", "add", "new"}

	authKeywords = []string{"login", "password", "access", "permission"}
)

// ClassifyByKeywords 关键词启发式分类。确定性、永不失败，
// 只依赖标题与描述拼接后的小写文本。
func ClassifyByKeywords(title, description string) models.Classification {
	text := strings.ToLower(title + " " + description)

	var category, priority string
	switch {
	case containsAny(text, billingKeywords):
		category = "billing"
		priority = "medium"
		if containsAny(text, billingUrgent) {
			priority = "high"
		}
	case containsAny(text, bugKeywords):
		category = "bug"
		priority = "medium"
		if containsAny(text, bugCritical) {
			priority = "high"
		}
	case containsAny(text, featureKeywords):
		category = "feature_request"
		priority = "low"
	case containsAny(text, authKeywords):
		category = "authentication"
		priority = "high"
	default:
		category = "other"
		priority = "medium"
	}

	return models.Classification{
		Category: category,
		Priority: priority,
		Notes:    KeywordNotes,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
