package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"triagent/internal/llm"
	"triagent/internal/models"
)

// classificationSchema 结构化输出约束：{category, priority, notes}
var classificationSchema = llm.Schema{
	Name: "ticket_classification",
	Definition: json.RawMessage(`{
		"type": "object",
		"properties": {
			"category": {"type": "string"},
			"priority": {"type": "string"},
			"notes": {"type": "string"}
		},
		"required": ["category", "priority", "notes"],
		"additionalProperties": false
	}`),
}

// Gateway LLM 网关：包装提供方调用并做准入限流。
// 每个批次使用新建的信号量，运行之间互不干扰。
type Gateway struct {
	client        llm.Client
	maxConcurrent int
	logger        *logrus.Logger
}

func NewGateway(client llm.Client, maxConcurrent int, logger *logrus.Logger) *Gateway {
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Gateway{
		client:        client,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// ClassifyTicket 调用 LLM 给单个工单分类。结构化输出优先；
// 提供方拒绝或不支持结构化时退到自由文本 + 围栏提取。
// 任何失败都以 *llm.ProviderError 返回，由调用方决定回退。
func (g *Gateway) ClassifyTicket(ctx context.Context, ticket models.Ticket) (*models.Classification, error) {
	prompt := buildClassificationPrompt(ticket)

	payload, err := g.client.CompleteStructured(ctx, prompt, classificationSchema)
	if err != nil {
		var perr *llm.ProviderError
		if !errors.As(err, &perr) {
			return nil, err
		}
		switch perr.Kind {
		case llm.KindRefusal, llm.KindUnsupported:
			// 结构化路径走不通，尝试自由文本补全再提取载荷
			raw, terr := g.client.CompleteText(ctx, prompt)
			if terr != nil {
				return nil, terr
			}
			payload = llm.ExtractJSONPayload(raw)
		default:
			return nil, err
		}
	}

	result, err := parseClassification(payload)
	if err != nil {
		return nil, &llm.ProviderError{Kind: llm.KindMalformed, Message: "parse classification", Err: err}
	}
	return result, nil
}

// ClassifyBatch 并发分类一批工单，在途调用数不超过 maxConcurrent。
// 结果按下标与 tickets 配对，与完成顺序无关。
// 单个工单的 LLM 失败就地回退到关键词分类，本阶段整体永不失败。
func (g *Gateway) ClassifyBatch(ctx context.Context, tickets []models.Ticket) []*models.Classification {
	results := make([]*models.Classification, len(tickets))
	if len(tickets) == 0 {
		return results
	}

	sem := make(chan struct{}, g.maxConcurrent)
	var wg sync.WaitGroup
	for i := range tickets {
		wg.Add(1)
		go func(i int, ticket models.Ticket) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := g.ClassifyTicket(ctx, ticket)
			if err != nil {
				g.logger.Warnf("LLM classification failed for ticket %s, using keyword fallback: %v", ticket.ID, err)
				fallback := ClassifyByKeywords(ticket.Title, ticket.Description)
				results[i] = &fallback
				return
			}
			g.logger.Infof("Classified ticket %s - Category: %s", ticket.ID, result.Category)
			results[i] = result
		}(i, tickets[i])
	}
	wg.Wait()

	g.logger.Infof("Completed classification of %d tickets", len(tickets))
	return results
}

// SummarizeBatch 请求 LLM 生成批次摘要（单次调用，不并发）。
// 失败时返回错误，由调用方退到 BuildSummary。
func (g *Gateway) SummarizeBatch(ctx context.Context, tickets []models.Ticket) (string, error) {
	raw, err := g.client.CompleteText(ctx, buildSummaryPrompt(tickets))
	if err != nil {
		return "", err
	}

	summary, err := llm.ExtractMarkdown(raw)
	if err != nil {
		return "", &llm.ProviderError{Kind: llm.KindMalformed, Message: "extract summary markdown", Err: err}
	}
	return summary, nil
}

func buildClassificationPrompt(ticket models.Ticket) string {
	return fmt.Sprintf(`Analyze this support ticket and provide categorization:

Ticket: Title: %s | Description: %s

For this ticket, provide category (billing/bug/feature_request/authentication/other), priority (high/medium/low), and brief notes.
Respond with a valid JSON object: {"category": "billing", "priority": "high", "notes": "Payment processing issue"}`,
		ticket.Title, ticket.Description)
}

func buildSummaryPrompt(tickets []models.Ticket) string {
	var sb strings.Builder
	for i, t := range tickets {
		fmt.Fprintf(&sb, "Ticket %d: Title: %s | Description: %s\n", i+1, t.Title, t.Description)
	}

	return fmt.Sprintf(`Analyze the following support tickets and provide a concise summary in markdown format.

TICKETS:
%s
INSTRUCTIONS:
- IDENTIFY common patterns and trends across tickets
- Highlight the most critical issues by priority and frequency
- Keep the summary UNDER 200 words
- Format your response as clean markdown within code blocks:

`+"```md"+`
## Ticket Analysis Summary

**Key Issues:**
- [Description of the key issues in BULLETS with supporting FIGURES]
- [Describe the MOST COMMON ISSUES in detail]
`+"```", sb.String())
}

// parseClassification 在网关边界校验并落型，下游不再接触无类型数据
func parseClassification(payload string) (*models.Classification, error) {
	var result models.Classification
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, err
	}
	if result.Category == "" || result.Priority == "" {
		return nil, fmt.Errorf("classification missing category or priority")
	}
	result.Priority = strings.ToLower(result.Priority)
	return &result, nil
}
