package llm

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	jsonBlockRe     = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	markdownBlockRe = regexp.MustCompile("(?s)```md\\s*(.*?)\\s*```")
)

// ExtractJSONPayload 从自由文本回复中取出 JSON 载荷：
// 取第一个三反引号围栏块（可带 json 标签），没有围栏时整个修剪后的正文即载荷。
func ExtractJSONPayload(content string) string {
	if m := jsonBlockRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}

// ExtractMarkdown 从回复中取出 ```md 围栏内的 markdown；没有围栏视为格式错误
func ExtractMarkdown(content string) (string, error) {
	if m := markdownBlockRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1]), nil
	}
	return "", fmt.Errorf("no md fenced block found")
}
