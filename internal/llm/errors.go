package llm

import "fmt"

// ErrorKind 提供方错误分类
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"   // 网络/超时/5xx
	KindAuth        ErrorKind = "auth"        // 鉴权失败或未配置密钥
	KindRefusal     ErrorKind = "refusal"     // 模型拒绝生成结构化输出
	KindMalformed   ErrorKind = "malformed"   // 响应不符合约定格式
	KindUnsupported ErrorKind = "unsupported" // 提供方不支持结构化输出
)

// ProviderError LLM 提供方调用失败。调用方在 classify/summarize 阶段
// 必须吞掉该错误并走确定性回退，不允许继续向上传播。
type ProviderError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm provider %s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("llm provider %s error: %s", e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(kind ErrorKind, message string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Message: message, Err: err}
}
