package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 工单状态
const (
	TicketStatusIncomplete = "incomplete"
	TicketStatusComplete   = "complete"
)

// 工单模型
type Ticket struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Status      string    `gorm:"size:20;default:'incomplete';index" json:"status"` // incomplete, complete
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 关联关系
	Analyses []TicketAnalysis `gorm:"foreignKey:TicketID" json:"analyses,omitempty"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TicketStatusIncomplete
	}
	return nil
}

// 分析运行：一次 fetch-classify-summarize-persist 流水线执行
type AnalysisRun struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Summary   string    `gorm:"type:text" json:"summary"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Analyses []TicketAnalysis `gorm:"foreignKey:AnalysisRunID" json:"analyses,omitempty"`
}

func (r *AnalysisRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// 工单分析结果：一条 (run, ticket) 记录，只追加不修改
type TicketAnalysis struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	AnalysisRunID string    `gorm:"size:36;index;not null" json:"analysis_run_id"`
	TicketID      string    `gorm:"size:36;index;not null" json:"ticket_id"`
	Category      string    `gorm:"size:100" json:"category"`
	Priority      string    `gorm:"size:20" json:"priority"`
	Notes         string    `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time `json:"created_at"`

	Ticket *Ticket `gorm:"foreignKey:TicketID" json:"ticket,omitempty"`
}

func (a *TicketAnalysis) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Classification 单个工单的分类结果（仅在流水线内部流转，落库时写入 TicketAnalysis）
type Classification struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Notes    string `json:"notes"`
}
