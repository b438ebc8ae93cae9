package models

import "time"

// 套件类型
const (
	SuiteTypeFolder = "folder" // 目录节点，只能容纳子套件
	SuiteTypeSuite  = "suite"  // 叶子套件，容纳测试用例
)

// TestSuite 测试套件/用例集模型，parent_id构建目录树
type TestSuite struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	SuiteName   string    `gorm:"size:200;not null" json:"suite_name"`
	Description string    `gorm:"type:text" json:"description"`
	Type        string    `gorm:"size:20;default:'suite'" json:"type"`
	ParentID    *uint     `gorm:"index" json:"parent_id"`
	Status      string    `gorm:"size:20;default:'active'" json:"status"`
	CreatorID   uint      `gorm:"index" json:"creator_id"`
	ProjectID   uint      `gorm:"not null;index" json:"project_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (TestSuite) TableName() string {
	return "test_suites"
}

// IsFolder 是否为目录节点
func (s *TestSuite) IsFolder() bool {
	return s.Type == SuiteTypeFolder
}
