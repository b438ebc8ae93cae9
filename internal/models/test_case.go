package models

import "time"

// TestCase 测试用例模型
type TestCase struct {
	ID                   uint      `gorm:"primarykey" json:"id"`
	CaseNumber           string    `gorm:"size:100;index" json:"case_number"`
	CaseName             string    `gorm:"size:200;not null" json:"case_name"`
	CaseDescription      string    `gorm:"type:text" json:"case_description"`
	Priority             string    `gorm:"size:10;default:'P1'" json:"priority"`
	Status               string    `gorm:"size:20;default:''" json:"status"`
	Preconditions        string    `gorm:"type:text" json:"preconditions"`
	Steps                string    `gorm:"type:text" json:"steps"`
	ExpectedResult       string    `gorm:"type:text" json:"expected_result"`
	ActualResult         string    `gorm:"type:text" json:"actual_result"`
	TestData             string    `gorm:"type:text" json:"test_data"`
	SuiteID              *uint     `gorm:"index" json:"suite_id"`
	ProjectID            uint      `gorm:"not null;index" json:"project_id"`
	IterationID          *uint     `gorm:"index" json:"iteration_id"`
	VersionRequirementID *uint     `gorm:"index" json:"version_requirement_id"`
	CreatorID            uint      `gorm:"index" json:"creator_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName 指定表名
func (TestCase) TableName() string {
	return "test_cases"
}
