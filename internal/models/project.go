package models

import "time"

// Project 项目模型
type Project struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	ProjectName string    `gorm:"size:200;not null" json:"project_name"`
	Description string    `gorm:"type:text" json:"description"`
	Status      string    `gorm:"size:20;default:'active'" json:"status"`
	CreatorID   uint      `gorm:"not null;index" json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// Iteration 迭代模型
type Iteration struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	IterationName string    `gorm:"size:200;not null" json:"iteration_name"`
	ProjectID     uint      `gorm:"not null;index" json:"project_id"`
	Description   string    `gorm:"type:text" json:"description"`
	Status        string    `gorm:"size:20;default:'active'" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Iteration) TableName() string {
	return "iterations"
}

// VersionRequirement 版本需求模型
type VersionRequirement struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	RequirementName string    `gorm:"size:200;not null" json:"requirement_name"`
	ProjectID       uint      `gorm:"not null;index" json:"project_id"`
	IterationID     *uint     `gorm:"index" json:"iteration_id"`
	Description     string    `gorm:"type:text" json:"description"`
	Status          string    `gorm:"size:20;default:'pending'" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName 指定表名
func (VersionRequirement) TableName() string {
	return "version_requirements"
}
