package repository

import (
	"time"

	"testhub/internal/models"

	"gorm.io/gorm"
)

// GenerationTaskRepository AI生成任务数据访问层
type GenerationTaskRepository struct {
	db *gorm.DB
}

// NewGenerationTaskRepository 创建生成任务Repository
func NewGenerationTaskRepository(db *gorm.DB) *GenerationTaskRepository {
	return &GenerationTaskRepository{db: db}
}

// Create 创建任务
func (r *GenerationTaskRepository) Create(task *models.GenerationTask) error {
	return r.db.Create(task).Error
}

// GetByTaskID 根据任务ID获取任务
func (r *GenerationTaskRepository) GetByTaskID(taskID string) (*models.GenerationTask, error) {
	var task models.GenerationTask
	err := r.db.Where("task_id = ?", taskID).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetByUserID 获取用户的任务列表
func (r *GenerationTaskRepository) GetByUserID(userID uint) ([]*models.GenerationTask, error) {
	var tasks []*models.GenerationTask
	err := r.db.Where("user_id = ?", userID).Order("started_at DESC").Find(&tasks).Error
	return tasks, err
}

// List 获取全部任务，供管理端分页查看
func (r *GenerationTaskRepository) List(offset, limit int) ([]*models.GenerationTask, int64, error) {
	var tasks []*models.GenerationTask
	var total int64

	if err := r.db.Model(&models.GenerationTask{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("started_at DESC").Offset(offset).Limit(limit).Find(&tasks).Error
	return tasks, total, err
}

// UpdateFinished 更新任务完成状态、结果套件与保存数量
func (r *GenerationTaskRepository) UpdateFinished(taskID string, status string, suiteID *uint, savedCount int, errorMessage string) error {
	updates := map[string]interface{}{
		"status":        status,
		"saved_count":   savedCount,
		"error_message": errorMessage,
	}

	if suiteID != nil {
		updates["suite_id"] = *suiteID
	}

	if status == "finished" || status == "error" || status == "stopped" {
		updates["finished_at"] = time.Now()
	}

	return r.db.Model(&models.GenerationTask{}).Where("task_id = ?", taskID).Updates(updates).Error
}

// UpdateStatus 更新任务状态
func (r *GenerationTaskRepository) UpdateStatus(taskID string, status string) error {
	return r.db.Model(&models.GenerationTask{}).Where("task_id = ?", taskID).Update("status", status).Error
}

// DeleteByTaskID 根据任务ID删除任务
func (r *GenerationTaskRepository) DeleteByTaskID(taskID string) error {
	return r.db.Where("task_id = ?", taskID).Delete(&models.GenerationTask{}).Error
}
