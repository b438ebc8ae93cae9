package repository

import (
	"testhub/internal/models"

	"gorm.io/gorm"
)

// ProjectRepository 项目数据访问层，含迭代与版本需求
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository 创建项目Repository
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create 创建项目
func (r *ProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// GetByID 根据ID获取项目
func (r *ProjectRepository) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// List 获取项目列表
func (r *ProjectRepository) List(offset, limit int) ([]models.Project, int64, error) {
	var projects []models.Project
	var total int64

	if err := r.db.Model(&models.Project{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&projects).Error
	return projects, total, err
}

// Delete 删除项目
func (r *ProjectRepository) Delete(id uint) error {
	return r.db.Delete(&models.Project{}, id).Error
}

// CreateIteration 创建迭代
func (r *ProjectRepository) CreateIteration(iteration *models.Iteration) error {
	return r.db.Create(iteration).Error
}

// GetIterationByID 根据ID获取迭代
func (r *ProjectRepository) GetIterationByID(id uint) (*models.Iteration, error) {
	var iteration models.Iteration
	err := r.db.First(&iteration, id).Error
	if err != nil {
		return nil, err
	}
	return &iteration, nil
}

// ListIterationsByProject 获取项目下的迭代列表
func (r *ProjectRepository) ListIterationsByProject(projectID uint) ([]models.Iteration, error) {
	var iterations []models.Iteration
	err := r.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&iterations).Error
	return iterations, err
}

// CreateRequirement 创建版本需求
func (r *ProjectRepository) CreateRequirement(requirement *models.VersionRequirement) error {
	return r.db.Create(requirement).Error
}

// GetRequirementByID 根据ID获取版本需求
func (r *ProjectRepository) GetRequirementByID(id uint) (*models.VersionRequirement, error) {
	var requirement models.VersionRequirement
	err := r.db.First(&requirement, id).Error
	if err != nil {
		return nil, err
	}
	return &requirement, nil
}

// ListRequirementsByIteration 获取迭代下的版本需求列表
func (r *ProjectRepository) ListRequirementsByIteration(iterationID uint) ([]models.VersionRequirement, error) {
	var requirements []models.VersionRequirement
	err := r.db.Where("iteration_id = ?", iterationID).Order("created_at DESC").Find(&requirements).Error
	return requirements, err
}
