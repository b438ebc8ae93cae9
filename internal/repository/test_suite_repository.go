package repository

import (
	"testhub/internal/models"

	"gorm.io/gorm"
)

// TestSuiteRepository 测试套件数据访问层
type TestSuiteRepository struct {
	db *gorm.DB
}

// NewTestSuiteRepository 创建测试套件Repository
func NewTestSuiteRepository(db *gorm.DB) *TestSuiteRepository {
	return &TestSuiteRepository{db: db}
}

// Create 创建套件
func (r *TestSuiteRepository) Create(suite *models.TestSuite) error {
	return r.db.Create(suite).Error
}

// GetByID 根据ID获取套件
func (r *TestSuiteRepository) GetByID(id uint) (*models.TestSuite, error) {
	var suite models.TestSuite
	err := r.db.First(&suite, id).Error
	if err != nil {
		return nil, err
	}
	return &suite, nil
}

// ListByProject 获取项目下的所有套件
func (r *TestSuiteRepository) ListByProject(projectID uint) ([]models.TestSuite, error) {
	var suites []models.TestSuite
	err := r.db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&suites).Error
	return suites, err
}

// ListChildren 获取子套件
func (r *TestSuiteRepository) ListChildren(parentID uint) ([]models.TestSuite, error) {
	var suites []models.TestSuite
	err := r.db.Where("parent_id = ?", parentID).Order("created_at ASC").Find(&suites).Error
	return suites, err
}

// Update 更新套件
func (r *TestSuiteRepository) Update(suite *models.TestSuite) error {
	return r.db.Save(suite).Error
}

// Delete 删除套件
func (r *TestSuiteRepository) Delete(id uint) error {
	return r.db.Delete(&models.TestSuite{}, id).Error
}
