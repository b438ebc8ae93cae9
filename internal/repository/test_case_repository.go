package repository

import (
	"testhub/internal/models"

	"gorm.io/gorm"
)

// TestCaseRepository 测试用例数据访问层
type TestCaseRepository struct {
	db *gorm.DB
}

// NewTestCaseRepository 创建测试用例Repository
func NewTestCaseRepository(db *gorm.DB) *TestCaseRepository {
	return &TestCaseRepository{db: db}
}

// Create 创建用例
func (r *TestCaseRepository) Create(testCase *models.TestCase) error {
	return r.db.Create(testCase).Error
}

// GetByID 根据ID获取用例
func (r *TestCaseRepository) GetByID(id uint) (*models.TestCase, error) {
	var testCase models.TestCase
	err := r.db.First(&testCase, id).Error
	if err != nil {
		return nil, err
	}
	return &testCase, nil
}

// ListBySuite 分页获取套件下的用例
func (r *TestCaseRepository) ListBySuite(suiteID uint, page, pageSize int) ([]models.TestCase, int64, error) {
	var cases []models.TestCase
	var total int64

	query := r.db.Model(&models.TestCase{}).Where("suite_id = ?", suiteID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("case_number ASC").Offset(offset).Limit(pageSize).Find(&cases).Error
	return cases, total, err
}

// Update 更新用例
func (r *TestCaseRepository) Update(testCase *models.TestCase) error {
	return r.db.Save(testCase).Error
}

// Delete 删除用例
func (r *TestCaseRepository) Delete(id uint) error {
	return r.db.Delete(&models.TestCase{}, id).Error
}
