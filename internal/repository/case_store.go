package repository

import (
	"testhub/internal/models"
)

// CaseStore 聚合套件与用例的存取，供AI生成管道作为窄契约消费
type CaseStore struct {
	suiteRepo *TestSuiteRepository
	caseRepo  *TestCaseRepository
}

// NewCaseStore 创建CaseStore
func NewCaseStore(suiteRepo *TestSuiteRepository, caseRepo *TestCaseRepository) *CaseStore {
	return &CaseStore{
		suiteRepo: suiteRepo,
		caseRepo:  caseRepo,
	}
}

// GetSuite 获取套件元信息
func (s *CaseStore) GetSuite(id uint) (*models.TestSuite, error) {
	return s.suiteRepo.GetByID(id)
}

// CreateSuite 创建套件
func (s *CaseStore) CreateSuite(suite *models.TestSuite) error {
	return s.suiteRepo.Create(suite)
}

// ListCasesInSuite 分页获取套件下的用例
func (s *CaseStore) ListCasesInSuite(suiteID uint, page, pageSize int) ([]models.TestCase, int64, error) {
	return s.caseRepo.ListBySuite(suiteID, page, pageSize)
}

// CreateCase 创建用例
func (s *CaseStore) CreateCase(testCase *models.TestCase) error {
	return s.caseRepo.Create(testCase)
}
