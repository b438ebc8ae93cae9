package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"testhub/internal/casegen"
	"testhub/internal/models"

	"github.com/sirupsen/logrus"
)

// 用例编号相关的匹配规则
var (
	versionPattern    = regexp.MustCompile(`\d+\.\d+\.\d+`)
	caseSuffixPattern = regexp.MustCompile(`\d{3}$`)
	nonAlnumPattern   = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// 一次性拉取套件下全部用例来扫描编号，假设单个套件不会超过该数量
const maxCasesPerSuite = 10000

// CaseStore 生成管道消费的存储契约
type CaseStore interface {
	GetSuite(id uint) (*models.TestSuite, error)
	CreateSuite(suite *models.TestSuite) error
	ListCasesInSuite(suiteID uint, page, pageSize int) ([]models.TestCase, int64, error)
	CreateCase(testCase *models.TestCase) error
}

// Completer 模型补全网关契约
type Completer interface {
	Complete(ctx context.Context, prompt string, label string) (string, error)
}

// GenerationParams AI生成请求参数
type GenerationParams struct {
	ProjectID       uint
	IterationID     uint
	RequirementID   uint
	ProjectName     string
	IterationName   string
	RequirementName string
	Description     string
	TemplateKey     string // 提示词模板，默认functional
	SuiteName       string // 新建用例集名称覆盖，仅在目标为目录时使用
	CreatorID       uint
}

// SaveResult 批量保存结果
type SaveResult struct {
	SavedCases   []models.TestCase
	SuiteID      uint
	SuiteCreated bool
}

// GenerationService AI测试用例生成服务
type GenerationService struct {
	store  CaseStore
	model  Completer
	logger *logrus.Logger
}

// NewGenerationService 创建生成服务
func NewGenerationService(store CaseStore, model Completer, logger *logrus.Logger) *GenerationService {
	return &GenerationService{
		store:  store,
		model:  model,
		logger: logger,
	}
}

// ProgressFunc 生成过程的阶段回调
type ProgressFunc func(message string, progress int)

// Generate 执行文档解析、提示词构建、模型调用、结果规范化，返回未持久化的用例记录
func (s *GenerationService) Generate(ctx context.Context, params *GenerationParams, filename string, fileData []byte) ([]casegen.CaseRecord, error) {
	return s.GenerateWithProgress(ctx, params, filename, fileData, nil)
}

// GenerateWithProgress 同Generate，每个阶段开始时通过report上报进度
func (s *GenerationService) GenerateWithProgress(ctx context.Context, params *GenerationParams, filename string, fileData []byte, report ProgressFunc) ([]casegen.CaseRecord, error) {
	if report == nil {
		report = func(string, int) {}
	}

	report("正在解析需求文档...", 10)
	documentContent, err := casegen.Extract(filename, fileData)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"requirement_id": params.RequirementID,
		"filename":       filename,
		"content_length": len(documentContent),
	}).Info("需求文档解析完成")

	report("正在构建AI提示词...", 20)
	templateKey := params.TemplateKey
	if templateKey == "" {
		templateKey = "functional"
	}

	prompt := casegen.BuildPrompt(templateKey, map[string]string{
		"projectName":     params.ProjectName,
		"iterationName":   params.IterationName,
		"requirementName": params.RequirementName,
		"requirementDesc": params.Description,
		"documentContent": documentContent,
	})

	report("正在调用AI生成用例...", 30)
	raw, err := s.model.Complete(ctx, prompt, "生成测试用例")
	if err != nil {
		return nil, err
	}

	report("正在解析AI返回结果...", 50)
	records, err := casegen.Normalize(raw, casegen.BatchMeta{
		ProjectID:     params.ProjectID,
		IterationID:   params.IterationID,
		RequirementID: params.RequirementID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField("count", len(records)).Info("AI生成用例解析完成")

	return records, nil
}

// SaveCases 将一个批次的用例保存到目标套件，按套件内已有编号续号。
// 目标为目录节点时新建叶子套件并写入其中；保存顺序与records顺序一致，
// 逐条串行写入以保证编号连续递增。并发批次写同一套件可能产生重复编号，
// 此处不做协调。
// 中途失败立即返回错误，已保存的用例保留，返回值包含成功保存的部分。
func (s *GenerationService) SaveCases(ctx context.Context, records []casegen.CaseRecord, suiteID uint, params *GenerationParams) (*SaveResult, error) {
	return s.SaveCasesWithProgress(ctx, records, suiteID, params, nil)
}

// SaveCasesWithProgress 同SaveCases，每保存一个用例通过report上报一次进度，
// 进度区间70-95，保存顺序即上报顺序
func (s *GenerationService) SaveCasesWithProgress(ctx context.Context, records []casegen.CaseRecord, suiteID uint, params *GenerationParams, report ProgressFunc) (*SaveResult, error) {
	if report == nil {
		report = func(string, int) {}
	}

	destSuiteID, suiteCreated, err := s.resolveDestSuite(records, suiteID, params)
	if err != nil {
		return nil, err
	}

	maxIndex := s.maxExistingIndex(destSuiteID)
	prefix := buildCaseNumberPrefix(params.ProjectName, params.IterationName, params.RequirementName)

	result := &SaveResult{
		SavedCases:   make([]models.TestCase, 0, len(records)),
		SuiteID:      destSuiteID,
		SuiteCreated: suiteCreated,
	}

	for i, record := range records {
		caseNumber := fmt.Sprintf("%s%03d", prefix, maxIndex+i+1)
		caseName := resolveCaseName(record, caseNumber)

		testCase := models.TestCase{
			CaseNumber:      caseNumber,
			CaseName:        caseName,
			CaseDescription: record.CaseDescription,
			Priority:        record.Priority,
			Status:          record.Status,
			Preconditions:   record.Preconditions,
			Steps:           record.Steps,
			ExpectedResult:  record.ExpectedResult,
			ActualResult:    record.ActualResult,
			TestData:        record.TestData,
			SuiteID:         &destSuiteID,
			ProjectID:       record.ProjectID,
			CreatorID:       params.CreatorID,
		}
		if record.IterationID != 0 {
			iterationID := record.IterationID
			testCase.IterationID = &iterationID
		}
		if record.VersionRequirementID != 0 {
			requirementID := record.VersionRequirementID
			testCase.VersionRequirementID = &requirementID
		}

		if err := s.store.CreateCase(&testCase); err != nil {
			return result, fmt.Errorf("保存第%d个用例失败(%s): %w", i+1, caseNumber, err)
		}

		result.SavedCases = append(result.SavedCases, testCase)
		report(fmt.Sprintf("已保存用例 %d/%d", i+1, len(records)), 70+(i+1)*25/len(records))
	}

	s.logger.WithFields(logrus.Fields{
		"suite_id":      destSuiteID,
		"suite_created": suiteCreated,
		"saved":         len(result.SavedCases),
	}).Info("AI生成用例保存完成")

	return result, nil
}

// resolveDestSuite 确定写入目标。目标是目录节点时新建叶子套件；
// 套件元信息获取失败时降级使用原始ID继续，不中断批次。
func (s *GenerationService) resolveDestSuite(records []casegen.CaseRecord, suiteID uint, params *GenerationParams) (uint, bool, error) {
	suite, err := s.store.GetSuite(suiteID)
	if err != nil {
		s.logger.WithError(err).WithField("suite_id", suiteID).Warn("获取套件信息失败，使用原始套件ID")
		return suiteID, false, nil
	}

	if !suite.IsFolder() {
		return suiteID, false, nil
	}

	suiteName := params.SuiteName
	if suiteName == "" {
		requirementName := params.RequirementName
		if requirementName == "" {
			requirementName = "AI生成用例集"
		}
		suiteName = fmt.Sprintf("%s_%s", requirementName, time.Now().Format("2006-01-02"))
	}

	description := params.Description
	if description == "" {
		description = fmt.Sprintf("AI生成的用例集，包含%d个测试用例", len(records))
	}

	parentID := suiteID
	newSuite := models.TestSuite{
		SuiteName:   suiteName,
		Description: description,
		Type:        models.SuiteTypeSuite,
		ParentID:    &parentID,
		ProjectID:   params.ProjectID,
		CreatorID:   params.CreatorID,
	}

	if err := s.store.CreateSuite(&newSuite); err != nil {
		return 0, false, fmt.Errorf("创建用例集失败: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"parent_id": suiteID,
		"suite_id":  newSuite.ID,
		"name":      suiteName,
	}).Info("目标为目录节点，已新建用例集")

	return newSuite.ID, true, nil
}

// maxExistingIndex 扫描套件内已有用例编号的末3位数字，返回最大值。
// 套件为空或查询失败时返回0。
func (s *GenerationService) maxExistingIndex(suiteID uint) int {
	cases, _, err := s.store.ListCasesInSuite(suiteID, 1, maxCasesPerSuite)
	if err != nil {
		s.logger.WithError(err).WithField("suite_id", suiteID).Warn("获取现有用例失败，从0开始编号")
		return 0
	}

	maxIndex := 0
	for _, c := range cases {
		match := caseSuffixPattern.FindString(c.CaseNumber)
		if match == "" {
			continue
		}
		if n, err := strconv.Atoi(match); err == nil && n > maxIndex {
			maxIndex = n
		}
	}

	return maxIndex
}

// buildCaseNumberPrefix 生成 "{项目}-{版本}-{需求}" 形式的编号前缀。
// 项目与需求名去掉非字母数字字符并大写，最多取3个字符；
// 版本号从迭代名称中提取 x.y.z，缺省1.0.0。
func buildCaseNumberPrefix(projectName, iterationName, requirementName string) string {
	version := versionPattern.FindString(iterationName)
	if version == "" {
		version = "1.0.0"
	}

	return fmt.Sprintf("%s-%s-%s", shortCode(projectName, "PROJ"), version, shortCode(requirementName, "REQ"))
}

// shortCode 名称清洗为大写字母数字并截断到3个字符，空值用fallback代替
func shortCode(name, fallback string) string {
	cleaned := strings.ToUpper(nonAlnumPattern.ReplaceAllString(name, ""))
	if cleaned == "" {
		cleaned = fallback
	}
	if len(cleaned) > 3 {
		cleaned = cleaned[:3]
	}
	return cleaned
}

// resolveCaseName 用例名称取AI生成名称，缺省时截取描述前50个字符，再缺省引用编号
func resolveCaseName(record casegen.CaseRecord, caseNumber string) string {
	if record.CaseName != "" {
		return record.CaseName
	}

	if record.CaseDescription != "" {
		runes := []rune(record.CaseDescription)
		if len(runes) > 50 {
			return string(runes[:50])
		}
		return record.CaseDescription
	}

	return fmt.Sprintf("测试用例_%s", caseNumber)
}
