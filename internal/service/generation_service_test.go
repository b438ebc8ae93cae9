package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"testhub/internal/casegen"
	"testhub/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCaseStore 内存CaseStore，可注入各阶段错误
type fakeCaseStore struct {
	suites        map[uint]*models.TestSuite
	existingCases []models.TestCase
	createdCases  []models.TestCase
	createdSuites []models.TestSuite

	getSuiteErr    error
	listErr        error
	createSuiteErr error
	failAtCase     int // 第N次CreateCase返回错误，0表示不失败

	nextSuiteID uint
}

func newFakeCaseStore() *fakeCaseStore {
	return &fakeCaseStore{
		suites:      make(map[uint]*models.TestSuite),
		nextSuiteID: 100,
	}
}

func (f *fakeCaseStore) GetSuite(id uint) (*models.TestSuite, error) {
	if f.getSuiteErr != nil {
		return nil, f.getSuiteErr
	}
	suite, ok := f.suites[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return suite, nil
}

func (f *fakeCaseStore) CreateSuite(suite *models.TestSuite) error {
	if f.createSuiteErr != nil {
		return f.createSuiteErr
	}
	f.nextSuiteID++
	suite.ID = f.nextSuiteID
	f.suites[suite.ID] = suite
	f.createdSuites = append(f.createdSuites, *suite)
	return nil
}

func (f *fakeCaseStore) ListCasesInSuite(suiteID uint, page, pageSize int) ([]models.TestCase, int64, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var cases []models.TestCase
	for _, c := range f.existingCases {
		if c.SuiteID != nil && *c.SuiteID == suiteID {
			cases = append(cases, c)
		}
	}
	return cases, int64(len(cases)), nil
}

func (f *fakeCaseStore) CreateCase(testCase *models.TestCase) error {
	if f.failAtCase > 0 && len(f.createdCases)+1 == f.failAtCase {
		return errors.New("database is locked")
	}
	testCase.ID = uint(len(f.createdCases) + 1)
	f.createdCases = append(f.createdCases, *testCase)
	return nil
}

// fakeCompleter 固定返回模型输出
type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, label string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testParams() *GenerationParams {
	return &GenerationParams{
		ProjectID:       1,
		IterationID:     2,
		RequirementID:   3,
		ProjectName:     "ECommerce",
		IterationName:   "迭代 2.1.3",
		RequirementName: "Login",
		Description:     "登录功能",
		CreatorID:       7,
	}
}

func suiteOf(id uint, suiteType string) *models.TestSuite {
	return &models.TestSuite{ID: id, SuiteName: "套件", Type: suiteType, ProjectID: 1}
}

func record(name string) casegen.CaseRecord {
	return casegen.CaseRecord{
		CaseName:             name,
		Priority:             "P1",
		ProjectID:            1,
		IterationID:          2,
		VersionRequirementID: 3,
	}
}

func TestBuildCaseNumberPrefix(t *testing.T) {
	tests := []struct {
		project, iteration, requirement string
		want                            string
	}{
		{"ECommerce", "迭代 2.1.3", "Login", "ECO-2.1.3-LOG"},
		{"AB", "无版本号", "CD", "AB-1.0.0-CD"},
		{"电商平台", "v1.2.3", "登录需求", "PRO-1.2.3-REQ"},
		{"", "", "", "PRO-1.0.0-REQ"},
		{"a-b-c", "sprint 10.20.30", "x_y_z", "ABC-10.20.30-XYZ"},
	}

	for _, tt := range tests {
		got := buildCaseNumberPrefix(tt.project, tt.iteration, tt.requirement)
		assert.Equal(t, tt.want, got, "project=%q iteration=%q requirement=%q", tt.project, tt.iteration, tt.requirement)
	}
}

func TestShortCodeFallbackBeforeTruncation(t *testing.T) {
	// 清洗后为空时先取fallback再截断
	assert.Equal(t, "PRO", shortCode("", "PROJ"))
	assert.Equal(t, "REQ", shortCode("需求名", "REQ"))
	assert.Equal(t, "ABC", shortCode("abcdef", "PROJ"))
	assert.Equal(t, "AB", shortCode("a b", "PROJ"))
}

func TestSaveCasesContinuesNumbering(t *testing.T) {
	store := newFakeCaseStore()
	suiteID := uint(10)
	store.suites[suiteID] = suiteOf(suiteID, models.SuiteTypeSuite)
	for _, num := range []string{"ECO-2.1.3-LOG001", "ECO-2.1.3-LOG007", "ECO-2.1.3-LOG003"} {
		id := suiteID
		store.existingCases = append(store.existingCases, models.TestCase{CaseNumber: num, SuiteID: &id})
	}

	svc := NewGenerationService(store, &fakeCompleter{}, testLogger())

	records := make([]casegen.CaseRecord, 5)
	for i := range records {
		records[i] = record(fmt.Sprintf("用例%d", i+1))
	}

	result, err := svc.SaveCases(context.Background(), records, suiteID, testParams())
	require.NoError(t, err)
	require.Len(t, result.SavedCases, 5)
	assert.Equal(t, suiteID, result.SuiteID)
	assert.False(t, result.SuiteCreated)

	// 从已有最大编号007续号
	for i, want := range []string{"008", "009", "010", "011", "012"} {
		assert.Equal(t, "ECO-2.1.3-LOG"+want, result.SavedCases[i].CaseNumber)
	}
}

func TestSaveCasesEmptySuiteStartsFromOne(t *testing.T) {
	store := newFakeCaseStore()
	store.suites[10] = suiteOf(10, models.SuiteTypeSuite)
	svc := NewGenerationService(store, &fakeCompleter{}, testLogger())

	result, err := svc.SaveCases(context.Background(), []casegen.CaseRecord{record("首个")}, 10, testParams())
	require.NoError(t, err)
	require.Len(t, result.SavedCases, 1)
	assert.Equal(t, "ECO-2.1.3-LOG001", result.SavedCases[0].CaseNumber)
}

func TestSaveCasesFolderCreatesChildSuite(t *testing.T) {
	store := newFakeCaseStore()
	store.suites[20] = suiteOf(20, models.SuiteTypeFolder)
	svc := NewGenerationService(store, &fakeCompleter{}, testLogger())

	records := []casegen.CaseRecord{record("A"), record("B")}
	result, err := svc.SaveCases(context.Background(), records, 20, testParams())
	require.NoError(t, err)

	assert.True(t, result.SuiteCreated)
	assert.NotEqual(t, uint(20), result.SuiteID)

	require.Len(t, store.createdSuites, 1)
	created := store.createdSuites[0]
	assert.Equal(t, models.SuiteTypeSuite, created.Type)
	require.NotNil(t, created.ParentID)
	assert.Equal(t, uint(20), *created.ParentID)
	wantName := fmt.Sprintf("Login_%s", time.Now().Format("2006-01-02"))
	assert.Equal(t, wantName, created.SuiteName)

	// 目录节点下不能直接落用例
	for _, c := range store.createdCases {
		require.NotNil(t, c.SuiteID)
		assert.NotEqual(t, uint(20), *c.SuiteID)
		assert.Equal(t, result.SuiteID, *c.SuiteID)
	}
}

func TestSaveCasesFolderSuiteNameOverride(t *testing.T) {
	store := newFakeCaseStore()
	store.suites[20] = suiteOf(20, models.SuiteTypeFolder)
	svc := NewGenerationService(store, &fakeCompleter{}, testLogger())

	params := testParams()
	params.SuiteName = "自定义用例集"

	_, err := svc.SaveCases(context.Background(), []casegen.CaseRecord{record("A")}, 20, params)
	require.NoError(t, err)

	require.Len(t, store.createdSuites, 1)
	assert.Equal(t, "自定义用例集", store.createdSuites[0].SuiteName)
}

func TestSaveCasesSuiteFetchFailureDegrades(t *testing.T) {
	store := newFakeCaseStore()
	store.getSuiteErr = errors.New("connection refused")
	svc := NewGenerationService(store, &fakeCompleter{}, testLogger())

	result, err := svc.SaveCases(context.Background(), []casegen.CaseRecord{record("A")}, 30, testParams())
	require.NoError(t, err)

	// 降级使用原始套件ID继续保存
	assert.Equal(t, uint(30), result.SuiteID)
	assert.False(t, result.SuiteCreated)
	require.Len(t, result.SavedCases, 1)
}

func TestSaveCasesCreateSuiteFailureAborts(t *testing.T) {
	store := newFakeCaseStore()
	store.suites[20] = suiteOf(20, models.SuiteTypeFolder)
	store.createSuiteErr = errors.New("disk full")
	svc := NewGenerationService(store, &fakeCompleter{}, testLogger())

	_, err := svc.SaveCases(context.Background(), []casegen.CaseRecord{record("A")}, 20, testParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "创建用例集失败")
	assert.Empty(t, store.createdCases)
}

func TestSaveCasesListFailureStartsFromZero(t *testing.T) {
	store := newFakeCaseStore()
	store.suites[10] = suiteOf(10, models.SuiteTypeSuite)
	store.listErr = errors.New("timeout")
	svc := NewGenerationService(store, &fakeCompleter{}, testLogger())

	result, err := svc.SaveCases(context.Background(), []casegen.CaseRecord{record("A")}, 10, testParams())
	require.NoError(t, err)
	require.Len(t, result.SavedCases, 1)
	assert.Equal(t, "ECO-2.1.3-LOG001", result.SavedCases[0].CaseNumber)
}

func TestSaveCasesMidBatchFailureStopsRemainder(t *testing.T) {
	store := newFakeCaseStore()
	store.suites[10] = suiteOf(10, models.SuiteTypeSuite)
	store.failAtCase = 3
	svc := NewGenerationService(store, &fakeCompleter{}, testLogger())

	records := make([]casegen.CaseRecord, 5)
	for i := range records {
		records[i] = record(fmt.Sprintf("用例%d", i+1))
	}

	result, err := svc.SaveCases(context.Background(), records, 10, testParams())
	require.Error(t, err)

	// 前2个保留，第3个失败后不再尝试后续
	require.NotNil(t, result)
	assert.Len(t, result.SavedCases, 2)
	assert.Len(t, store.createdCases, 2)
	assert.Contains(t, err.Error(), "保存第3个用例失败")
	assert.Contains(t, err.Error(), "ECO-2.1.3-LOG003")
}

func TestSaveCasesCaseNameFallbacks(t *testing.T) {
	store := newFakeCaseStore()
	store.suites[10] = suiteOf(10, models.SuiteTypeSuite)
	svc := NewGenerationService(store, &fakeCompleter{}, testLogger())

	long := make([]rune, 0, 60)
	for i := 0; i < 60; i++ {
		long = append(long, '长')
	}

	records := []casegen.CaseRecord{
		{CaseName: "有名字", ProjectID: 1},
		{CaseDescription: string(long), ProjectID: 1},
		{ProjectID: 1},
	}

	result, err := svc.SaveCases(context.Background(), records, 10, testParams())
	require.NoError(t, err)
	require.Len(t, result.SavedCases, 3)

	assert.Equal(t, "有名字", result.SavedCases[0].CaseName)
	assert.Equal(t, string(long[:50]), result.SavedCases[1].CaseName)
	assert.Equal(t, "测试用例_ECO-2.1.3-LOG003", result.SavedCases[2].CaseName)
}

func TestSaveCasesWithProgressReportsEachCase(t *testing.T) {
	store := newFakeCaseStore()
	store.suites[10] = suiteOf(10, models.SuiteTypeSuite)
	svc := NewGenerationService(store, &fakeCompleter{}, testLogger())

	records := make([]casegen.CaseRecord, 5)
	for i := range records {
		records[i] = record(fmt.Sprintf("用例%d", i+1))
	}

	var messages []string
	var progresses []int
	report := func(message string, progress int) {
		messages = append(messages, message)
		progresses = append(progresses, progress)
	}

	_, err := svc.SaveCasesWithProgress(context.Background(), records, 10, testParams(), report)
	require.NoError(t, err)

	// 每个用例保存后上报一次，进度单调上升到95
	require.Len(t, messages, 5)
	assert.Equal(t, "已保存用例 1/5", messages[0])
	assert.Equal(t, "已保存用例 5/5", messages[4])
	for i := 1; i < len(progresses); i++ {
		assert.GreaterOrEqual(t, progresses[i], progresses[i-1])
	}
	assert.Equal(t, 95, progresses[4])
}

func TestSaveCasesWithProgressStopsReportingOnFailure(t *testing.T) {
	store := newFakeCaseStore()
	store.suites[10] = suiteOf(10, models.SuiteTypeSuite)
	store.failAtCase = 3
	svc := NewGenerationService(store, &fakeCompleter{}, testLogger())

	records := make([]casegen.CaseRecord, 5)
	for i := range records {
		records[i] = record(fmt.Sprintf("用例%d", i+1))
	}

	var messages []string
	report := func(message string, progress int) {
		messages = append(messages, message)
	}

	_, err := svc.SaveCasesWithProgress(context.Background(), records, 10, testParams(), report)
	require.Error(t, err)

	// 失败前保存的2个各上报一次，失败的第3个不上报
	assert.Equal(t, []string{"已保存用例 1/5", "已保存用例 2/5"}, messages)
}

func TestGenerateHappyPath(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"test_cases": [{"case_name": "登录-成功", "priority": "P0"}]}`,
	}
	svc := NewGenerationService(newFakeCaseStore(), completer, testLogger())

	records, err := svc.Generate(context.Background(), testParams(), "需求.txt", []byte("登录需求文档"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "登录-成功", records[0].CaseName)

	// 提示词包含文档内容与需求字段
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "登录需求文档")
	assert.Contains(t, completer.prompts[0], "所属需求：Login")
}

func TestGenerateWithProgressStages(t *testing.T) {
	completer := &fakeCompleter{response: `{"test_cases": []}`}
	svc := NewGenerationService(newFakeCaseStore(), completer, testLogger())

	var messages []string
	var progresses []int
	report := func(message string, progress int) {
		messages = append(messages, message)
		progresses = append(progresses, progress)
	}

	_, err := svc.GenerateWithProgress(context.Background(), testParams(), "需求.txt", []byte("内容"), report)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"正在解析需求文档...",
		"正在构建AI提示词...",
		"正在调用AI生成用例...",
		"正在解析AI返回结果...",
	}, messages)
	assert.Equal(t, []int{10, 20, 30, 50}, progresses)
}

func TestGenerateModelErrorPropagates(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("模型调用失败[生成测试用例]: 超时")}
	svc := NewGenerationService(newFakeCaseStore(), completer, testLogger())

	_, err := svc.Generate(context.Background(), testParams(), "需求.txt", []byte("内容"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "模型调用失败")
}

func TestGenerateExtractionErrorAborts(t *testing.T) {
	completer := &fakeCompleter{response: `{"test_cases": []}`}
	svc := NewGenerationService(newFakeCaseStore(), completer, testLogger())

	_, err := svc.Generate(context.Background(), testParams(), "需求.xmind", []byte("内容"))
	require.Error(t, err)

	var unsupported *casegen.UnsupportedFormatError
	assert.True(t, errors.As(err, &unsupported))
	// 未到模型调用阶段
	assert.Empty(t, completer.prompts)
}
