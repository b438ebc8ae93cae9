package casegen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMeta = BatchMeta{ProjectID: 1, IterationID: 2, RequirementID: 3}

func TestNormalizeBlankResponse(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t"} {
		_, err := Normalize(raw, testMeta)
		assert.ErrorIs(t, err, ErrEmptyModelResponse)
	}
}

func TestNormalizeCleanJSON(t *testing.T) {
	raw := `{"test_cases": [{"case_name": "登录-成功", "priority": "P0", "steps": "1. 登录", "expected_result": "进入首页"}]}`

	records, err := Normalize(raw, testMeta)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "登录-成功", records[0].CaseName)
	assert.Equal(t, "P0", records[0].Priority)
	assert.Equal(t, "1. 登录", records[0].Steps)
	assert.Equal(t, "进入首页", records[0].ExpectedResult)
	assert.Equal(t, uint(1), records[0].ProjectID)
	assert.Equal(t, uint(2), records[0].IterationID)
	assert.Equal(t, uint(3), records[0].VersionRequirementID)
}

func TestNormalizeStripsCodeFence(t *testing.T) {
	clean := `{"test_cases": [{"case_name": "A"}]}`
	fenced := "```json\n" + clean + "\n```"

	fromClean, err := Normalize(clean, testMeta)
	require.NoError(t, err)
	fromFenced, err := Normalize(fenced, testMeta)
	require.NoError(t, err)

	assert.Equal(t, fromClean, fromFenced)
}

func TestNormalizeRepairsTrailingCommas(t *testing.T) {
	raw := `{"test_cases": [{"case_name": "A", "priority": "P2",}, {"case_name": "B",},]}`

	records, err := Normalize(raw, testMeta)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].CaseName)
	assert.Equal(t, "P2", records[0].Priority)
	assert.Equal(t, "B", records[1].CaseName)
}

func TestNormalizeUnrepairableJSON(t *testing.T) {
	_, err := Normalize(`{"test_cases": [{"case_name": 不是JSON}]}`, testMeta)
	require.Error(t, err)

	var parseErr *ResponseParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.Contains(t, err.Error(), "JSON解析失败")
}

func TestNormalizeMissingTestCasesKey(t *testing.T) {
	records, err := Normalize(`{"result": "done"}`, testMeta)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNormalizeDefaulting(t *testing.T) {
	// 全空用例：每个字段都落到默认值
	records, err := Normalize(`{"test_cases": [{}]}`, testMeta)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "测试用例_1", r.CaseName)
	assert.Equal(t, "P1", r.Priority)
	assert.Equal(t, "", r.Status)
	assert.Equal(t, "1. 系统正常运行\n2. 网络连接正常", r.Preconditions)
	assert.Equal(t, "1. 打开相关页面\n2. 按照操作流程执行\n3. 验证执行结果", r.Steps)
	assert.Equal(t, "系统按照预期执行，无异常报错", r.ExpectedResult)
	assert.Equal(t, "无特殊测试数据", r.TestData)
	assert.Equal(t, "测试用例_1 - 自动生成的功能测试用例", r.CaseDescription)
}

func TestNormalizeInvalidEnumsFallBack(t *testing.T) {
	raw := `{"test_cases": [{"case_name": "X", "priority": "P9", "status": "unknown"}]}`

	records, err := Normalize(raw, testMeta)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "P1", records[0].Priority)
	assert.Equal(t, "", records[0].Status)
}

func TestNormalizeTypeMismatchedFieldsDefaulted(t *testing.T) {
	// 字段类型错误不导致整批失败，按缺失处理走默认值表
	raw := `{"test_cases": [
		{"case_name": "A", "priority": 3},
		{"case_name": 123, "status": 1, "preconditions": 42, "steps": 99,
		 "expected_result": null, "actual_result": false, "test_data": {"k": "v"}}
	]}`

	records, err := Normalize(raw, testMeta)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "A", records[0].CaseName)
	assert.Equal(t, "P1", records[0].Priority)

	r := records[1]
	assert.Equal(t, "测试用例_2", r.CaseName)
	assert.Equal(t, "", r.Status)
	assert.Equal(t, defaultPreconditions, r.Preconditions)
	assert.Equal(t, defaultSteps, r.Steps)
	assert.Equal(t, defaultExpected, r.ExpectedResult)
	assert.Equal(t, "", r.ActualResult)
	assert.Equal(t, defaultTestData, r.TestData)
}

func TestNormalizeStepsArrayJoined(t *testing.T) {
	raw := `{"test_cases": [{"case_name": "X", "steps": ["1. 打开页面", "2. 点击按钮", "3. 校验结果"]}]}`

	records, err := Normalize(raw, testMeta)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1. 打开页面\n2. 点击按钮\n3. 校验结果", records[0].Steps)
}

func TestNormalizeDescriptionFallbackChain(t *testing.T) {
	raw := `{"test_cases": [
		{"case_name": "A", "case_description": "首选描述", "description": "次选描述"},
		{"case_name": "B", "description": "次选描述"},
		{"case_name": "C"}
	]}`

	records, err := Normalize(raw, testMeta)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "首选描述", records[0].CaseDescription)
	assert.Equal(t, "次选描述", records[1].CaseDescription)
	assert.Equal(t, "C - 自动生成的功能测试用例", records[2].CaseDescription)
}

func TestNormalizeKeepsOrderAndAllRecords(t *testing.T) {
	raw := `{"test_cases": [{"case_name": "第一"}, {}, {"case_name": "第三"}]}`

	records, err := Normalize(raw, testMeta)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "第一", records[0].CaseName)
	assert.Equal(t, "测试用例_2", records[1].CaseName)
	assert.Equal(t, "第三", records[2].CaseName)
}
