package casegen

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// 宽容解析只做两步有界修复：剥离代码围栏、去掉闭合符号前的多余逗号。
// 不做开放式的"任意修复"，保证失败模式可预期。
var trailingCommaPattern = regexp.MustCompile(`,\s*([\]\}])`)

// 默认填充文本
const (
	defaultPreconditions = "1. 系统正常运行\n2. 网络连接正常"
	defaultSteps         = "1. 打开相关页面\n2. 按照操作流程执行\n3. 验证执行结果"
	defaultExpected      = "系统按照预期执行，无异常报错"
	defaultTestData      = "无特殊测试数据"
)

// rawCase 模型输出中的单个用例。每个字段都可能缺失或类型不定，
// 全部按interface{}接收，非字符串值按缺失处理走默认值表，
// 避免单个字段类型错误导致整批解析失败。
type rawCase struct {
	CaseName        interface{} `json:"case_name"`
	Priority        interface{} `json:"priority"`
	Status          interface{} `json:"status"`
	Preconditions   interface{} `json:"preconditions"`
	Steps           interface{} `json:"steps"`
	ExpectedResult  interface{} `json:"expected_result"`
	ActualResult    interface{} `json:"actual_result"`
	TestData        interface{} `json:"test_data"`
	CaseDescription interface{} `json:"case_description"`
	Description     interface{} `json:"description"`
}

type rawResponse struct {
	TestCases []rawCase `json:"test_cases"`
}

// Normalize 从模型原始输出中恢复JSON并规范化为用例记录列表。
// 校验策略是填默认值而不是拒绝，任何用例都不会因字段缺失被丢弃；
// 输出顺序与模型输出顺序一致，该顺序决定后续编号顺序。
func Normalize(raw string, meta BatchMeta) ([]CaseRecord, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return nil, ErrEmptyModelResponse
	}

	// 剥离markdown代码围栏
	if strings.HasPrefix(content, "```json") {
		content = content[len("```json"):]
	}
	if strings.HasSuffix(content, "```") {
		content = content[:len(content)-3]
	}
	content = strings.TrimSpace(content)

	var parsed rawResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		// 一次修复：移除闭合符号前的多余逗号后重试
		repaired := trailingCommaPattern.ReplaceAllString(content, "$1")
		if repairErr := json.Unmarshal([]byte(repaired), &parsed); repairErr != nil {
			return nil, &ResponseParseError{Err: err}
		}
	}

	records := make([]CaseRecord, 0, len(parsed.TestCases))
	for i, item := range parsed.TestCases {
		records = append(records, normalizeCase(item, i+1, meta))
	}

	return records, nil
}

// normalizeCase 按字段默认值表规范化单个用例，index为批次内1起始序号
func normalizeCase(item rawCase, index int, meta BatchMeta) CaseRecord {
	caseName := asString(item.CaseName)
	if caseName == "" {
		caseName = fmt.Sprintf("测试用例_%d", index)
	}

	priority := asString(item.Priority)
	if !containsString(ValidPriorities, priority) {
		priority = "P1"
	}

	status := asString(item.Status)
	if !containsString(ValidStatuses, status) {
		status = ""
	}

	preconditions := asString(item.Preconditions)
	if preconditions == "" {
		preconditions = defaultPreconditions
	}

	steps := joinSteps(item.Steps)
	if steps == "" {
		steps = defaultSteps
	}

	expected := asString(item.ExpectedResult)
	if expected == "" {
		expected = defaultExpected
	}

	testData := asString(item.TestData)
	if testData == "" {
		testData = defaultTestData
	}

	description := asString(item.CaseDescription)
	if description == "" {
		description = asString(item.Description)
	}
	if description == "" {
		description = fmt.Sprintf("%s - 自动生成的功能测试用例", caseName)
	}

	return CaseRecord{
		CaseName:             caseName,
		Priority:             priority,
		Status:               status,
		Preconditions:        preconditions,
		Steps:                steps,
		ExpectedResult:       expected,
		ActualResult:         asString(item.ActualResult),
		TestData:             testData,
		CaseDescription:      description,
		ProjectID:            meta.ProjectID,
		IterationID:          meta.IterationID,
		VersionRequirementID: meta.RequirementID,
	}
}

// asString 字符串原样返回，其他类型按缺失处理，由默认值表兜底
func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// joinSteps 步骤可能是字符串或字符串数组，数组用换行拼接
func joinSteps(steps interface{}) string {
	switch v := steps.(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
