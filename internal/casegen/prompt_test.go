package casegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptSubstitution(t *testing.T) {
	fields := map[string]string{
		"projectName":     "电商平台",
		"iterationName":   "V2.1.0迭代",
		"requirementName": "购物车优化",
		"requirementDesc": "支持批量删除",
		"documentContent": "需求文档正文",
	}

	prompt := BuildPrompt("functional", fields)

	assert.Contains(t, prompt, "所属项目：电商平台")
	assert.Contains(t, prompt, "所属迭代：V2.1.0迭代")
	assert.Contains(t, prompt, "所属需求：购物车优化")
	assert.Contains(t, prompt, "需求描述：支持批量删除")
	assert.Contains(t, prompt, "需求文档：需求文档正文")

	// 所有已提供字段的占位符都被消耗
	assert.NotContains(t, prompt, "{projectName}")
	assert.NotContains(t, prompt, "{requirementName}")
	assert.NotContains(t, prompt, "{documentContent}")
}

func TestBuildPromptUnknownKeyFallsBackToBasic(t *testing.T) {
	prompt := BuildPrompt("nonexistent", map[string]string{"requirementName": "登录"})
	basic := BuildPrompt("basic", map[string]string{"requirementName": "登录"})

	assert.Equal(t, basic, prompt)
}

func TestBuildPromptEmptyValue(t *testing.T) {
	prompt := BuildPrompt("basic", map[string]string{
		"projectName":     "",
		"iterationName":   "",
		"requirementName": "仅有需求名",
		"requirementDesc": "",
		"documentContent": "",
	})

	assert.Contains(t, prompt, "所属项目：\n")
	assert.Contains(t, prompt, "所属需求：仅有需求名")
	assert.NotContains(t, prompt, "{projectName}")
}

func TestBuildPromptUnmatchedPlaceholderKeptVerbatim(t *testing.T) {
	// 未提供的字段占位符原样保留
	prompt := BuildPrompt("basic", map[string]string{"projectName": "项目A"})

	assert.Contains(t, prompt, "{requirementName}")
	assert.Contains(t, prompt, "{documentContent}")
	assert.NotContains(t, prompt, "{projectName}")
}

func TestBuildPromptJSONExampleSurvives(t *testing.T) {
	// 模板中示例JSON的花括号不是占位符，不应被破坏
	prompt := BuildPrompt("functional", map[string]string{"requirementName": "登录"})

	assert.Contains(t, prompt, `"test_cases"`)
	assert.Contains(t, prompt, `"case_name"`)
}
