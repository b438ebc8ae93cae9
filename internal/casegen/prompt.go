package casegen

import "strings"

// 提示词模板，{fieldName} 为替换占位符
var promptTemplates = map[string]string{
	// 基础测试用例生成
	"basic": `# 测试用例生成

## 需求
所属项目：{projectName}
所属迭代：{iterationName}
所属需求：{requirementName}
需求描述：{requirementDesc}
需求文档：{documentContent}

## 要求
1. 分析需求，使用等价类划分、边界值分析、场景法、因果图、错误推断法等方法设计用例，尽可能生成有效的测试用例，覆盖正常、边界、异常和反向等场景
2. 每个用例包含：
   - case_name：测试场景
   - priority：P0-P4
   - preconditions：前置条件（换行分隔）
   - steps：测试步骤
   - expected_result：预期结果
   - test_data：测试数据

3. 输出严格JSON格式，仅test_cases数组
4. 不添加额外内容
5. 覆盖范围：具体根据需求和测试目标决策（如功能、性能、兼容、安全、稳定性、交叉冲突、边界场景、异常场景、正/逆向场景等等）

## 示例
{
  "test_cases": [
    {
      "case_name": "登录-正确账号密码",
      "priority": "P0",
      "preconditions": "1. 系统正常\n2. 用户已注册",
      "steps": [
        "1. 打开登录页",
        "2. 输入user/pass",
        "3. 点击登录"
      ],
      "expected_result": "成功登录跳首页",
      "actual_result": "",
      "status": "",
      "test_data": "user: test, pass: Test123"
    }
  ]
}`,

	// 功能测试专用提示词
	"functional": `# 功能测试用例生成

## 需求
所属项目：{projectName}
所属迭代：{iterationName}
所属需求：{requirementName}
需求描述：{requirementDesc}
需求文档：{documentContent}

## 生成要求
1. 分析需求，使用等价类划分、边界值分析、场景法、因果图、错误推断法等方法设计用例，尽可能生成有效的测试用例，覆盖正常、边界、异常和反向等场景
2. 每个用例包含：
   - case_name：清晰测试场景
   - priority：P0-P4（必填）
   - status：''、'pass'、'fail'、'blocked'、'not_applicable'（默认''）
   - preconditions：前置条件（换行分隔）
   - steps：测试步骤（换行分隔）
   - expected_result：预期结果
   - test_data：测试数据
   - case_description：用例描述

3. 输出严格JSON格式，仅包含test_cases数组，无其他内容
4. 所有必填字段必须有值
5. 不要输出数据库自动生成字段（id、created_at等）
6、覆盖范围：具体根据需求和测试目标决策

## 示例
{
  "test_cases": [
    {
      "case_name": "登录-正确账号密码",
      "priority": "P0",
      "status": "",
      "preconditions": "1. 系统正常\n2. 用户已注册",
      "steps": "1. 打开登录页\n2. 输入user/pass\n3. 点击登录",
      "expected_result": "成功登录跳首页",
      "actual_result": "",
      "test_data": "user: test, pass: Test123",
      "case_description": "验证核心登录流程"
    }
  ]
}`,
}

// SystemPrompt 随每次补全请求发送的系统角色设定
const SystemPrompt = "你是一位专业的测试用例生成专家，擅长根据需求文档生成高质量、全面的测试用例。" +
	"请严格按照要求的JSON格式输出，不要添加任何额外的解释或说明。"

// BuildPrompt 渲染指定模板，未知模板回退到basic。
// 每个字段在整个模板中只替换一次，不递归扫描；
// 模板中没有对应字段的占位符原样保留。
func BuildPrompt(templateKey string, fields map[string]string) string {
	template, ok := promptTemplates[templateKey]
	if !ok {
		template = promptTemplates["basic"]
	}

	for key, value := range fields {
		template = strings.ReplaceAll(template, "{"+key+"}", value)
	}

	return template
}
