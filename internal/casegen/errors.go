package casegen

import (
	"errors"
	"fmt"
)

// UnsupportedFormatError 不支持的文件格式错误
type UnsupportedFormatError struct {
	Filename string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("不支持的文件格式：%s", e.Filename)
}

// DocumentFailReason 文档解析失败原因
type DocumentFailReason string

const (
	ReasonEmptyFile          DocumentFailReason = "empty_file"
	ReasonWrongExtension     DocumentFailReason = "wrong_extension"
	ReasonCorruptBuffer      DocumentFailReason = "corrupt_buffer"
	ReasonEmptyExtractedText DocumentFailReason = "empty_extracted_text"
)

// DocumentParseError 文档解析错误，按失败原因区分，便于前端给出具体修复提示
type DocumentParseError struct {
	Reason   DocumentFailReason
	Filename string
	Stage    string // 解析阶段前缀，如 "PDF解析失败" / "DOCX解析失败"
	Err      error
}

func (e *DocumentParseError) Error() string {
	msg := e.Stage
	if msg == "" {
		msg = "文档解析失败"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", msg, e.Filename)
}

func (e *DocumentParseError) Unwrap() error {
	return e.Err
}

// Hint 返回针对失败原因的修复建议
func (e *DocumentParseError) Hint() string {
	switch e.Reason {
	case ReasonEmptyFile:
		return "文件内容为空，请检查上传的文件"
	case ReasonWrongExtension:
		return "文件扩展名不正确，请上传 .docx 格式的文件"
	case ReasonCorruptBuffer:
		return "文件内容已损坏，请用 Word 重新另存为 .docx 后再上传"
	case ReasonEmptyExtractedText:
		return "未能从文档中提取到文本内容，请确认文档不是纯图片"
	default:
		return ""
	}
}

// ErrEmptyModelResponse 模型返回内容为空
var ErrEmptyModelResponse = errors.New("AI未返回有效结果")

// ResponseParseError 模型返回结果解析错误
type ResponseParseError struct {
	Err error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("AI返回结果JSON解析失败: %v", e.Err)
}

func (e *ResponseParseError) Unwrap() error {
	return e.Err
}
