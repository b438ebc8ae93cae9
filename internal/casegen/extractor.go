package casegen

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
)

// Extract 将上传的需求文档解析为纯文本，按文件后缀分发解析器。
// 没有文件时返回空字符串，不视为错误。
func Extract(filename string, data []byte) (string, error) {
	if filename == "" && len(data) == 0 {
		return "", nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return string(data), nil
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDocx(filename, data)
	default:
		return "", &UnsupportedFormatError{Filename: filename}
	}
}

// extractPDF 逐页提取PDF文本，页序保持1..N，页间用换行拼接
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("PDF解析失败: %w", err)
	}

	var sb strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("PDF解析失败: 第%d页: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// extractDocx 提取DOCX文本，逐项校验以便给出具体的失败原因
func extractDocx(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &DocumentParseError{
			Reason:   ReasonEmptyFile,
			Filename: filename,
			Stage:    "DOCX解析失败",
			Err:      fmt.Errorf("文件大小为0"),
		}
	}

	if !strings.HasSuffix(strings.ToLower(filename), ".docx") {
		return "", &DocumentParseError{
			Reason:   ReasonWrongExtension,
			Filename: filename,
			Stage:    "DOCX解析失败",
			Err:      fmt.Errorf("扩展名不是.docx: %s", filename),
		}
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &DocumentParseError{
			Reason:   ReasonCorruptBuffer,
			Filename: filename,
			Stage:    "DOCX解析失败",
			Err:      err,
		}
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch block := item.(type) {
		case *docx.Paragraph:
			sb.WriteString(block.String())
			sb.WriteString("\n")
		case *docx.Table:
			sb.WriteString(block.String())
			sb.WriteString("\n")
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", &DocumentParseError{
			Reason:   ReasonEmptyExtractedText,
			Filename: filename,
			Stage:    "DOCX解析失败",
			Err:      fmt.Errorf("未提取到文本内容"),
		}
	}

	return text, nil
}
