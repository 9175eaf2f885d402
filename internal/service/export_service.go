package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"peer-feedback/backend/internal/model"
	"peer-feedback/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoQuestions  = errors.New("该会话暂无题目")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出查看者在会话中可见的全部回复，可见性与姓名脱敏规则与在线查看一致
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel 格式：单个 Sheet，每条回复一行，按题号排列
type ExportService interface {
	// ExportSessionResponses 导出会话回复为 Excel
	ExportSessionResponses(ctx context.Context, courseID, sessionName, viewer string,
		role model.UserRole, section *string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportSessionResponses 导出会话回复为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：课程 / 会话
//   - 列：题号 | 题目 | 提交者 | 提交者分区 | 接收者 | 接收者分区 | 回答
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportSessionResponses(ctx context.Context, courseID, sessionName, viewer string,
	role model.UserRole, section *string) (*bytes.Buffer, string, error) {
	mustBeViewerRole(role)

	// 1. 查询题目
	questions, err := s.repo.FeedbackQuestion.ListBySession(ctx, courseID, sessionName)
	if err != nil {
		s.logger.Error("查询会话题目失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}
	if len(questions) == 0 {
		return nil, "", ErrExportNoQuestions
	}

	// 2. 名册快照（整个导出共用）
	roster, err := LoadCourseRoster(ctx, s.repo, courseID)
	if err != nil {
		s.logger.Error("加载课程名册失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheetHeader(f, responseSheet, fmt.Sprintf("%s / %s", courseID, sessionName)); err != nil {
		s.logger.Error("初始化 Excel 工作表失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	// 数据行
	row := 3
	for i := range questions {
		q := &questions[i]
		responses, err := s.repo.FeedbackResponse.ListByQuestion(ctx, q.FeedbackQuestionID)
		if err != nil {
			s.logger.Error("查询题目回复失败", zap.String("question_id", q.FeedbackQuestionID), zap.Error(err))
			return nil, "", err
		}
		for _, r := range filterViewable(q, responses, viewer, role, section, roster) {
			v := toResponseView(q, &r, viewer, role, roster)
			values := []interface{}{
				q.QuestionNumber, q.QuestionText,
				v.GiverName, v.GiverSection, v.RecipientName, v.RecipientSection, v.Answer,
			}
			if err := f.SetSheetRow(responseSheet, cell("A", row), &values); err != nil {
				s.logger.Error("写入回复行失败", zap.Int("row", row), zap.Error(err))
				return nil, "", ErrExportGenerateFail
			}
			row++
		}
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("%s_%s_responses.xlsx", courseID, sessionName)
	return buf, filename, nil
}

// ── 辅助函数 ──

const responseSheet = "回复"

var responseHeaders = []interface{}{"题号", "题目", "提交者", "提交者分区", "接收者", "接收者分区", "回答"}

// writeSheetHeader 建表并写入合并标题行（第 1 行）与表头（第 2 行）
func writeSheetHeader(f *excelize.File, sheet, title string) error {
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("创建工作表 %q: %w", sheet, err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	widths := []struct {
		from, to string
		width    float64
	}{
		{"A", "A", 8}, {"B", "B", 36}, {"C", "F", 22}, {"G", "G", 48},
	}
	for _, w := range widths {
		if err := f.SetColWidth(sheet, w.from, w.to, w.width); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("创建表头样式: %w", err)
	}

	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "G1"); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A2", &responseHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", headerStyle); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A2", "G2", headerStyle)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
