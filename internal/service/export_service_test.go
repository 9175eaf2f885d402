package service

import (
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"peer-feedback/backend/internal/dto"
	"peer-feedback/backend/internal/model"
)

func TestExportSessionResponses(t *testing.T) {
	env := newTestEnv()
	env.seedTypicalCourse(t)
	env.addResponse(t, "qn2", student1, section1, student2, section1)
	env.addResponse(t, "qn2", student3, section1, student4, section1)
	svc := NewExportService(env.repo, zap.NewNop())

	buf, filename, err := svc.ExportSessionResponses(context.Background(), course1, session1, student2, model.RoleStudent, nil)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != course1+"_"+session1+"_responses.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("读取导出文件失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("回复")
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	// 标题 + 表头 + student2 可见的 1 条
	if len(rows) != 3 {
		t.Fatalf("期望 3 行，实际=%d: %v", len(rows), rows)
	}
	if rows[2][2] != dto.AnonymousGiver || rows[2][4] != "student2 In Course1" {
		t.Errorf("导出应按姓名可见性脱敏，实际=%v", rows[2])
	}
}

func TestExportSessionResponses_NoQuestions(t *testing.T) {
	env := newTestEnv()
	svc := NewExportService(env.repo, zap.NewNop())

	_, _, err := svc.ExportSessionResponses(context.Background(), course1, "Empty Session", instructor1, model.RoleInstructor, nil)
	if !errors.Is(err, ErrExportNoQuestions) {
		t.Errorf("期望 ErrExportNoQuestions，实际: %v", err)
	}
}

func TestWriteSheetHeader(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheetHeader(f, responseSheet, "c / s"); err != nil {
		t.Fatalf("写入表头失败: %v", err)
	}
	rows, err := f.GetRows(responseSheet)
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "c / s" || rows[1][0] != "题号" || rows[1][6] != "回答" {
		t.Errorf("标题或表头不符，实际=%v", rows)
	}
	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 {
		t.Error("默认 Sheet1 应被删除")
	}
}

func TestWriteSheetHeader_InvalidSheetName(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheetHeader(f, "bad:name", "title"); err == nil {
		t.Error("非法工作表名应返回错误")
	}
}
