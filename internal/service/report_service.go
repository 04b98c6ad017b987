package service

import (
	"errors"

	"github.com/Xenonn21/voitzu/internal/model"
	"github.com/Xenonn21/voitzu/internal/repository"
)

// ErrEmptyReportTitle 表示举报缺少标题。
var ErrEmptyReportTitle = errors.New("report title is required")

// ReportService 接口定义了举报反馈的业务操作。
type ReportService interface {
	Submit(userID uint, sessionID, title, description string) (*model.Report, error)
	ListOwn(userID uint) ([]model.Report, error)
}

// reportService 是 ReportService 接口的实现。
type reportService struct {
	reportRepo repository.ReportRepository
}

// NewReportService 创建一个新的 ReportService 实例。
func NewReportService(reportRepo repository.ReportRepository) ReportService {
	return &reportService{reportRepo: reportRepo}
}

// Submit 提交一条举报，只追加不修改。
func (s *reportService) Submit(userID uint, sessionID, title, description string) (*model.Report, error) {
	if title == "" {
		return nil, ErrEmptyReportTitle
	}
	report := &model.Report{
		UserID:      userID,
		SessionID:   sessionID,
		Title:       title,
		Description: description,
	}
	if err := s.reportRepo.Create(report); err != nil {
		return nil, err
	}
	return report, nil
}

// ListOwn 列出用户自己提交过的举报。
func (s *reportService) ListOwn(userID uint) ([]model.Report, error) {
	return s.reportRepo.FindByUserID(userID)
}
