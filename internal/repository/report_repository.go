package repository

import (
	"gorm.io/gorm"

	"github.com/Xenonn21/voitzu/internal/model"
)

// ReportRepository 接口定义了举报记录的数据持久化操作。
type ReportRepository interface {
	Create(report *model.Report) error
	FindByUserID(userID uint) ([]model.Report, error)
	ListAll(offset, limit int) ([]model.Report, int64, error)
}

// reportRepository 是 ReportRepository 接口的 GORM 实现。
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建一个新的 ReportRepository 实例。
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Create 追加一条举报记录。
func (r *reportRepository) Create(report *model.Report) error {
	return r.db.Create(report).Error
}

// FindByUserID 查找用户自己提交的举报。
func (r *reportRepository) FindByUserID(userID uint) ([]model.Report, error) {
	var reports []model.Report
	err := r.db.Where("user_id = ?", userID).Order("id desc").Find(&reports).Error
	return reports, err
}

// ListAll 分页列出全部举报，供管理端使用。
func (r *reportRepository) ListAll(offset, limit int) ([]model.Report, int64, error) {
	var reports []model.Report
	var total int64
	if err := r.db.Model(&model.Report{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("id desc").Offset(offset).Limit(limit).Find(&reports).Error
	return reports, total, err
}
