package service

import (
	"github.com/Xenonn21/voitzu/internal/model"
	"github.com/Xenonn21/voitzu/internal/repository"
)

// UserListResponse 定义了用户列表 API 的响应结构。
type UserListResponse struct {
	Content       []UserDetailResponse `json:"content"`
	TotalElements int64                `json:"totalElements"`
	TotalPages    int                  `json:"totalPages"`
	Size          int                  `json:"size"`
	Number        int                  `json:"number"`
}

// UserDetailResponse 定义了用户列表项的详细结构。
type UserDetailResponse struct {
	UserID    uint            `json:"userId"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Role      string          `json:"role"`
	Provider  string          `json:"provider"`
	CreatedAt model.LocalTime `json:"createdAt"`
}

// ReportListResponse 定义了举报列表 API 的响应结构。
type ReportListResponse struct {
	Content       []model.Report `json:"content"`
	TotalElements int64          `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`
	Size          int            `json:"size"`
	Number        int            `json:"number"`
}

// AdminService 接口定义了所有管理员相关的业务操作。
type AdminService interface {
	ListUsers(page, size int) (*UserListResponse, error)
	ListReports(page, size int) (*ReportListResponse, error)
}

// adminService 是 AdminService 接口的实现。
type adminService struct {
	userRepo   repository.UserRepository
	reportRepo repository.ReportRepository
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(userRepo repository.UserRepository, reportRepo repository.ReportRepository) AdminService {
	return &adminService{
		userRepo:   userRepo,
		reportRepo: reportRepo,
	}
}

// ListUsers 分页列出全部用户。
func (s *adminService) ListUsers(page, size int) (*UserListResponse, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}

	users, total, err := s.userRepo.ListAll(page*size, size)
	if err != nil {
		return nil, err
	}

	content := make([]UserDetailResponse, 0, len(users))
	for _, u := range users {
		content = append(content, UserDetailResponse{
			UserID:    u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      u.Role,
			Provider:  u.Provider,
			CreatedAt: model.LocalTime(u.CreatedAt),
		})
	}

	return &UserListResponse{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
		Size:          size,
		Number:        page,
	}, nil
}

// ListReports 分页列出全部举报。
func (s *adminService) ListReports(page, size int) (*ReportListResponse, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}

	reports, total, err := s.reportRepo.ListAll(page*size, size)
	if err != nil {
		return nil, err
	}

	return &ReportListResponse{
		Content:       reports,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
		Size:          size,
		Number:        page,
	}, nil
}

func totalPages(total int64, size int) int {
	pages := int(total) / size
	if int(total)%size != 0 {
		pages++
	}
	return pages
}
