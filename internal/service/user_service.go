// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/Xenonn21/voitzu/internal/config"
	"github.com/Xenonn21/voitzu/internal/model"
	"github.com/Xenonn21/voitzu/internal/repository"
	"github.com/Xenonn21/voitzu/pkg/database"
	"github.com/Xenonn21/voitzu/pkg/hash"
	"github.com/Xenonn21/voitzu/pkg/log"
	"github.com/Xenonn21/voitzu/pkg/token"
)

// 业务错误，由 handler 映射为 HTTP 状态码。
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserService 接口定义了所有与用户账号相关的业务操作。
type UserService interface {
	Register(email, password, name string) (*model.User, error)
	Login(email, password string) (accessToken, refreshToken string, err error)
	OAuthLoginURL(ctx context.Context) (string, error)
	OAuthCallback(ctx context.Context, state, code string) (accessToken, refreshToken string, err error)
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
	Logout(tokenString string) error
	GetUser(id uint) (*model.User, error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
	googleConf *oauth2.Config
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager, oauthCfg config.OAuthConfig) UserService {
	conf := &oauth2.Config{
		ClientID:     oauthCfg.GoogleClientID,
		ClientSecret: oauthCfg.GoogleClientSecret,
		RedirectURL:  oauthCfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
	return &userService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		googleConf: conf,
	}
}

// Register 处理用户注册的业务逻辑。账号创建即生效，不走邮件确认。
func (s *userService) Register(email, password, name string) (*model.User, error) {
	// 1. 检查邮箱是否已被占用
	_, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = email
	}

	// 3. 创建新用户
	newUser := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
		Role:         model.RoleUser,
		Provider:     model.ProviderLocal,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		return nil, err
	}

	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(email, password string) (accessToken, refreshToken string, err error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	// 2. 验证密码。第三方登录的账号没有本地密码。
	if user.PasswordHash == "" || !hash.CheckPasswordHash(password, user.PasswordHash) {
		return "", "", ErrInvalidCredentials
	}

	// 3. 生成 access token 和 refresh token
	return s.issueTokens(user)
}

// OAuthLoginURL 生成 Google 授权页地址，state 暂存于 Redis 防止回调伪造。
func (s *userService) OAuthLoginURL(ctx context.Context) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)

	if err := database.RDB.Set(ctx, "oauth:state:"+state, "1", 10*time.Minute).Err(); err != nil {
		return "", err
	}
	return s.googleConf.AuthCodeURL(state), nil
}

// OAuthCallback 处理 Google 回调：校验 state、换取 token、拉取用户信息，
// 按邮箱查找或创建账号后签发本站 JWT。
func (s *userService) OAuthCallback(ctx context.Context, state, code string) (accessToken, refreshToken string, err error) {
	// 1. 校验并消费 state
	deleted, err := database.RDB.Del(ctx, "oauth:state:"+state).Result()
	if err != nil {
		return "", "", err
	}
	if deleted == 0 {
		return "", "", errors.New("invalid oauth state")
	}

	// 2. 用授权码换取 Google access token
	tok, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return "", "", fmt.Errorf("code exchange failed: %w", err)
	}

	// 3. 拉取用户信息
	googleUser, err := fetchGoogleUser(ctx, tok.AccessToken)
	if err != nil {
		return "", "", err
	}
	if googleUser.Email == "" {
		return "", "", errors.New("google userinfo missing email")
	}

	// 4. 按邮箱查找或创建用户
	user, err := s.userRepo.FindByEmail(googleUser.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &model.User{
			Email:    googleUser.Email,
			Name:     googleUser.Name,
			Role:     model.RoleUser,
			Provider: model.ProviderGoogle,
		}
		if user.Name == "" {
			user.Name = googleUser.Email
		}
		if err := s.userRepo.Create(user); err != nil {
			return "", "", err
		}
		log.Infof("[UserService] 通过 Google 登录创建新用户, email: %s", user.Email)
	} else if err != nil {
		return "", "", err
	}

	return s.issueTokens(user)
}

// googleUserInfo 是 Google userinfo 接口的返回结构。
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func fetchGoogleUser(ctx context.Context, accessToken string) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.googleapis.com/oauth2/v2/userinfo?access_token="+accessToken, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var info googleUserInfo
	if err := json.Unmarshal(content, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// RefreshToken 验证 refresh token 并签发新的 access token 和 refresh token。
func (s *userService) RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	// 1. 验证 refresh token 是否有效
	claims, err := s.jwtManager.VerifyToken(refreshTokenString)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	// 2. 检查用户是否存在
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return "", "", errors.New("user not found")
	}

	// 3. 签发新的 token
	return s.issueTokens(user)
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单。
func (s *userService) Logout(tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	// token 的剩余有效期作为黑名单 key 的过期时间。
	expiration := time.Until(claims.ExpiresAt.Time)
	return database.RDB.Set(context.Background(), "blacklist:"+tokenString, "true", expiration).Err()
}

// GetUser 根据 ID 获取用户。
func (s *userService) GetUser(id uint) (*model.User, error) {
	return s.userRepo.FindByID(id)
}

func (s *userService) issueTokens(user *model.User) (accessToken, refreshToken string, err error) {
	accessToken, err = s.jwtManager.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}
