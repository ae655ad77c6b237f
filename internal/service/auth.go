package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"grocollect/internal/domain"
	"grocollect/internal/dto"
	"grocollect/internal/model"
	"grocollect/internal/repository"
)

const tokenTTL = 12 * time.Hour

type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authServiceImpl struct {
	staffRepo    repository.StaffRepository
	activityRepo repository.ActivityRepository
	jwtSecret    []byte
	logger       *zap.Logger
}

func NewAuthService(
	staffRepo repository.StaffRepository,
	activityRepo repository.ActivityRepository,
	jwtSecret string,
	logger *zap.Logger,
) AuthService {
	return &authServiceImpl{
		staffRepo:    staffRepo,
		activityRepo: activityRepo,
		jwtSecret:    []byte(jwtSecret),
		logger:       logger,
	}
}

func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	staff, err := s.staffRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Unauthorized("email ou mot de passe invalide")
		}
		return nil, fmt.Errorf("find staff: %w", err)
	}
	if !staff.IsActive {
		return nil, domain.Unauthorized("compte désactivé")
	}
	if bcrypt.CompareHashAndPassword([]byte(staff.Password), []byte(req.Password)) != nil {
		return nil, domain.Unauthorized("email ou mot de passe invalide")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  staff.ID,
		"name": staff.Name,
		"role": string(staff.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	if aerr := s.activityRepo.Append(ctx, &model.ActivityLog{
		StaffID:    staff.ID,
		StaffName:  staff.Name,
		StaffRole:  string(staff.Role),
		Action:     "logged_in",
		EntityType: "auth",
		EntityID:   staff.ID,
	}); aerr != nil {
		s.logger.Warn("append activity log", zap.Error(aerr))
	}

	return &dto.LoginResponse{
		Token: signed,
		Staff: dto.StaffResponse{
			ID:    staff.ID,
			Name:  staff.Name,
			Email: staff.Email,
			Role:  string(staff.Role),
		},
	}, nil
}
