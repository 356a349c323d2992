// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/alucqrd/license-for-all-smart-contract/internal/config"
	"github.com/alucqrd/license-for-all-smart-contract/internal/models"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username    string                 `json:"username" validate:"required,username"`
	Email       string                 `json:"email" validate:"required,email"`
	Password    string                 `json:"password" validate:"required,strong_password"`
	ProfileData map[string]interface{} `json:"profile_data,omitempty"`
}

type AuthResponse struct {
	Participant  *models.Participant `json:"participant"`
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	TokenType    string              `json:"token_type"`
	ExpiresIn    int                 `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

// Register creates a participant and assigns them a fresh registry address.
// The address is the participant's identity everywhere below the HTTP layer;
// email and password exist only to authenticate to the gateway.
func (s *AuthService) Register(req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var existing models.Participant
	if err := s.db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error; err == nil {
		if existing.Email == req.Email {
			return nil, errors.New("participant with this email already exists")
		}
		return nil, errors.New("username already taken")
	}

	address, err := utils.GenerateAddress()
	if err != nil {
		return nil, fmt.Errorf("failed to generate address: %w", err)
	}

	participant := &models.Participant{
		Username:    req.Username,
		Email:       req.Email,
		Address:     utils.NormalizeAddress(address),
		Role:        models.RoleParticipant,
		Status:      models.ParticipantStatusActive,
		ProfileData: models.JSONB(req.ProfileData),
	}

	if err := participant.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(participant).Error; err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	// Every participant gets an account row up front so their balance reads
	// exist from the first request.
	account := &models.Account{Address: participant.Address}
	if err := s.db.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return s.issueTokens(participant)
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var participant models.Participant
	if err := s.db.Where("email = ?", req.Email).First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid email or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if participant.Status == models.ParticipantStatusSuspended {
		return nil, errors.New("account is suspended")
	}

	if err := participant.CheckPassword(req.Password); err != nil {
		return nil, errors.New("invalid email or password")
	}

	now := time.Now()
	participant.LastLoginAt = &now
	s.db.Save(&participant)

	return s.issueTokens(&participant)
}

func (s *AuthService) RefreshToken(refreshToken string) (*AuthResponse, error) {
	address, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	participant, err := s.GetProfile(address)
	if err != nil {
		return nil, err
	}
	if participant.Status == models.ParticipantStatusSuspended {
		return nil, errors.New("account is suspended")
	}

	return s.issueTokens(participant)
}

func (s *AuthService) GetProfile(address string) (*models.Participant, error) {
	var participant models.Participant
	if err := s.db.Where("address = ?", address).First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("participant not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &participant, nil
}

func (s *AuthService) issueTokens(participant *models.Participant) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(
		participant.Address,
		participant.Username,
		string(participant.Role),
		s.cfg.JWT.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(participant.Address, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		Participant:  participant,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}
