// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alucqrd/license-for-all-smart-contract/internal/models"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

var ErrParticipantNotFound = errors.New("participant not found")

// AdminService covers the operational surface around the registry: dashboard
// stats, participant management and the audit trail. Registry-level admin
// actions (pause, upgrade, admin handover) go through RegistryService, where
// the core enforces who may call them.
type AdminService struct {
	db              *gorm.DB
	registryService *RegistryService
}

type AdminDashboardStats struct {
	ParticipantCount  int64  `json:"participant_count"`
	LicenseTypeCount  uint64 `json:"license_type_count"`
	LicenseCount      uint64 `json:"license_count"`
	EventCount        int64  `json:"event_count"`
	PendingDeposits   int64  `json:"pending_deposits"`
	CompletedDeposits int64  `json:"completed_deposits"`
	Paused            bool   `json:"paused"`
	UpgradeTarget     string `json:"upgrade_target,omitempty"`
}

type ParticipantFilter struct {
	utils.PaginationParams
	Role   string `form:"role"`
	Status string `form:"status"`
}

func NewAdminService(db *gorm.DB, registryService *RegistryService) *AdminService {
	return &AdminService{
		db:              db,
		registryService: registryService,
	}
}

func (s *AdminService) GetDashboardStats() (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}

	if err := s.db.Model(&models.Participant{}).Count(&stats.ParticipantCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	if err := s.db.Model(&models.Event{}).Count(&stats.EventCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	if err := s.db.Model(&models.Deposit{}).Where("status = ?", models.DepositStatusPending).
		Count(&stats.PendingDeposits).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending deposits: %w", err)
	}
	if err := s.db.Model(&models.Deposit{}).Where("status = ?", models.DepositStatusCompleted).
		Count(&stats.CompletedDeposits).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed deposits: %w", err)
	}

	stats.LicenseTypeCount = s.registryService.LicenseTypeCount()
	stats.LicenseCount = s.registryService.LicenseCount()

	_, paused, upgradeTarget := s.registryService.Status()
	stats.Paused = paused
	if upgradeTarget != (common.Address{}) {
		stats.UpgradeTarget = utils.NormalizeAddress(upgradeTarget)
	}

	return stats, nil
}

func (s *AdminService) GetParticipants(filter ParticipantFilter) ([]models.Participant, int64, error) {
	query := s.db.Model(&models.Participant{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count participants: %w", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "username", "email"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var participants []models.Participant
	if err := query.Find(&participants).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch participants: %w", err)
	}

	return participants, total, nil
}

// UpdateParticipantStatus suspends or reinstates a participant's gateway
// access. Suspension gates the HTTP layer only; licenses and funds the
// participant already holds are untouched.
func (s *AdminService) UpdateParticipantStatus(participantID uuid.UUID, status models.ParticipantStatus) (*models.Participant, error) {
	var participant models.Participant
	if err := s.db.First(&participant, "id = ?", participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if participant.Role == models.RoleAdmin {
		return nil, errors.New("administrator status cannot be changed")
	}

	participant.Status = status
	if err := s.db.Save(&participant).Error; err != nil {
		return nil, fmt.Errorf("failed to update participant: %w", err)
	}

	return &participant, nil
}

func (s *AdminService) GetAuditLogs(params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	query := s.db.Model(&models.AuditLog{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "action"})
	query = utils.ApplyPagination(query, params)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}
