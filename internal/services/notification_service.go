// internal/services/notification_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/alucqrd/license-for-all-smart-contract/internal/config"
	"github.com/alucqrd/license-for-all-smart-contract/internal/models"
	"github.com/alucqrd/license-for-all-smart-contract/internal/registry"
	"github.com/alucqrd/license-for-all-smart-contract/internal/utils"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService writes in-app notifications for the participants a
// registry event concerns. Delivery is best effort: a failed notification is
// logged and dropped, never allowed to fail the operation that produced it.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

func NewNotificationService(db *gorm.DB, cfg *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: cfg,
	}
}

// NotifyRegistryEvent fans a committed registry event out to the addresses
// it concerns. Pause, upgrade and admin events are journal-only.
func (s *NotificationService) NotifyRegistryEvent(event registry.Event) {
	switch e := event.(type) {
	case registry.LicenseCreatedEvent:
		s.notify(utils.NormalizeAddress(e.Owner), "license_created",
			"License issued",
			fmt.Sprintf("License #%d (type #%d) was issued to you", e.LicenseID, e.TypeID),
			models.JSONB{"license_id": e.LicenseID, "type_id": e.TypeID})

	case registry.TransferEvent:
		// Mints notify through LicenseCreatedEvent; a zero From is the mint's
		// synthetic transfer.
		if e.From == (common.Address{}) {
			return
		}
		s.notify(utils.NormalizeAddress(e.From), "license_sent",
			"License transferred",
			fmt.Sprintf("License #%d left your account", e.LicenseID),
			models.JSONB{"license_id": e.LicenseID, "to": utils.NormalizeAddress(e.To)})
		s.notify(utils.NormalizeAddress(e.To), "license_received",
			"License received",
			fmt.Sprintf("License #%d is now yours", e.LicenseID),
			models.JSONB{"license_id": e.LicenseID, "from": utils.NormalizeAddress(e.From)})

	case registry.ApprovalEvent:
		if e.To == (common.Address{}) {
			// Open offer, nobody specific to notify.
			return
		}
		to := utils.NormalizeAddress(e.To)
		data := models.JSONB{"license_id": e.LicenseID, "price": e.Price.String()}
		s.notify(to, "sale_approved",
			"Sale offer",
			fmt.Sprintf("License #%d is offered to you for %s", e.LicenseID, e.Price.String()),
			data)
	}
}

func (s *NotificationService) notify(recipient, notificationType, title, message string, data models.JSONB) {
	if s.db == nil {
		return
	}

	notification := &models.Notification{
		RecipientAddress: recipient,
		Type:             notificationType,
		Title:            title,
		Message:          message,
		Data:             data,
		Status:           models.NotificationStatusUnread,
	}

	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"recipient": recipient,
			"type":      notificationType,
		}).Error("Failed to create notification")
	}
}

// GetNotifications pages the notifications of one address, newest first.
func (s *NotificationService) GetNotifications(address string, params utils.PaginationParams, unreadOnly bool) ([]models.Notification, int64, error) {
	query := s.db.Model(&models.Notification{}).Where("recipient_address = ?", address)
	if unreadOnly {
		query = query.Where("status = ?", models.NotificationStatusUnread)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at"})
	query = utils.ApplyPagination(query, params)

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

func (s *NotificationService) MarkRead(address, notificationID string) error {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_address = ?", notificationID, address).
		Updates(map[string]interface{}{
			"status":  models.NotificationStatusRead,
			"read_at": &now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(address string) error {
	now := time.Now()
	return s.db.Model(&models.Notification{}).
		Where("recipient_address = ? AND status = ?", address, models.NotificationStatusUnread).
		Updates(map[string]interface{}{
			"status":  models.NotificationStatusRead,
			"read_at": &now,
		}).Error
}
