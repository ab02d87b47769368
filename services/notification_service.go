package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ordengo/floor-api/hub"
	"github.com/ordengo/floor-api/models"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

// NotificationService creates, deduplicates and resolves service calls and
// mirrors them onto table status.
type NotificationService struct {
	DB   *gorm.DB
	Push PushEnqueuer
}

func NewNotificationService(db *gorm.DB, push PushEnqueuer) *NotificationService {
	return &NotificationService{DB: db, Push: push}
}

// resolveTableRef turns the client-supplied table reference into a table
// row. Tablets may send either the sequential id ("7") or the stable UUID;
// the format is decided once here and nowhere else.
func (ns *NotificationService) resolveTableRef(restaurantID uint, ref string) (*models.Table, error) {
	query := ns.DB.Where("restaurant_id = ?", restaurantID)
	if isDigits(ref) {
		query = query.Where("id = ?", ref)
	} else {
		query = query.Where("uuid = ?", ref)
	}

	var table models.Table
	if err := query.First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("table '%s' not found", ref)
		}
		return nil, err
	}
	return &table, nil
}

func isDigits(s string) bool {
	if s == "" || strings.Contains(s, "-") {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Create raises a service call for a table. A second identical call while
// the first is still pending returns the pending row unchanged: no
// duplicate storage, no duplicate push.
func (ns *NotificationService) Create(restaurantID uint, tableRef, notifType string, paymentMethod *string) (*models.Notification, error) {
	if notifType != models.NotificationCallWaiter && notifType != models.NotificationRequestBill {
		return nil, utils.Validationf("unknown notification type '%s'", notifType)
	}

	table, err := ns.resolveTableRef(restaurantID, tableRef)
	if err != nil {
		return nil, err
	}

	if existing, err := ns.findPending(restaurantID, table.ID, notifType); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	notification := models.Notification{
		RestaurantID:  restaurantID,
		TableID:       table.ID,
		Type:          notifType,
		Status:        models.NotificationStatusPending,
		PaymentMethod: paymentMethod,
	}

	var tableChanged bool
	err = ns.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&notification).Error; err != nil {
			return err
		}

		switch notifType {
		case models.NotificationRequestBill:
			tableChanged = applyRequestBill(table)
		case models.NotificationCallWaiter:
			tableChanged = applyCallWaiter(table)
		}
		if tableChanged {
			return tx.Model(&models.Table{}).
				Where("id = ?", table.ID).
				Update("status", table.Status).Error
		}
		return nil
	})
	if err != nil {
		// The unique index on (table, type, pending) is the backstop for
		// two concurrent identical calls; the loser adopts the winner's row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, ferr := ns.findPending(restaurantID, table.ID, notifType); ferr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	ns.dispatchPush(restaurantID, table, notifType)

	notification.Table = *table
	hub.Publish(hub.TenantChannel(restaurantID), hub.Message{
		Event: hub.EventNewNotification,
		Data:  notification,
	})
	if tableChanged {
		msg := hub.Message{Event: hub.EventTableUpdated, Data: table}
		hub.Publish(hub.TenantChannel(restaurantID), msg)
		hub.Publish(hub.TableChannel(table.ID), msg)
	}

	utils.InfoLogger.Printf("Notification %d (%s) created for table %d", notification.ID, notifType, table.ID)
	return &notification, nil
}

// Resolve marks a service call answered and reverts the table's visual
// state. Both entities come back so callers can broadcast a joint update.
func (ns *NotificationService) Resolve(restaurantID, notificationID uint) (*models.Notification, *models.Table, error) {
	var notification models.Notification
	if err := ns.DB.Where("id = ? AND restaurant_id = ?", notificationID, restaurantID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.NotFoundf("notification %d not found", notificationID)
		}
		return nil, nil, err
	}
	if notification.Status == models.NotificationStatusResolved {
		return nil, nil, utils.Conflictf("notification %d is already resolved", notificationID)
	}

	var table models.Table
	if err := ns.DB.First(&table, notification.TableID).Error; err != nil {
		return nil, nil, err
	}

	now := time.Now()
	var tableChanged bool
	err := ns.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Notification{}).
			Where("id = ?", notification.ID).
			Updates(map[string]interface{}{
				"status":      models.NotificationStatusResolved,
				"resolved_at": now,
			}).Error; err != nil {
			return err
		}

		tableChanged = revertAfterResolve(&table)
		if tableChanged {
			return tx.Model(&models.Table{}).
				Where("id = ?", table.ID).
				Update("status", table.Status).Error
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	notification.Status = models.NotificationStatusResolved
	notification.ResolvedAt = &now

	hub.Publish(hub.TenantChannel(restaurantID), hub.Message{
		Event: hub.EventNotificationResolved,
		Data:  map[string]interface{}{"id": notification.ID},
	})
	if tableChanged {
		msg := hub.Message{Event: hub.EventTableUpdated, Data: table}
		hub.Publish(hub.TenantChannel(restaurantID), msg)
		hub.Publish(hub.TableChannel(table.ID), msg)
	}

	utils.InfoLogger.Printf("Notification %d resolved, table %d now %s", notification.ID, table.ID, table.Status)
	return &notification, &table, nil
}

// ListPending feeds the waiter panel, oldest call first.
func (ns *NotificationService) ListPending(restaurantID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := ns.DB.Preload("Table").
		Where("restaurant_id = ? AND status = ?", restaurantID, models.NotificationStatusPending).
		Order("created_at asc").
		Find(&notifications).Error
	return notifications, err
}

func (ns *NotificationService) findPending(restaurantID, tableID uint, notifType string) (*models.Notification, error) {
	var existing models.Notification
	err := ns.DB.Where("restaurant_id = ? AND table_id = ? AND type = ? AND status = ?",
		restaurantID, tableID, notifType, models.NotificationStatusPending).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

func (ns *NotificationService) dispatchPush(restaurantID uint, table *models.Table, notifType string) {
	if ns.Push == nil {
		return
	}

	body := "Calling the waiter"
	if notifType == models.NotificationRequestBill {
		body = "Asked for the bill"
		if table.HasActiveSession() {
			var session models.TableSession
			if err := ns.DB.First(&session, *table.CurrentSessionID).Error; err == nil {
				body = fmt.Sprintf("Asked for the bill (%s)", utils.FormatCurrency(session.TotalAmount))
			}
		}
	}

	ns.Push.Enqueue(PushJob{
		RestaurantID: restaurantID,
		Payload: PushPayload{
			Title: fmt.Sprintf("Table %s", table.Number),
			Body:  body,
			URL:   "/waiter/tables",
		},
	})
}
