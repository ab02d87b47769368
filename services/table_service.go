package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ordengo/floor-api/hub"
	"github.com/ordengo/floor-api/models"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

// Table status transitions driven by guest actions. These mutate the struct
// only; persisting inside the caller's transaction is the caller's job.

// applyCallWaiter arms the calling state. A table already closing keeps
// closing: a bill request outranks a waiter call visually.
func applyCallWaiter(table *models.Table) bool {
	if table.Status != models.TableStatusOccupied {
		return false
	}
	table.Status = models.TableStatusCalling
	return true
}

// applyRequestBill arms the closing state from occupied or calling.
func applyRequestBill(table *models.Table) bool {
	if !table.HasActiveSession() {
		return false
	}
	if table.Status != models.TableStatusOccupied && table.Status != models.TableStatusCalling {
		return false
	}
	table.Status = models.TableStatusClosing
	return true
}

// revertAfterResolve returns the table to its base state once a pending
// call is answered: occupied while a session is still active, free otherwise.
func revertAfterResolve(table *models.Table) bool {
	if table.Status != models.TableStatusCalling && table.Status != models.TableStatusClosing {
		return false
	}
	if table.HasActiveSession() {
		table.Status = models.TableStatusOccupied
	} else {
		table.Status = models.TableStatusFree
	}
	return true
}

// TableService owns table records and the manual overrides staff can apply.
type TableService struct {
	DB *gorm.DB
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{DB: db}
}

// CreateTable registers a physical table and mints its QR token.
func (ts *TableService) CreateTable(restaurantID uint, number string) (*models.Table, error) {
	if number == "" {
		return nil, utils.Validationf("table number is required")
	}

	var count int64
	ts.DB.Model(&models.Table{}).
		Where("restaurant_id = ? AND number = ?", restaurantID, number).
		Count(&count)
	if count > 0 {
		return nil, utils.Conflictf("table '%s' already exists", number)
	}

	tokenBytes := make([]byte, 8)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, err
	}

	table := models.Table{
		UUID:         uuid.NewString(),
		RestaurantID: restaurantID,
		Number:       number,
		Status:       models.TableStatusFree,
		QRCodeToken:  hex.EncodeToString(tokenBytes),
	}
	if err := ts.DB.Create(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// ListTables returns the restaurant floor with active sessions preloaded.
func (ts *TableService) ListTables(restaurantID uint) ([]models.Table, error) {
	var tables []models.Table
	err := ts.DB.Preload("ActiveSession").
		Where("restaurant_id = ?", restaurantID).
		Order("number asc").
		Find(&tables).Error
	return tables, err
}

// GetByToken resolves a table from its QR token (tablet boot path).
func (ts *TableService) GetByToken(token string) (*models.Table, error) {
	var table models.Table
	if err := ts.DB.Preload("ActiveSession").Where("qr_code_token = ?", token).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("invalid QR code")
		}
		return nil, err
	}
	return &table, nil
}

// OverrideStatus is the staff recovery hatch. Only free and reserved can be
// forced; the remaining statuses are owned by sessions and notifications.
// Forcing free clears the session pointer and resolves any pending
// notifications so no orphaned alert survives.
func (ts *TableService) OverrideStatus(restaurantID, tableID uint, status string) (*models.Table, error) {
	if status != models.TableStatusFree && status != models.TableStatusReserved {
		return nil, utils.Validationf("status '%s' cannot be set manually", status)
	}

	var table models.Table
	if err := ts.DB.Where("id = ? AND restaurant_id = ?", tableID, restaurantID).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("table %d not found", tableID)
		}
		return nil, err
	}

	if status == models.TableStatusReserved && table.HasActiveSession() {
		return nil, utils.Conflictf("table %d has an open session", tableID)
	}

	now := time.Now()
	err := ts.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": status}
		if status == models.TableStatusFree {
			updates["current_session_id"] = nil
		}
		if err := tx.Model(&models.Table{}).Where("id = ?", table.ID).Updates(updates).Error; err != nil {
			return err
		}
		if status == models.TableStatusFree {
			return tx.Model(&models.Notification{}).
				Where("table_id = ? AND status = ?", table.ID, models.NotificationStatusPending).
				Updates(map[string]interface{}{
					"status":      models.NotificationStatusResolved,
					"resolved_at": now,
				}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	table.Status = status
	if status == models.TableStatusFree {
		table.CurrentSessionID = nil
	}

	hub.Publish(hub.TenantChannel(restaurantID), hub.Message{
		Event: hub.EventTableUpdated,
		Data:  table,
	})
	hub.Publish(hub.TableChannel(table.ID), hub.Message{
		Event: hub.EventTableUpdated,
		Data:  table,
	})

	utils.InfoLogger.Printf("Table %d status overridden to %s", table.ID, status)
	return &table, nil
}

// DeleteTable removes a table that has no open session.
func (ts *TableService) DeleteTable(restaurantID, tableID uint) error {
	var table models.Table
	if err := ts.DB.Where("id = ? AND restaurant_id = ?", tableID, restaurantID).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundf("table %d not found", tableID)
		}
		return err
	}
	if table.HasActiveSession() {
		return utils.Conflictf("table %d has an open session", tableID)
	}
	return ts.DB.Delete(&table).Error
}
