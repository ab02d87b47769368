package services

import (
	"errors"
	"time"

	"github.com/ordengo/floor-api/hub"
	"github.com/ordengo/floor-api/models"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

// errSessionRace signals that a concurrent request claimed the table between
// our read and our write. The loser adopts the winner's session.
var errSessionRace = errors.New("table claimed concurrently")

// SessionService opens and closes guest sessions and keeps table state and
// telemetry in step with them.
type SessionService struct {
	DB *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{DB: db}
}

// StartSession opens a session on a free table. Calling it again while the
// table is occupied returns the existing session unchanged, so duplicate
// taps and page reloads are harmless.
func (ss *SessionService) StartSession(restaurantID, tableID uint, clientName *string) (*models.TableSession, error) {
	var table models.Table
	if err := ss.DB.Where("id = ? AND restaurant_id = ?", tableID, restaurantID).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("table %d not found", tableID)
		}
		return nil, err
	}

	if table.HasActiveSession() {
		return ss.getOpenSession(&table)
	}

	session := models.TableSession{
		RestaurantID: restaurantID,
		TableID:      table.ID,
		ClientName:   clientName,
		Status:       models.SessionStatusOpen,
		OpenedAt:     time.Now(),
		TotalAmount:  0,
	}

	err := ss.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		// Guarded write: only the request that still sees a nil session
		// pointer wins the table. The counter increments at the storage
		// layer so concurrent closes elsewhere never lose updates.
		res := tx.Model(&models.Table{}).
			Where("id = ? AND current_session_id IS NULL", table.ID).
			Updates(map[string]interface{}{
				"status":                 models.TableStatusOccupied,
				"current_session_id":     session.ID,
				"lifetime_session_count": gorm.Expr("lifetime_session_count + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errSessionRace
		}
		return nil
	})

	// Both losing shapes of the concurrent-start race land here: the guarded
	// update saw another session pointer, or the one-open-session index
	// rejected our insert. Either way the winner's session is the answer.
	if errors.Is(err, errSessionRace) || errors.Is(err, gorm.ErrDuplicatedKey) {
		var winner models.TableSession
		if ferr := ss.DB.
			Where("table_id = ? AND status = ?", table.ID, models.SessionStatusOpen).
			First(&winner).Error; ferr != nil {
			return nil, ferr
		}
		return &winner, nil
	}
	if err != nil {
		return nil, err
	}

	ss.publishTable(table.ID, restaurantID)
	utils.InfoLogger.Printf("Session %d opened on table %d", session.ID, table.ID)
	return &session, nil
}

// CloseSession settles a session in one unit of work: stamps the close,
// records the payment label, accumulates occupancy telemetry, frees the
// table and sweeps any pending notifications.
func (ss *SessionService) CloseSession(restaurantID, sessionID uint, paymentMethod string) (*models.TableSession, error) {
	var session models.TableSession
	if err := ss.DB.Where("id = ? AND restaurant_id = ?", sessionID, restaurantID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("session %d not found", sessionID)
		}
		return nil, err
	}
	if session.Status == models.SessionStatusClosed {
		return nil, utils.Conflictf("session %d is already closed", sessionID)
	}

	now := time.Now()
	elapsed := int64(now.Sub(session.OpenedAt).Seconds())

	err := ss.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TableSession{}).
			Where("id = ?", session.ID).
			Updates(map[string]interface{}{
				"status":         models.SessionStatusClosed,
				"closed_at":      now,
				"payment_method": paymentMethod,
			}).Error; err != nil {
			return err
		}

		// The table only releases if it still points at this session; a
		// manual override may have freed it already.
		if err := tx.Model(&models.Table{}).
			Where("id = ? AND current_session_id = ?", session.TableID, session.ID).
			Updates(map[string]interface{}{
				"status":                    models.TableStatusFree,
				"current_session_id":        nil,
				"lifetime_occupied_seconds": gorm.Expr("lifetime_occupied_seconds + ?", elapsed),
			}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Notification{}).
			Where("table_id = ? AND status = ?", session.TableID, models.NotificationStatusPending).
			Updates(map[string]interface{}{
				"status":      models.NotificationStatusResolved,
				"resolved_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	session.Status = models.SessionStatusClosed
	session.ClosedAt = &now
	session.PaymentMethod = &paymentMethod

	freed := hub.Message{
		Event: hub.EventTableFreed,
		Data:  map[string]interface{}{"table_id": session.TableID},
	}
	hub.Publish(hub.TenantChannel(restaurantID), freed)
	hub.Publish(hub.TableChannel(session.TableID), freed)

	utils.InfoLogger.Printf("Session %d closed (%s), table %d freed after %ds",
		session.ID, paymentMethod, session.TableID, elapsed)
	return &session, nil
}

// GetSession returns one session with its table.
func (ss *SessionService) GetSession(restaurantID, sessionID uint) (*models.TableSession, error) {
	var session models.TableSession
	if err := ss.DB.Preload("Table").
		Where("id = ? AND restaurant_id = ?", sessionID, restaurantID).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("session %d not found", sessionID)
		}
		return nil, err
	}
	return &session, nil
}

func (ss *SessionService) getOpenSession(table *models.Table) (*models.TableSession, error) {
	var session models.TableSession
	if err := ss.DB.Where("id = ?", *table.CurrentSessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (ss *SessionService) publishTable(tableID, restaurantID uint) {
	var table models.Table
	if err := ss.DB.First(&table, tableID).Error; err != nil {
		return
	}
	msg := hub.Message{Event: hub.EventTableUpdated, Data: table}
	hub.Publish(hub.TenantChannel(restaurantID), msg)
	hub.Publish(hub.TableChannel(tableID), msg)
}
