package services

import (
	"testing"

	"github.com/ordengo/floor-api/models"
	"github.com/ordengo/floor-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTableMintsTokenAndUUID(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, "Cantina")

	svc := NewTableService(db)
	table, err := svc.CreateTable(restaurant.ID, "101")
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusFree, table.Status)
	assert.Len(t, table.UUID, 36)
	assert.Len(t, table.QRCodeToken, 16)

	_, err = svc.CreateTable(restaurant.ID, "101")
	requireErrorKind(t, err, utils.KindConflict)

	_, err = svc.CreateTable(restaurant.ID, "")
	requireErrorKind(t, err, utils.KindValidation)
}

func TestCreateTableSameNumberOtherTenant(t *testing.T) {
	db := setupTestDB(t)
	mine := seedRestaurant(t, db, "Mine")
	other := seedRestaurant(t, db, "Other")

	svc := NewTableService(db)
	_, err := svc.CreateTable(mine.ID, "101")
	require.NoError(t, err)
	_, err = svc.CreateTable(other.ID, "101")
	require.NoError(t, err)
}

func TestGetByToken(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, "Cantina")

	svc := NewTableService(db)
	created, err := svc.CreateTable(restaurant.ID, "101")
	require.NoError(t, err)

	got, err := svc.GetByToken(created.QRCodeToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetByToken("deadbeef")
	requireErrorKind(t, err, utils.KindNotFound)
}

func TestOverrideStatusReserve(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, "Cantina")
	table := seedTable(t, db, restaurant.ID, "101")

	svc := NewTableService(db)
	got, err := svc.OverrideStatus(restaurant.ID, table.ID, models.TableStatusReserved)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusReserved, got.Status)

	// A session in progress blocks reservation.
	openSession(t, db, restaurant.ID, table.ID)
	_, err = svc.OverrideStatus(restaurant.ID, table.ID, models.TableStatusReserved)
	requireErrorKind(t, err, utils.KindConflict)
}

func TestOverrideStatusRejectsManagedStates(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, "Cantina")
	table := seedTable(t, db, restaurant.ID, "101")

	svc := NewTableService(db)
	for _, status := range []string{
		models.TableStatusOccupied, models.TableStatusCalling,
		models.TableStatusClosing, "on_fire",
	} {
		_, err := svc.OverrideStatus(restaurant.ID, table.ID, status)
		requireErrorKind(t, err, utils.KindValidation)
	}
}

func TestOverrideToFreeClearsSessionAndAlerts(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, "Cantina")
	table := seedTable(t, db, restaurant.ID, "101")
	openSession(t, db, restaurant.ID, table.ID)

	notifications := NewNotificationService(db, &fakePush{})
	_, err := notifications.Create(restaurant.ID, table.UUID, models.NotificationCallWaiter, nil)
	require.NoError(t, err)

	svc := NewTableService(db)
	got, err := svc.OverrideStatus(restaurant.ID, table.ID, models.TableStatusFree)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusFree, got.Status)
	assert.Nil(t, got.CurrentSessionID)

	var pending int64
	db.Model(&models.Notification{}).
		Where("table_id = ? AND status = ?", table.ID, models.NotificationStatusPending).
		Count(&pending)
	assert.Equal(t, int64(0), pending)

	assertTableConsistent(t, db, table.ID)
}

func TestDeleteTable(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, "Cantina")
	table := seedTable(t, db, restaurant.ID, "101")

	svc := NewTableService(db)
	openSession(t, db, restaurant.ID, table.ID)
	err := svc.DeleteTable(restaurant.ID, table.ID)
	requireErrorKind(t, err, utils.KindConflict)

	idle := seedTable(t, db, restaurant.ID, "102")
	require.NoError(t, svc.DeleteTable(restaurant.ID, idle.ID))
	err = db.First(&models.Table{}, idle.ID).Error
	assert.Error(t, err)
}
