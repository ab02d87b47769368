package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/ordengo/floor-api/controllers"
	"github.com/ordengo/floor-api/models"
)

func setupSessionRouter(db *gorm.DB, restaurantID uint) *gin.Engine {
	router := gin.New()
	sessionCtrl := controllers.NewSessionController(db)
	staff := router.Group("/admin", asStaff(restaurantID, 1, "waiter"))
	staff.GET("/sessions/:session_id", sessionCtrl.GetSession)
	staff.POST("/sessions/:session_id/close", sessionCtrl.CloseSession)
	router.POST("/t/:token/session", sessionCtrl.StartSession)
	return router
}

func TestStartSessionFromTablet(t *testing.T) {
	db := newFloorTestDB(t)
	restaurant, table := seedFloor(t, db)
	router := setupSessionRouter(db, restaurant.ID)

	req, _ := http.NewRequest("POST", "/t/"+table.QRCodeToken+"/session", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "open", data["status"])
	firstID := data["id"]

	// A re-scan joins the same session instead of opening a second one.
	req, _ = http.NewRequest("POST", "/t/"+table.QRCodeToken+"/session", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data = response["data"].(map[string]interface{})
	assert.Equal(t, firstID, data["id"])

	var got models.Table
	assert.NoError(t, db.First(&got, table.ID).Error)
	assert.Equal(t, "occupied", got.Status)
}

func TestCloseSessionEndpoint(t *testing.T) {
	db := newFloorTestDB(t)
	restaurant, table := seedFloor(t, db)
	router := setupSessionRouter(db, restaurant.ID)

	req, _ := http.NewRequest("POST", "/t/"+table.QRCodeToken+"/session", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	sessionID := int(response["data"].(map[string]interface{})["id"].(float64))

	payload, _ := json.Marshal(map[string]string{"payment_method": "pix"})
	url := "/admin/sessions/" + strconv.Itoa(sessionID) + "/close"
	req, _ = http.NewRequest("POST", url, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "closed", data["status"])
	assert.Equal(t, "pix", data["payment_method"])

	var got models.Table
	assert.NoError(t, db.First(&got, table.ID).Error)
	assert.Equal(t, "free", got.Status)
	assert.Nil(t, got.CurrentSessionID)

	// Settling the same bill twice conflicts.
	req, _ = http.NewRequest("POST", url, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCloseSessionRequiresPaymentMethod(t *testing.T) {
	db := newFloorTestDB(t)
	restaurant, table := seedFloor(t, db)
	router := setupSessionRouter(db, restaurant.ID)

	req, _ := http.NewRequest("POST", "/t/"+table.QRCodeToken+"/session", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	sessionID := int(response["data"].(map[string]interface{})["id"].(float64))

	url := "/admin/sessions/" + strconv.Itoa(sessionID) + "/close"
	req, _ = http.NewRequest("POST", url, bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
