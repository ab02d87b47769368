package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ordengo/floor-api/models"
	"github.com/ordengo/floor-api/router"
	"github.com/ordengo/floor-api/services"
	"github.com/ordengo/floor-api/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type apiResponse struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Data      json.RawMessage `json:"data"`
}

type integrationEnv struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	token  string
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.Restaurant{},
		&models.User{},
		&models.Table{},
		&models.TableSession{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Modifier{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
		&models.PushSubscription{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	restaurant := models.Restaurant{Name: "Cantina Integration"}
	if err := db.Create(&restaurant).Error; err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}

	hashed, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	admin := models.User{
		RestaurantID: restaurant.ID,
		Name:         "Test Admin",
		Email:        "admin@example.com",
		Password:     string(hashed),
		Role:         "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	burger := models.Product{RestaurantID: restaurant.ID, Name: "Burger", Price: 9.50, Available: true}
	if err := db.Create(&burger).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	dispatcher := services.NewPushDispatcher(db)
	dispatcher.Start()
	t.Cleanup(dispatcher.Stop)

	return &integrationEnv{
		t:      t,
		db:     db,
		router: router.SetupRouter(db, dispatcher),
	}
}

func (env *integrationEnv) do(method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if env.token != "" {
		req.Header.Set("Authorization", "Bearer "+env.token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	var resp apiResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func (env *integrationEnv) login() {
	env.t.Helper()
	w, resp := env.do(http.MethodPost, "/login", map[string]string{
		"email":    "admin@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		env.t.Fatalf("login failed: code=%d body=%s", w.Code, w.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil || data.Token == "" {
		env.t.Fatalf("login returned no token: %s", w.Body.String())
	}
	env.token = data.Token
}

// TestFloorEndToEnd walks one full shift of a single table:
// scan -> open session -> order -> call waiter -> resolve ->
// request bill -> close session -> table back on the floor.
func TestFloorEndToEnd(t *testing.T) {
	env := newIntegrationEnv(t)
	env.login()

	// Staff registers a table and gets its QR token back.
	w, resp := env.do(http.MethodPost, "/admin/tables", map[string]string{"number": "7"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create table: code=%d body=%s", w.Code, w.Body.String())
	}
	var table models.Table
	if err := json.Unmarshal(resp.Data, &table); err != nil {
		t.Fatalf("decode table: %v", err)
	}

	// Tablet scans the QR code.
	w, _ = env.do(http.MethodGet, "/t/"+table.QRCodeToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("scan: code=%d body=%s", w.Code, w.Body.String())
	}

	// First scan opens the session, second one re-joins it.
	w, resp = env.do(http.MethodPost, "/t/"+table.QRCodeToken+"/session", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("start session: code=%d body=%s", w.Code, w.Body.String())
	}
	var session models.TableSession
	if err := json.Unmarshal(resp.Data, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	w, resp = env.do(http.MethodPost, "/t/"+table.QRCodeToken+"/session", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("rejoin session: code=%d body=%s", w.Code, w.Body.String())
	}
	var rejoined models.TableSession
	_ = json.Unmarshal(resp.Data, &rejoined)
	if rejoined.ID != session.ID {
		t.Fatalf("second scan opened a new session: %d != %d", rejoined.ID, session.ID)
	}
	var tableRow models.Table
	env.db.First(&tableRow, table.ID)
	if tableRow.LifetimeSessionCount != 1 {
		t.Fatalf("session counter moved more than once: %d", tableRow.LifetimeSessionCount)
	}

	// The tablet tries to price its own order; the server recomputes.
	var burger models.Product
	env.db.Where("name = ?", "Burger").First(&burger)
	w, resp = env.do(http.MethodPost, "/t/"+table.QRCodeToken+"/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": burger.ID, "quantity": 2, "unit_price": 0.01},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: code=%d body=%s", w.Code, w.Body.String())
	}
	var order models.Order
	if err := json.Unmarshal(resp.Data, &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.Total != 19.00 {
		t.Fatalf("order total = %.2f, want 19.00", order.Total)
	}

	// Kitchen runs the ticket through the flow.
	for _, status := range []string{"accepted", "preparing", "ready", "delivered"} {
		w, _ = env.do(http.MethodPatch,
			fmt.Sprintf("/admin/orders/%d/status", order.ID),
			map[string]string{"status": status})
		if w.Code != http.StatusOK {
			t.Fatalf("advance to %s: code=%d body=%s", status, w.Code, w.Body.String())
		}
	}

	// Guest calls the waiter; the table lights up.
	w, resp = env.do(http.MethodPost, "/t/"+table.QRCodeToken+"/notifications",
		map[string]string{"type": "CALL_WAITER"})
	if w.Code != http.StatusCreated {
		t.Fatalf("call waiter: code=%d body=%s", w.Code, w.Body.String())
	}
	var call models.Notification
	if err := json.Unmarshal(resp.Data, &call); err != nil {
		t.Fatalf("decode notification: %v", err)
	}
	env.db.First(&tableRow, table.ID)
	if tableRow.Status != models.TableStatusCalling {
		t.Fatalf("table status = %s, want calling", tableRow.Status)
	}

	// Waiter answers; the table settles back to occupied.
	w, _ = env.do(http.MethodPatch,
		fmt.Sprintf("/admin/notifications/%d/resolve", call.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("resolve: code=%d body=%s", w.Code, w.Body.String())
	}
	env.db.First(&tableRow, table.ID)
	if tableRow.Status != models.TableStatusOccupied {
		t.Fatalf("table status = %s, want occupied", tableRow.Status)
	}

	// Guest asks for the bill.
	w, _ = env.do(http.MethodPost, "/t/"+table.QRCodeToken+"/notifications",
		map[string]string{"type": "REQUEST_BILL", "payment_method": "pix"})
	if w.Code != http.StatusCreated {
		t.Fatalf("request bill: code=%d body=%s", w.Code, w.Body.String())
	}
	env.db.First(&tableRow, table.ID)
	if tableRow.Status != models.TableStatusClosing {
		t.Fatalf("table status = %s, want closing", tableRow.Status)
	}

	// Staff settles the session and the table returns to the floor.
	w, resp = env.do(http.MethodPost,
		fmt.Sprintf("/admin/sessions/%d/close", session.ID),
		map[string]string{"payment_method": "pix"})
	if w.Code != http.StatusOK {
		t.Fatalf("close session: code=%d body=%s", w.Code, w.Body.String())
	}
	var closed models.TableSession
	_ = json.Unmarshal(resp.Data, &closed)
	if closed.Status != models.SessionStatusClosed {
		t.Fatalf("session status = %s, want closed", closed.Status)
	}
	if closed.TotalAmount != 19.00 {
		t.Fatalf("session total = %.2f, want 19.00", closed.TotalAmount)
	}

	env.db.First(&tableRow, table.ID)
	if tableRow.Status != models.TableStatusFree {
		t.Fatalf("table status = %s, want free", tableRow.Status)
	}
	if tableRow.CurrentSessionID != nil {
		t.Fatalf("table still points at session %d", *tableRow.CurrentSessionID)
	}

	var pending int64
	env.db.Model(&models.Notification{}).
		Where("table_id = ? AND status = ?", table.ID, models.NotificationStatusPending).
		Count(&pending)
	if pending != 0 {
		t.Fatalf("%d pending notifications survived the session", pending)
	}
}

// TestStaffRoutesRequireToken guards the auth boundary: staff routes reject
// anonymous requests, tablet routes never need one.
func TestStaffRoutesRequireToken(t *testing.T) {
	env := newIntegrationEnv(t)

	w, _ := env.do(http.MethodGet, "/admin/tables", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous staff request: code=%d, want 401", w.Code)
	}

	env.login()
	w, resp := env.do(http.MethodPost, "/admin/tables", map[string]string{"number": "1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create table: code=%d body=%s", w.Code, w.Body.String())
	}
	var table models.Table
	if err := json.Unmarshal(resp.Data, &table); err != nil {
		t.Fatalf("decode table: %v", err)
	}

	env.token = ""
	w, _ = env.do(http.MethodGet, "/t/"+table.QRCodeToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("tablet scan without token: code=%d body=%s", w.Code, w.Body.String())
	}
}

func TestGeneralRateLimiterEngages(t *testing.T) {
	env := newIntegrationEnv(t)

	// The per-IP window holds 50 hits per second, so a tight burst from one
	// client must trip a 429 before request 60.
	for i := 0; i < 60; i++ {
		w, _ := env.do(http.MethodGet, "/ping", nil)
		if w.Code == http.StatusTooManyRequests {
			return
		}
	}
	t.Fatal("burst of 60 requests was never rate limited")
}
