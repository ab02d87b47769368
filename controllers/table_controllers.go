package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ordengo/floor-api/services"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

type TableController struct {
	DB     *gorm.DB
	Tables *services.TableService
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db, Tables: services.NewTableService(db)}
}

// CreateTable -> staff registers a new physical table
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Number string `json:"number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Tables.CreateTable(tenantID(c), req.Number)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("New table created: %s (restaurant=%d)", table.Number, table.RestaurantID)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> floor overview with active sessions
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.ListTables(tenantID(c))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// ScanTable -> tablet resolves its table from the QR token
func (tc *TableController) ScanTable(c *gin.Context) {
	table, err := tc.Tables.GetByToken(c.Param("token"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// OverrideTableStatus -> staff forces a table to free or reserved
func (tc *TableController) OverrideTableStatus(c *gin.Context) {
	tableID, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondAppError(c, utils.Validationf("invalid table id"))
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Tables.OverrideStatus(tenantID(c), uint(tableID), body.Status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

// DeleteTable -> remove a table without an open session
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondAppError(c, utils.Validationf("invalid table id"))
		return
	}

	if err := tc.Tables.DeleteTable(tenantID(c), uint(tableID)); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Table %d deleted", tableID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": tableID})
}
