package export

import (
	"fmt"
	"net/http"
	"time"

	"coursebook/internal/api"
	"coursebook/internal/auth"
	"coursebook/internal/booking"
	"coursebook/internal/customer"
	"coursebook/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	bookingRepo  booking.Repository
	customerRepo customer.Repository
}

func NewHandler(bookingRepo booking.Repository, customerRepo customer.Repository) *Handler {
	return &Handler{bookingRepo: bookingRepo, customerRepo: customerRepo}
}

// Bookings godoc
// @Summary      Export bookings as xlsx
// @Tags         exports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    file
// @Failure      401  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /tenant/exports/bookings [get]
func (h *Handler) Bookings(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing tenant context"})
		return
	}

	bookings, err := h.bookingRepo.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load bookings"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Booking ID", "Course", "Session Start", "Session End", "Customer", "Email", "Status", "Total (£)", "Deposit (£)", "Booked At"}
	for i, hd := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hd)
	}

	for row, b := range bookings {
		deposit := ""
		if b.DepositAmountPence != nil {
			deposit = poundsFromPence(*b.DepositAmountPence)
		}
		values := []interface{}{
			b.ID,
			b.CourseTitle,
			b.SessionStart.Format(time.RFC3339),
			b.SessionEnd.Format(time.RFC3339),
			b.CustomerName,
			b.CustomerEmail,
			string(b.Status),
			poundsFromPence(b.TotalAmountPence),
			deposit,
			b.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	writeWorkbook(c, f, fmt.Sprintf("bookings-%s.xlsx", time.Now().Format("2006-01-02")))
}

// Customers godoc
// @Summary      Export customers as xlsx
// @Tags         exports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    file
// @Failure      401  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /tenant/exports/customers [get]
func (h *Handler) Customers(c *gin.Context) {
	tenantID, ok := auth.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing tenant context"})
		return
	}

	customers, err := h.customerRepo.List(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load customers"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Customer ID", "Name", "Email", "Phone", "Created At"}
	for i, hd := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hd)
	}

	for row, cust := range customers {
		values := []interface{}{
			cust.ID,
			cust.Name,
			cust.Email,
			cust.Phone,
			cust.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	writeWorkbook(c, f, fmt.Sprintf("customers-%s.xlsx", time.Now().Format("2006-01-02")))
}

func writeWorkbook(c *gin.Context, f *excelize.File, filename string) {
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(c.Writer); err != nil {
		logger.Errorf("Failed to stream workbook %s: %v", filename, err)
	}
}

func poundsFromPence(pence int64) string {
	return fmt.Sprintf("%d.%02d", pence/100, pence%100)
}
