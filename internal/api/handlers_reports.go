package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/report"
	"gitlab.com/yelinaung/caja-gym/internal/repository"
)

func (h *handlers) searchAudit(c *gin.Context) {
	var f repository.AuditFilter
	var err error

	if f.MovementID, err = queryInt(c, "movimiento_id"); err != nil {
		writeError(c, err)
		return
	}
	if f.UserID, err = queryInt(c, "usuario_id"); err != nil {
		writeError(c, err)
		return
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		writeError(c, err)
		return
	}
	if f.From, err = queryDate(c, "desde"); err != nil {
		writeError(c, err)
		return
	}
	to, err := queryDate(c, "hasta")
	if err != nil {
		writeError(c, err)
		return
	}
	if to != nil {
		// hasta is an inclusive day; the filter bound is exclusive.
		next := to.AddDate(0, 0, 1)
		f.To = &next
	}

	entries, err := h.svc.Audit.Search(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// reportRange reads desde/hasta, defaulting both to today.
func reportRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	from, err := queryDate(c, "desde")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryDate(c, "hasta")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	switch {
	case from == nil && to == nil:
		return today, today, nil
	case from == nil:
		return *to, *to, nil
	case to == nil:
		return *from, *from, nil
	}
	return *from, *to, nil
}

func (h *handlers) summary(c *gin.Context) {
	from, to, err := reportRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	s, err := h.svc.Reports.Summary(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) exportCSV(c *gin.Context) {
	from, to, err := reportRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	data, err := h.svc.Reports.MovementsCSV(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.CSVFilename(from, to)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *handlers) chart(c *gin.Context) {
	from, to, err := reportRange(c)
	if err != nil {
		writeError(c, err)
		return
	}

	dir := models.Direction(c.DefaultQuery("sentido", string(models.DirectionIncome)))
	png, err := h.svc.Reports.Chart(c.Request.Context(), from, to, dir)
	if errors.Is(err, report.ErrNoData) {
		writeError(c, apperror.New(apperror.CodeNotFound, "sin movimientos para graficar"))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", report.ChartFilename(dir, to)))
	c.Data(http.StatusOK, "image/png", png)
}
