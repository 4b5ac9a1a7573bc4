package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/repository"
	"gitlab.com/yelinaung/caja-gym/internal/service"
)

type createMovementRequest struct {
	Date             string          `json:"fecha"`
	OptionID         *int            `json:"opcion_id"`
	CategoryID       *int            `json:"categoria_id"`
	PaymentMethodID  *int            `json:"medio_pago_id"`
	Amount           decimal.Decimal `json:"monto"`
	ClientName       *string         `json:"nombre_cliente"`
	Note             *string         `json:"nota"`
	ConfirmDuplicate bool            `json:"confirmDuplicate"`
}

type createMovementResponse struct {
	Movement             *models.Movement `json:"movimiento,omitempty"`
	Created              bool             `json:"created"`
	RequiresConfirmation bool             `json:"requires_confirmation,omitempty"`
	DuplicateID          int              `json:"movimiento_duplicado_id,omitempty"`
}

func (h *handlers) createMovement(c *gin.Context) {
	var req createMovementRequest
	if !bindJSON(c, &req) {
		return
	}

	date, err := parseDate("fecha", req.Date)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.svc.Movements.Create(c.Request.Context(), service.MovementInput{
		Date:            date,
		OptionID:        req.OptionID,
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		Amount:          req.Amount,
		ClientName:      req.ClientName,
		Note:            req.Note,
	}, currentUser(c).ID, req.ConfirmDuplicate)
	if err != nil {
		writeError(c, err)
		return
	}

	switch r := res.(type) {
	case service.Created:
		c.JSON(http.StatusCreated, createMovementResponse{Movement: r.Movement, Created: true})
	case service.NeedsConfirmation:
		c.JSON(http.StatusOK, createMovementResponse{RequiresConfirmation: true, DuplicateID: r.ConflictID})
	}
}

func (h *handlers) listMovements(c *gin.Context) {
	var f repository.MovementFilter
	var err error

	if f.Date, err = queryDate(c, "fecha"); err != nil {
		writeError(c, err)
		return
	}
	if f.From, err = queryDate(c, "desde"); err != nil {
		writeError(c, err)
		return
	}
	if f.To, err = queryDate(c, "hasta"); err != nil {
		writeError(c, err)
		return
	}
	for field, dst := range map[string]*int{
		"categoria_id":  &f.CategoryID,
		"medio_pago_id": &f.PaymentMethodID,
		"usuario_id":    &f.UserID,
		"limit":         &f.Limit,
	} {
		if *dst, err = queryInt(c, field); err != nil {
			writeError(c, err)
			return
		}
	}
	f.Direction = models.Direction(c.Query("sentido"))

	movements, err := h.svc.Movements.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

func (h *handlers) getMovement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	mv, err := h.svc.Movements.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mv)
}

type updateMovementRequest struct {
	Date            *string          `json:"fecha"`
	Amount          *decimal.Decimal `json:"monto"`
	PaymentMethodID *int             `json:"medio_pago_id"`
	ClientName      *string          `json:"nombre_cliente"`
	Note            *string          `json:"nota"`
}

func (h *handlers) updateMovement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateMovementRequest
	if !bindJSON(c, &req) {
		return
	}

	patch := service.MovementPatch{
		Amount:          req.Amount,
		PaymentMethodID: req.PaymentMethodID,
		ClientName:      req.ClientName,
		Note:            req.Note,
	}
	if req.Date != nil {
		date, err := parseDate("fecha", *req.Date)
		if err != nil {
			writeError(c, err)
			return
		}
		patch.Date = &date
	}

	user := currentUser(c)
	allowed, err := h.svc.Movements.CanEdit(c.Request.Context(), id, user)
	if err != nil {
		writeError(c, err)
		return
	}
	if !allowed {
		writeError(c, apperror.New(apperror.CodeEditNotAllowed, "no podés editar este movimiento"))
		return
	}

	mv, err := h.svc.Movements.Update(c.Request.Context(), id, patch, user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mv)
}

func (h *handlers) canEditMovement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	allowed, err := h.svc.Movements.CanEdit(c.Request.Context(), id, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"puede_editar": allowed})
}

func (h *handlers) movementHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entries, err := h.svc.Movements.History(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
