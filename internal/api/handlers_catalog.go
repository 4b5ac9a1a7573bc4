package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/service"
)

type categoryRequest struct {
	Name      *string           `json:"nombre"`
	Direction *models.Direction `json:"sentido"`
	IsPlan    *bool             `json:"es_plan"`
}

func (h *handlers) listCategories(c *gin.Context) {
	cats, err := h.svc.Catalog.ListCategories(c.Request.Context(), queryBool(c, "activas"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *handlers) getCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cat, err := h.svc.Catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *handlers) createCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}

	in := service.CategoryInput{}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Direction != nil {
		in.Direction = *req.Direction
	}
	if req.IsPlan != nil {
		in.IsPlan = *req.IsPlan
	}

	cat, err := h.svc.Catalog.CreateCategory(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *handlers) updateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}

	cat, err := h.svc.Catalog.UpdateCategory(c.Request.Context(), id, service.CategoryPatch{
		Name:      req.Name,
		IsPlan:    req.IsPlan,
		Direction: req.Direction,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *handlers) toggleCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cat, err := h.svc.Catalog.ToggleCategory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

type paymentMethodRequest struct {
	Name *string `json:"nombre"`
	Rank *int    `json:"orden"`
}

func (h *handlers) listPaymentMethods(c *gin.Context) {
	pms, err := h.svc.Catalog.ListPaymentMethods(c.Request.Context(), queryBool(c, "activos"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pms)
}

func (h *handlers) getPaymentMethod(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pm, err := h.svc.Catalog.GetPaymentMethod(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pm)
}

func (h *handlers) createPaymentMethod(c *gin.Context) {
	var req paymentMethodRequest
	if !bindJSON(c, &req) {
		return
	}

	in := service.PaymentMethodInput{Rank: req.Rank}
	if req.Name != nil {
		in.Name = *req.Name
	}

	pm, err := h.svc.Catalog.CreatePaymentMethod(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pm)
}

func (h *handlers) updatePaymentMethod(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req paymentMethodRequest
	if !bindJSON(c, &req) {
		return
	}

	pm, err := h.svc.Catalog.UpdatePaymentMethod(c.Request.Context(), id, service.PaymentMethodPatch{Name: req.Name, Rank: req.Rank})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pm)
}

func (h *handlers) togglePaymentMethod(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pm, err := h.svc.Catalog.TogglePaymentMethod(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pm)
}

type optionRequest struct {
	CategoryID      *int          `json:"categoria_id"`
	PaymentMethodID *int          `json:"medio_pago_id"`
	DisplayName     *string       `json:"nombre_display"`
	Icon            *string       `json:"icono"`
	SuggestedAmount optionalPrice `json:"precio_sugerido"`
	Rank            *int          `json:"orden"`
}

func (h *handlers) listOptions(c *gin.Context) {
	opts, err := h.svc.Options.ListOptions(c.Request.Context(), queryBool(c, "activas"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

func (h *handlers) createOption(c *gin.Context) {
	var req optionRequest
	if !bindJSON(c, &req) {
		return
	}

	in := service.OptionInput{
		SuggestedAmount: req.SuggestedAmount.Value,
		Rank:            req.Rank,
	}
	if req.CategoryID != nil {
		in.CategoryID = *req.CategoryID
	}
	if req.PaymentMethodID != nil {
		in.PaymentMethodID = *req.PaymentMethodID
	}
	if req.DisplayName != nil {
		in.DisplayName = *req.DisplayName
	}
	if req.Icon != nil {
		in.Icon = *req.Icon
	}

	opt, err := h.svc.Options.CreateOption(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, opt)
}

func (h *handlers) updateOption(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req optionRequest
	if !bindJSON(c, &req) {
		return
	}

	opt, err := h.svc.Options.UpdateOption(c.Request.Context(), id, service.OptionPatch{
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		DisplayName:     req.DisplayName,
		Icon:            req.Icon,
		SuggestedAmount: req.SuggestedAmount.patch(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opt)
}

func (h *handlers) toggleOption(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	opt, err := h.svc.Options.ToggleOption(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opt)
}

func (h *handlers) deleteOption(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Options.DeleteOption(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// reorderRequest takes any integer target; the service clamps it into 1..N.
type reorderRequest struct {
	Rank *int `json:"orden" binding:"required"`
}

func (h *handlers) reorderOption(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req reorderRequest
	if !bindJSON(c, &req) {
		return
	}

	opt, err := h.svc.Options.ReorderOption(c.Request.Context(), id, *req.Rank)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opt)
}

type priceAdjustmentRequest struct {
	Percentage decimal.Decimal `json:"porcentaje"`
	OptionIDs  []int           `json:"opcion_ids"`
	RoundTo    *int            `json:"redondeo"`
}

func (h *handlers) applyPercentage(c *gin.Context) {
	var req priceAdjustmentRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.svc.Options.ApplyPercentage(c.Request.Context(), service.PriceAdjustment{
		Percentage: req.Percentage,
		OptionIDs:  req.OptionIDs,
		RoundTo:    req.RoundTo,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
