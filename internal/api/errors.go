package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/logger"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

// internalMessage is the only detail a client sees for unexpected failures.
const internalMessage = "error interno del servidor"

type errorResponse struct {
	Error string        `json:"error"`
	Code  apperror.Code `json:"code"`
}

// writeError aborts the request with the error's status and {error, code}.
func writeError(c *gin.Context, err error) {
	if e, ok := apperror.As(err); ok {
		c.AbortWithStatusJSON(e.Status(), errorResponse{Error: e.Message, Code: e.Code})
		return
	}

	logger.Log.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("Unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: internalMessage, Code: apperror.CodeInternal})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, apperror.Validation("cuerpo inválido: %v", err))
		return false
	}
	return true
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		writeError(c, apperror.Validation("id inválido"))
		return 0, false
	}
	return id, true
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, apperror.Validation("%s debe tener formato AAAA-MM-DD", field)
	}
	return d, nil
}

func queryDate(c *gin.Context, field string) (*time.Time, error) {
	raw := c.Query(field)
	if raw == "" {
		return nil, nil
	}
	d, err := parseDate(field, raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func queryInt(c *gin.Context, field string) (int, error) {
	raw := c.Query(field)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperror.Validation("%s debe ser un entero positivo", field)
	}
	return v, nil
}

func queryBool(c *gin.Context, field string) bool {
	v, _ := strconv.ParseBool(c.Query(field))
	return v
}
