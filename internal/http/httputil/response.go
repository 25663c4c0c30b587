package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/common"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	// Status is the error taxonomy kind of a failed operation.
	Status domain.ErrorKind `json:"status,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Response{
		Error:  err,
		Status: domain.KindInputValidation,
	})
}

// Fail writes err with the HTTP code of its taxonomy kind. data, when non-nil, carries the partial
// outcome of the operation.
func Fail(c *gin.Context, err error, data interface{}) {
	kind := domain.KindOf(err)
	httpErr := HTTPErrorFor(kind, err.Error())
	c.JSON(httpErr.StatusCode, Response{
		Data:   data,
		Error:  httpErr.Message,
		Status: kind,
	})
}

// HTTPErrorFor maps an error kind onto a response code.
func HTTPErrorFor(kind domain.ErrorKind, msg string) *common.HttpError {
	code := string(kind)
	switch kind {
	case domain.KindInputValidation:
		return common.HTTPErrorBadRequest(code, msg)
	case domain.KindPositionNotFound, domain.KindNoPositions:
		return common.HTTPErrorNotFound(code, msg)
	case domain.KindInsufficientInput, domain.KindInvalidPositionData, domain.KindSimulationFailed:
		return common.HTTPErrorUnprocessable(code, msg)
	case domain.KindQuoteUnavailable, domain.KindPoolStateUnavailable, domain.KindLookupFailed,
		domain.KindBroadcastFailed:
		return common.HTTPErrorUpstream(code, msg)
	case domain.KindConfirmationTimeout, domain.KindKeyUnavailable:
		return common.HTTPErrorServiceUnavailable(code, msg)
	default:
		return common.HTTPErrorInternalError(code, msg)
	}
}
