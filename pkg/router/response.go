package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matchpoll/backend/pkg/errorx"
	"github.com/matchpoll/backend/pkg/xcontext"
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func newResponse(data any) response {
	return response{
		Code: 0,
		Data: data,
	}
}

func newErrorResponse(err error) (int, response) {
	var errx errorx.Error
	if errorx.As(err, &errx) {
		return StatusCode(errx.Code), response{
			Code:  int64(errx.Code),
			Error: errx.Message,
		}
	}

	return http.StatusInternalServerError, response{
		Code:  int64(errorx.Unknown.Code),
		Error: errorx.Unknown.Message,
	}
}

// StatusCode maps an error code to the HTTP status of the response.
func StatusCode(code errorx.Code) int {
	switch code {
	case errorx.BadRequest, errorx.InvalidOption:
		return http.StatusBadRequest
	case errorx.Unauthenticated, errorx.AuthenticationRequired:
		return http.StatusUnauthorized
	case errorx.PermissionDenied, errorx.ReservedCategory:
		return http.StatusForbidden
	case errorx.NotFound:
		return http.StatusNotFound
	case errorx.AlreadyExists, errorx.FixtureClosed, errorx.VoteChangeNotAllowed:
		return http.StatusConflict
	case errorx.Unavailable, errorx.StorageUnavailable:
		return http.StatusServiceUnavailable
	case errorx.NotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeResponse(ctx context.Context, g *gin.Context) {
	if g.Writer.Written() {
		return
	}

	if err := xcontext.Error(ctx); err != nil {
		status, resp := newErrorResponse(err)
		g.JSON(status, resp)
		return
	}

	g.JSON(http.StatusOK, newResponse(xcontext.GetResponse(ctx)))
}
