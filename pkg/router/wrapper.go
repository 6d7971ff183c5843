package router

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matchpoll/backend/pkg/errorx"
	"github.com/matchpoll/backend/pkg/xcontext"
)

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	return func(g *gin.Context) {
		ctx := newRequestContext(router.ctx, g)

		ctx, err := runMiddlewares(ctx, router.befores)
		if err == nil {
			var resp *Response
			resp, err = handle(ctx, g, method, handler)
			if err == nil {
				ctx = xcontext.WithResponse(ctx, resp)
				ctx, err = runMiddlewares(ctx, router.afters)
			}
		}

		if err != nil {
			ctx = xcontext.WithError(ctx, err)
		}

		writeResponse(ctx, g)

		for _, closer := range router.closers {
			closer(ctx)
		}
	}
}

func handle[Request, Response any](
	ctx context.Context,
	g *gin.Context,
	method string,
	handler HandlerFunc[Request, Response],
) (*Response, error) {
	var req Request
	var err error
	switch method {
	case http.MethodGet:
		err = g.ShouldBindQuery(&req)
	case http.MethodPost:
		err = g.ShouldBindJSON(&req)
		if errors.Is(err, io.EOF) {
			// An empty body is an empty request.
			err = nil
		}
	default:
		err = errors.New("unsupported method")
	}

	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot bind the request: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid request format")
	}

	return handler(ctx, &req)
}

func runMiddlewares(ctx context.Context, middlewares []MiddlewareFunc) (context.Context, error) {
	for _, middleware := range middlewares {
		newCtx, err := middleware(ctx)
		if err != nil {
			return ctx, err
		}

		if newCtx != nil {
			ctx = newCtx
		}
	}

	return ctx, nil
}

// requestContext is cancelled with the request but looks up values in the router context too.
type requestContext struct {
	context.Context
	values context.Context
}

func (c requestContext) Value(key any) any {
	if v := c.Context.Value(key); v != nil {
		return v
	}

	return c.values.Value(key)
}

func newRequestContext(base context.Context, g *gin.Context) context.Context {
	var ctx context.Context = requestContext{Context: g.Request.Context(), values: base}
	ctx = xcontext.WithHTTPRequest(ctx, g.Request)
	ctx = xcontext.WithHTTPWriter(ctx, g.Writer)
	return ctx
}
