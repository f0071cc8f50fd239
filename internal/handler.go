package internal

// Handler declares routes on a router.
//
// Example:
//
//	type PostsHandler struct {
//	    repo *repository.Queries
//	}
//
//	func (h *PostsHandler) Routes(r apigate.Router) {
//	    r.GET("/posts", h.list)
//	    r.POST("/posts", h.create)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers. Returning a non-nil
// error hands control to the error handler, which renders the error
// envelope.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Middleware can inspect the request, short-circuit processing, or wrap
// the response.
//
// Example:
//
//	func RequireAuth(next apigate.HandlerFunc) apigate.HandlerFunc {
//	    return func(c apigate.Context) error {
//	        if c.Identity() == nil {
//	            return apigate.ErrUnauthorized("Authentication required")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from handlers.
type ErrorHandler func(Context, error) error
