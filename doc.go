// Package apigate provides the HTTP middleware pipeline of a headless CMS
// API: maintenance gating, API version resolution, role-aware rate
// limiting, access control, response enveloping, and activity logging.
//
// # Quick Start
//
// Create an application with apigate.New(), compose the pipeline with
// options, and call Run() to start the HTTP server:
//
//	app := apigate.New(
//	    apigate.WithLogger("api", middlewares.RequestIDExtractor()),
//	    apigate.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.CORS(),
//	        middlewares.Activity(recorder),
//	        middlewares.Format(),
//	        middlewares.Recover(),
//	        middlewares.Authenticate(resolver),
//	        middlewares.Maintenance(manager),
//	        middlewares.Version(versions),
//	        middlewares.RateLimit(limiter),
//	    ),
//	    apigate.WithHandlers(handlers.NewPosts(repo)),
//	)
//
//	if err := app.Run(":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Handlers
//
// Handlers implement the [Handler] interface to declare routes:
//
//	type PostsHandler struct{ repo *posts.Repository }
//
//	func (h *PostsHandler) Routes(r apigate.Router) {
//	    r.Group("/api/posts", func(r apigate.Router) {
//	        r.GET("/", h.list)
//	        r.POST("/", h.create, middlewares.RequirePermissions(identity.MatchAll, "posts.create"))
//	    })
//	}
//
// Handlers return errors instead of writing error responses themselves;
// the formatting stage renders every error as the standard JSON envelope.
//
// # Errors
//
// Use the Err* constructors to produce errors with well-defined status
// codes and error types:
//
//	func (h *PostsHandler) get(c apigate.Context) error {
//	    post, err := h.repo.Find(c, c.Param("id"))
//	    if err != nil {
//	        return apigate.ErrNotFound("Post not found")
//	    }
//	    return c.JSON(http.StatusOK, post)
//	}
package apigate
