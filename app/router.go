// Package app wires the HTTP surface together
package app

import (
	"bitwise74/media-api/app/file"
	"bitwise74/media-api/app/group"
	"bitwise74/media-api/app/root"
	shareapi "bitwise74/media-api/app/share"
	"bitwise74/media-api/app/user"
	"bitwise74/media-api/db"
	"bitwise74/media-api/internal"
	"bitwise74/media-api/internal/share"
	"bitwise74/media-api/pkg/middleware"
	"bitwise74/media-api/pkg/security"
	"bitwise74/media-api/storage"
	"fmt"
	"strings"
	"time"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var store = persist.NewMemoryStore(time.Minute)

func NewRouter() (*gin.Engine, error) {
	d := &internal.Deps{}

	router := gin.New()

	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	d.DB = database

	origins := strings.Split(viper.GetString("host.cors"), ",")

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	jwt := middleware.NewJWTMiddleware(database)
	optionalJWT := middleware.NewOptionalJWTMiddleware(database)
	turnstile := middleware.NewTurnstileMiddleware()

	rateLimit := viper.GetInt("security.rate_limit")
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
		CleanupInterval:   time.Second,
	})

	maxUploadSize := viper.GetInt64("upload.max_size")

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)
	}

	u := m.Group("/users", middleware.BodySizeLimiter(1<<20))
	{
		// GET /api/users		-> Returns the basic info of a user
		u.GET("", jwt, func(c *gin.Context) { user.UserFetch(c, d) })

		// POST /api/users 		-> Registers a new user
		u.POST("", func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/users/login 	-> Logs in a user and returns a JWT token
		u.POST("/login", func(c *gin.Context) { user.UserLogin(c, d) })
	}

	ff := m.Group("/files")
	{
		// GET /api/files/search	-> Searches the caller's own files.
		// Cached per caller, a URI-only key would leak one user's private
		// listing to another.
		ff.GET("/search", jwt, middleware.CachePerUser(store, time.Second*15), func(c *gin.Context) { file.FileSearch(c, d) })

		// GET /api/files/:id		-> Returns a file's metadata if the caller may view it
		ff.GET("/:id", optionalJWT, func(c *gin.Context) { file.FileFetch(c, d) })

		// GET /api/files/:id/content	-> Serves the file's bytes for viewing
		ff.GET("/:id/content", optionalJWT, func(c *gin.Context) { file.FileServe(c, d) })

		// GET /api/files/:id/download	-> Serves the file's bytes as an attachment
		ff.GET("/:id/download", optionalJWT, func(c *gin.Context) { file.FileDownload(c, d) })

		// POST /api/files         	-> Uploads a new file and stores it in the database
		ff.POST("", jwt, middleware.BodySizeLimiter(maxUploadSize), func(c *gin.Context) { file.FileUpload(c, d) })

		// PATCH /api/files/:id		-> Updates a file's metadata
		ff.PATCH("/:id", jwt, func(c *gin.Context) { file.FileEdit(c, d) })

		// DELETE /api/files/:id	-> Deletes a file with its grants and share links
		ff.DELETE("/:id", jwt, func(c *gin.Context) { file.FileDelete(c, d) })

		// POST /api/files/:id/grants	-> Creates or updates an access rule
		ff.POST("/:id/grants", jwt, func(c *gin.Context) { file.FileGrant(c, d) })

		// DELETE /api/files/:id/grants	-> Removes an access rule
		ff.DELETE("/:id/grants", jwt, func(c *gin.Context) { file.FileRevoke(c, d) })

		// POST /api/files/:id/share	-> Issues a share link for the file
		ff.POST("/:id/share", jwt, func(c *gin.Context) { shareapi.ShareCreate(c, d) })
	}

	g := m.Group("/groups", jwt)
	{
		// POST /api/groups		-> Creates a group
		g.POST("", func(c *gin.Context) { group.GroupCreate(c, d) })

		// DELETE /api/groups/:id	-> Deletes a group with its memberships and grants
		g.DELETE("/:id", func(c *gin.Context) { group.GroupDelete(c, d) })

		// PUT /api/groups/:id/members/:accountID	-> Adds or updates a member
		g.PUT("/:id/members/:accountID", func(c *gin.Context) { group.MemberAdd(c, d) })

		// DELETE /api/groups/:id/members/:accountID	-> Removes a member
		g.DELETE("/:id/members/:accountID", func(c *gin.Context) { group.MemberRemove(c, d) })
	}

	// DELETE /api/shares/:id	-> Revokes a share link
	m.DELETE("/shares/:id", jwt, func(c *gin.Context) { shareapi.ShareRevoke(c, d) })

	s := router.Group("/s", rateLimiter)
	{
		// POST /s/:token		-> Validates a token without consuming a view
		s.POST("/:token", turnstile, func(c *gin.Context) { shareapi.ShareResolve(c, d) })

		// GET /s/:token/content	-> Consumes one view and serves the bytes
		s.GET("/:token/content", func(c *gin.Context) { shareapi.ShareServe(c, d) })
	}

	d.Argon = security.New()

	st, err := storage.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage backend, %w", err)
	}
	d.Storage = st

	// Expired links stay denied either way, the sweep just keeps the table small
	share.Cleanup(time.Hour*time.Duration(viper.GetInt("share.cleanup_interval_hours")), database)

	return router, nil
}
