// Command objectspace-inspect is a read-only HTTP introspection surface
// over an objectspace.Space: every route that touches the Space is a
// ReadAll/TryRead/ReadAllKey/ReadAllRange query, never a Write or Take, so
// browsing never mutates the
// store it's inspecting. Grounded on cmd/zmux-server's gin wiring
// (ZapLogger middleware, CORS, request hardening).
package main

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/edirooss/objectspace/pkg/objectspace"
)

// event is the demo type this inspector browses; a real deployment would
// register its own application types the same way.
type event struct {
	ID    int64   `json:"id"`
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
	Time  int64   `json:"time"`
}

// ZapLogger logs each request's method, route, status and latency.
func ZapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		joinedErr := errors.Join(errs...)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", latency),
		}
		if joinedErr != nil {
			fields = append(fields, zap.Error(joinedErr))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func main() {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	log := zap.Must(logConfig.Build()).Named("objectspace-inspect")
	defer log.Sync()

	space := objectspace.NewSpace(objectspace.WithLogger(log))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(gin.Recovery())
	r.Use(secure.New(secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
	}))

	if os.Getenv("ENV") == "dev" {
		r.Use(cors.New(cors.Config{
			AllowOrigins: []string{"http://localhost:5173"},
			AllowMethods: []string{"GET", "OPTIONS"},
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	// In-memory cookie session, used only to count a visitor's views — it
	// never touches the Space, so this stays a read-only surface end to
	// end.
	store := memstore.NewStore([]byte("objectspace-inspect-session"))
	r.Use(sessions.Sessions("inspect_session", store))

	r.Use(ZapLogger(log))

	r.GET("/api/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })

	r.GET("/api/events", countView(), func(c *gin.Context) {
		events, err := objectspace.ReadAll[event](space)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		c.Header("X-Total-Count", strconv.Itoa(len(events)))
		c.JSON(http.StatusOK, events)
	})

	r.GET("/api/events/next", countView(), func(c *gin.Context) {
		e, ok, err := objectspace.TryRead[event](space)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "no events present"})
			return
		}
		c.JSON(http.StatusOK, e)
	})

	r.GET("/api/events/by-kind/:kind", countView(), func(c *gin.Context) {
		events, err := objectspace.ReadAllKey[event](space, "kind", c.Param("kind"))
		if err != nil {
			if errors.Is(err, objectspace.ErrFieldNotFound) {
				c.JSON(http.StatusOK, []event{})
				return
			}
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		c.Header("X-Total-Count", strconv.Itoa(len(events)))
		c.JSON(http.StatusOK, events)
	})

	r.GET("/api/events/by-time", countView(), func(c *gin.Context) {
		from, err := strconv.ParseInt(c.Query("from"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "from must be a unix timestamp"})
			return
		}
		to, err := strconv.ParseInt(c.Query("to"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "to must be a unix timestamp"})
			return
		}
		events, err := objectspace.ReadAllRange[event](space, "time", objectspace.Between(from, to))
		if err != nil {
			if errors.Is(err, objectspace.ErrFieldNotFound) {
				c.JSON(http.StatusOK, []event{})
				return
			}
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		c.Header("X-Total-Count", strconv.Itoa(len(events)))
		c.JSON(http.StatusOK, events)
	})

	r.GET("/api/visits", func(c *gin.Context) {
		sess := sessions.Default(c)
		n, _ := sess.Get("views").(int)
		c.JSON(http.StatusOK, gin.H{"views": n})
	})

	seedDemoEvents(space)

	httpserver := &http.Server{
		Addr:           "127.0.0.1:8090",
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 15,
		ErrorLog:       zap.NewStdLog(log.Named("http").WithOptions(zap.AddCallerSkip(1))),
	}

	log.Info("running read-only objectspace inspector on 127.0.0.1:8090")
	if err := httpserver.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server failed", zap.Error(err))
	}
}

// countView increments the visitor's per-session view counter. It never
// writes to the Space.
func countView() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		n, _ := sess.Get("views").(int)
		sess.Set("views", n+1)
		_ = sess.Save()
		c.Next()
	}
}

func seedDemoEvents(space *objectspace.Space) {
	now := time.Now().Unix()
	demo := []event{
		{ID: 1, Kind: "boot", Value: 1, Time: now - 120},
		{ID: 2, Kind: "heartbeat", Value: 0.5, Time: now - 60},
		{ID: 3, Kind: "heartbeat", Value: 0.75, Time: now},
	}
	for _, e := range demo {
		_ = objectspace.Write(space, e)
	}
}
