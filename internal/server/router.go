package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	mng "github.com/loykin/devserv/internal/manager"
	"github.com/loykin/devserv/internal/registry"
	"github.com/loykin/devserv/internal/supervisor"
)

// Router provides embeddable HTTP handlers for the registry facade.
// Endpoints under basePath:
//
//	POST   /register   body: {"config": ProcessConfig, "start": bool}
//	POST   /update     body: {"name": string, "fields": Update, "apply": bool}
//	POST   /start      query: name=...
//	POST   /stop       query: name=...
//	POST   /restart    query: name=...
//	DELETE /processes  query: name=...&supervisor=true|false
//	GET    /describe   query: name=...
//	GET    /status
//	GET    /logs       query: name=...&lines=N&stream=out|err&fresh=true|false
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	mgr      *mng.Manager
	basePath string
}

// NewRouter constructs a Router with configurable basePath.
// Example basePath: "/api" results in /api/start, /api/stop, ...
func NewRouter(mgr *mng.Manager, basePath string) *Router {
	return &Router{mgr: mgr, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/register", r.handleRegister)
	group.POST("/update", r.handleUpdate)
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.POST("/restart", r.handleRestart)
	group.DELETE("/processes", r.handleDelete)
	group.GET("/describe", r.handleDescribe)
	group.GET("/status", r.handleStatus)
	group.GET("/logs", r.handleLogs)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, mgr *mng.Manager) (*http.Server, error) {
	r := NewRouter(mgr, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

type registerReq struct {
	Config registry.ProcessConfig `json:"config"`
	Start  *bool                  `json:"start,omitempty"` // default true
}

func (r *Router) handleRegister(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Config.Name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "config.name required"})
		return
	}
	if !isSafeName(req.Config.Name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid config.name: allowed [A-Za-z0-9._-] and no '..' or path separators"})
		return
	}
	if !isSafeAbsPath(req.Config.Cwd) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid cwd: must be absolute path without traversal"})
		return
	}
	start := true
	if req.Start != nil {
		start = *req.Start
	}
	cfg, res, err := r.mgr.Register(c.Request.Context(), req.Config, start)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"config": cfg, "start": res})
}

type updateReq struct {
	Name   string          `json:"name"`
	Fields registry.Update `json:"fields"`
	Apply  bool            `json:"apply,omitempty"`
}

func (r *Router) handleUpdate(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name required"})
		return
	}
	cfg, err := r.mgr.Update(c.Request.Context(), req.Name, req.Fields, req.Apply)
	if err != nil {
		writeJSON(c, statusFor(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, cfg)
}

func (r *Router) handleStart(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	res, err := r.mgr.Start(c.Request.Context(), name)
	if err != nil {
		writeJSON(c, statusFor(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (r *Router) handleStop(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	if err := r.mgr.Stop(c.Request.Context(), name); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleRestart(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	if err := r.mgr.Restart(c.Request.Context(), name); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleDelete(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	removeLive := true
	if v := c.Query("supervisor"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			removeLive = b
		}
	}
	if err := r.mgr.Delete(c.Request.Context(), name, removeLive); err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleDescribe(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	text, err := r.mgr.Describe(c.Request.Context(), name)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"name": name, "describe": text})
}

func (r *Router) handleStatus(c *gin.Context) {
	rows, err := r.mgr.Status(c.Request.Context())
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, rows)
}

func (r *Router) handleLogs(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	lines := 0
	if v := c.Query("lines"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			lines = n
		}
	}
	fresh := false
	if v := c.Query("fresh"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			fresh = b
		}
	}
	stream := supervisor.ParseStream(c.Query("stream"))
	text, err := r.mgr.Logs(c.Request.Context(), name, lines, stream, fresh)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"name": name, "logs": text})
}

func statusFor(err error) int {
	if errors.Is(err, mng.ErrNotRegistered) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
