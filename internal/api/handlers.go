package api

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"siterelay/internal/account"
	"siterelay/internal/chat"
	"siterelay/internal/dispatch"
	"siterelay/internal/models"
	"siterelay/internal/schema"
	"siterelay/internal/sheets"
	"siterelay/internal/upload"
)

// Handler wires HTTP routes to the dispatcher, credential gateway, chat
// manager and upload resolver. No business logic lives here.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	accounts   *account.Gateway
	chat       *chat.Manager
	uploads    *upload.Resolver
	staticDir  string
}

// NewHandler constructs a Handler instance.
func NewHandler(dispatcher *dispatch.Dispatcher, accounts *account.Gateway, chatMgr *chat.Manager, uploads *upload.Resolver, staticDir string) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		accounts:   accounts,
		chat:       chatMgr,
		uploads:    uploads,
		staticDir:  staticDir,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/submit-form", h.submitForm)
	api.POST("/login", h.login)
	api.POST("/register", h.register)
	api.POST("/chat", h.chatMessage)
	api.POST("/reset-chat", h.resetChat)
	router.GET("/uploads/:filename", h.serveUpload)
	if h.staticDir != "" {
		router.GET("/", h.serveIndex)
		router.NoRoute(h.serveStatic)
	}
}

func (h *Handler) submitForm(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid multipart form"})
		return
	}
	data := make(map[string]string, len(form.Value))
	for key, values := range form.Value {
		if len(values) > 0 {
			data[key] = values[0]
		}
	}
	formType := data["formType"]
	if formType == "" {
		formType = schema.FormContact
	}

	var fileRef *models.UploadedFile
	if fh, err := c.FormFile("resume"); err == nil {
		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "open uploaded file failed"})
			return
		}
		fileRef, err = h.uploads.Store(fh.Filename, src, fh.Size)
		src.Close()
		if err != nil {
			log.Printf("store resume: %v", err)
			if errors.Is(err, upload.ErrUnsupportedFileType) || errors.Is(err, upload.ErrFileTooLarge) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "save file failed"})
			}
			return
		}
	}

	if err := h.dispatcher.Submit(c.Request.Context(), formType, data, fileRef); err != nil {
		log.Printf("submit %s form: %v", formType, err)
		status := http.StatusInternalServerError
		if errors.Is(err, schema.ErrInvalidFormType) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Form submitted successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Email and password required"})
		return
	}
	user, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("login %s: %v", req.Email, err)
		// both unknown user and bad password answer 401 so login
		// attempts cannot probe for registered emails
		if errors.Is(err, account.ErrUserNotFound) || errors.Is(err, account.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Login successful", "name": user.Name})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "All fields required"})
		return
	}
	if err := h.accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		log.Printf("register %s: %v", req.Email, err)
		switch {
		case errors.Is(err, account.ErrEmailRegistered):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
		case errors.Is(err, sheets.ErrUnavailable):
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Unable to connect to the account store"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Registration successful"})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func (h *Handler) chatMessage(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}
	// a caller without a session id gets a fresh one instead of a
	// shared fallback; the id is echoed back for the next request
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	reply, err := h.chat.SendMessage(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		log.Printf("chat session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply, "sessionId": sessionID})
}

type resetChatRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *Handler) resetChat(c *gin.Context) {
	var req resetChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.chat.Reset(c.Request.Context(), req.SessionID); err != nil {
		log.Printf("reset chat session %s: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Chat session reset"})
}

func (h *Handler) serveUpload(c *gin.Context) {
	path, err := h.uploads.Path(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.File(path)
}

func (h *Handler) serveIndex(c *gin.Context) {
	c.File(filepath.Join(h.staticDir, "index.html"))
}

func (h *Handler) serveStatic(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	rel := filepath.Clean("/" + c.Request.URL.Path)
	path := filepath.Join(h.staticDir, rel)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.File(path)
}
