package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/silverland/nova/internal/agent"
	"github.com/silverland/nova/internal/auth"
	"github.com/silverland/nova/internal/config"
	"github.com/silverland/nova/internal/models"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	router.GET("/healthz", handleHealth(opts.DB))
	router.POST("/auth/token", handleToken(opts.Cfg))

	protected := router.Group("/", auth.Middleware(opts.Cfg.Auth.JWTSecret))
	protected.POST("/agents/chat", handleChat(opts.DB, opts.Agent))
	protected.GET("/conversations", handleConversationList(opts.DB))
	protected.GET("/conversations/:id", handleConversationDetail(opts.DB))
}

func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// handleToken exchanges the admin API key for a JWT access token.
func handleToken(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("x-api-key")
		if key == "" || key != cfg.Auth.AdminKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		expiry := time.Duration(cfg.Auth.TokenExpiryHours) * time.Hour
		token, err := auth.CreateToken(cfg.Auth.JWTSecret, expiry)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"token_type":   "bearer",
			"expires_in":   int(expiry.Seconds()),
		})
	}
}

type chatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id" binding:"required"`
}

// handleChat runs one agent turn. The history row is created on first
// contact for a conversation id; the checkpoint itself is owned by the
// orchestration core.
func handleChat(db *gorm.DB, turns TurnHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message and conversation_id are required"})
			return
		}
		if _, err := uuid.Parse(req.ConversationID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id must be a UUID"})
			return
		}

		conv := models.Conversation{ConversationID: req.ConversationID}
		if err := db.Where("conversation_id = ?", req.ConversationID).FirstOrCreate(&conv).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record conversation"})
			return
		}

		reply, err := turns.HandleTurn(c.Request.Context(), req.ConversationID, req.Message)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "agent turn failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"conversation_id": req.ConversationID,
			"response":        reply,
		})
	}
}

func handleConversationList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rows []models.Conversation
		if err := db.Order("updated_at DESC").Find(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list conversations"})
			return
		}
		out := make([]gin.H, 0, len(rows))
		for _, row := range rows {
			out = append(out, gin.H{
				"conversation_id": row.ConversationID,
				"started_at":      row.CreatedAt,
				"updated_at":      row.UpdatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"conversations": out})
	}
}

// handleConversationDetail replays the checkpointed transcript, exposing
// only the user and agent messages.
func handleConversationDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var row models.Checkpoint
		if err := db.First(&row, "conversation_id = ?", id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}

		var state agent.State
		if err := json.Unmarshal([]byte(row.State), &state); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode conversation"})
			return
		}

		messages := make([]gin.H, 0, len(state.Messages))
		for _, m := range state.Messages {
			if m.Role != agent.RoleUser && m.Role != agent.RoleAgent {
				continue
			}
			messages = append(messages, gin.H{
				"message_id": m.Ordinal,
				"role":       string(m.Role),
				"content":    m.Content,
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"conversation_id": id,
			"messages":        messages,
		})
	}
}
