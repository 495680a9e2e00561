// internal/app/router.go
package app

import (
	opsHandler "signroom-service/internal/handlers/ops"
	signingHandler "signroom-service/internal/handlers/signing"
	"signroom-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Signing             *signingHandler.SigningHandler
	Ops                 *opsHandler.OpsHandler
	AuthMiddleware      *middleware.AuthMiddleware
	CompletionRateLimit gin.HandlerFunc
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Signer Routes (bearer session token) ====================
	signer := api.Group("/sessions")
	{
		signer.GET("/:session_id", h.Signing.GetSession)
		signer.POST("/:session_id/complete", h.CompletionRateLimit, h.Signing.CompleteSignature)
	}

	// ==================== Staff Routes ====================
	staff := api.Group("")
	staff.Use(h.AuthMiddleware.StaffAuth())
	{
		staff.POST("/sessions", h.Signing.CreateSession)
		staff.DELETE("/sessions/:session_id", h.Signing.CancelSession)
		staff.GET("/contracts/:contract_id/signatures", h.Signing.ListContractSignatures)
		staff.GET("/signatures/:signature_id/integrity", h.Signing.ValidateIntegrity)
		staff.DELETE("/ops/ratelimits/completions/:ip", h.Ops.ResetCompletionLimit)
	}
}
