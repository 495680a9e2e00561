// internal/handlers/ops/ops_handler.go
package ops

import (
	"context"
	"net/http"

	"signroom-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CompletionLimiter is the slice of the rate limiter the ops surface needs.
type CompletionLimiter interface {
	ResetCompletionAttempts(ctx context.Context, ip string) error
}

// OpsHandler exposes operational staff actions that are not part of the
// signing flow itself.
type OpsHandler struct {
	limiter CompletionLimiter
	logger  *zap.Logger
}

func NewOpsHandler(limiter CompletionLimiter, logger *zap.Logger) *OpsHandler {
	return &OpsHandler{limiter: limiter, logger: logger}
}

// ResetCompletionLimit clears the completion-attempt counter for a client IP.
// Support uses it when a shared egress (office NAT, VPN) burns through the
// window on behalf of many legitimate signers.
func (h *OpsHandler) ResetCompletionLimit(c *gin.Context) {
	ip := c.Param("ip")
	if err := h.limiter.ResetCompletionAttempts(c.Request.Context(), ip); err != nil {
		h.logger.Error("failed to reset completion attempts",
			zap.String("ip", ip),
			zap.Error(err),
		)
		response.Error(c, http.StatusServiceUnavailable, "rate limiter unavailable", nil)
		return
	}

	h.logger.Info("completion attempts reset", zap.String("ip", ip))
	response.Success(c, http.StatusOK, "completion attempts reset", nil)
}
