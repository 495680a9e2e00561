// internal/handlers/signing/signing_handler.go
package signing

import (
	"net/http"

	domain "signroom-service/internal/domain/signing"
	"signroom-service/internal/middleware"
	xerrors "signroom-service/internal/pkg/errors"
	"signroom-service/internal/pkg/response"
	"signroom-service/internal/service/email"
	service "signroom-service/internal/service/signing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SigningHandler struct {
	signingService *service.Service
	emailSender    *email.EmailSender
	logger         *zap.Logger
}

// NewSigningHandler wires the signing endpoints. emailSender may be nil when
// link delivery is handled by another system.
func NewSigningHandler(signingService *service.Service, emailSender *email.EmailSender, logger *zap.Logger) *SigningHandler {
	return &SigningHandler{
		signingService: signingService,
		emailSender:    emailSender,
		logger:         logger,
	}
}

// ========== Staff Endpoints ==========

// CreateSession issues a new signing session for a contract and mails the
// signer link. Delivery is the handler's job: the service only mints and
// persists the session.
func (h *SigningHandler) CreateSession(c *gin.Context) {
	var req domain.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	session, err := h.signingService.CreateSession(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "failed to create signing session", err)
		return
	}

	if staffEmail, ok := middleware.GetStaffEmail(c); ok {
		h.logger.Info("staff created signing session",
			zap.String("session_id", session.ID),
			zap.String("contract_id", session.ContractID),
			zap.String("staff_email", staffEmail),
		)
	}

	if h.emailSender != nil {
		go func(s *domain.SigningSession) {
			if err := h.emailSender.SendSigningLink(s.SignerEmail, s.ContractID, s.ID, s.ExpiresAt); err != nil {
				h.logger.Error("failed to send signing link",
					zap.String("session_id", s.ID),
					zap.Error(err),
				)
			}
		}(session)
	}

	response.Success(c, http.StatusCreated, "signing session created", session.Descriptor())
}

// CancelSession terminates a pending session
func (h *SigningHandler) CancelSession(c *gin.Context) {
	id := c.Param("session_id")
	if err := h.signingService.CancelSession(c.Request.Context(), id); err != nil {
		h.respondError(c, "failed to cancel signing session", err)
		return
	}

	if staffEmail, ok := middleware.GetStaffEmail(c); ok {
		h.logger.Info("staff cancelled signing session",
			zap.String("session_id", id),
			zap.String("staff_email", staffEmail),
		)
	}

	response.Success(c, http.StatusOK, "signing session cancelled", nil)
}

// ListContractSignatures returns the audit listing for a contract
func (h *SigningHandler) ListContractSignatures(c *gin.Context) {
	sigs, err := h.signingService.GetContractSignatures(c.Request.Context(), c.Param("contract_id"))
	if err != nil {
		h.respondError(c, "failed to list signatures", err)
		return
	}

	views := make([]*domain.SignatureView, 0, len(sigs))
	for _, sig := range sigs {
		views = append(views, sig.View())
	}
	response.Success(c, http.StatusOK, "signatures retrieved", views)
}

// ValidateIntegrity re-checks the tamper-evidence hash of a stored signature
func (h *SigningHandler) ValidateIntegrity(c *gin.Context) {
	result, err := h.signingService.ValidateSignatureIntegrity(c.Request.Context(), c.Param("signature_id"))
	if err != nil {
		h.respondError(c, "failed to validate signature", err)
		return
	}
	response.Success(c, http.StatusOK, "integrity check completed", result)
}

// ========== Signer Endpoints ==========

// GetSession returns the session for a bearer token so the signer's client
// can render the contract snapshot.
func (h *SigningHandler) GetSession(c *gin.Context) {
	session, err := h.signingService.GetSession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.respondError(c, "failed to fetch signing session", err)
		return
	}
	response.Success(c, http.StatusOK, "signing session retrieved", session.View())
}

// CompleteSignature records the signer's consent. IP and user agent come from
// the request, never from the payload.
func (h *SigningHandler) CompleteSignature(c *gin.Context) {
	var req domain.CompleteSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	sig, err := h.signingService.CompleteSignature(
		c.Request.Context(),
		c.Param("session_id"),
		req.SignatureData,
		c.ClientIP(),
		c.Request.UserAgent(),
	)
	if err != nil {
		h.respondError(c, "failed to complete signature", err)
		return
	}

	response.Success(c, http.StatusCreated, "signature recorded", sig.Receipt())
}

// respondError maps the service error taxonomy onto HTTP statuses.
func (h *SigningHandler) respondError(c *gin.Context, message string, err error) {
	switch {
	case xerrors.Is(err, xerrors.ErrNotFound):
		response.NotFound(c, message)
	case xerrors.Is(err, xerrors.ErrExpired):
		response.Gone(c, message, xerrors.ErrExpired)
	case xerrors.Is(err, xerrors.ErrCancelled):
		response.Gone(c, message, xerrors.ErrCancelled)
	case xerrors.Is(err, xerrors.ErrAlreadyCompleted):
		response.Conflict(c, message, xerrors.ErrAlreadyCompleted)
	case xerrors.Is(err, xerrors.ErrInvalidInput):
		response.ValidationError(c, message, err)
	case xerrors.Is(err, xerrors.ErrUnavailable):
		h.logger.Error(message, zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, "storage temporarily unavailable", nil)
	default:
		h.logger.Error(message, zap.Error(err))
		response.Error(c, http.StatusInternalServerError, message, nil)
	}
}
