package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/retexhub/backend/api/transport"
	"github.com/retexhub/backend/domain"
	"github.com/retexhub/backend/pkg/httpcontext"
	contributionUC "github.com/retexhub/backend/usecase/contribution"
)

type CertificateHandler struct {
	baseHandler
	uc *contributionUC.UseCase
}

func NewCertificateHandler(uc *contributionUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CertificateHandler {
	return &CertificateHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Verify a presented certificate
// @Tags certificates
// @Router /api/v1/certificates/verify [post]
func (h *CertificateHandler) Verify(ctx *fasthttp.RequestCtx) {
	var req transport.VerifyCertificateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	cert := domain.Certificate{
		TrackingID:     req.TrackingID,
		SubjectName:    req.SubjectName,
		Classification: domain.Classification(req.Classification),
		Destination:    req.Destination,
		Impact: domain.Impact{
			CO2SavedKg:      req.Impact.CO2SavedKg,
			WaterSavedL:     req.Impact.WaterSavedL,
			ResourcePercent: req.Impact.ResourcePercent,
		},
		TimestampISO:   req.TimestampISO,
		IssuerIdentity: req.IssuerIdentity,
		ContentHash:    req.ContentHash,
	}

	report, err := h.uc.VerifyCertificate(cert)
	if err != nil && !domain.IsDomainError(err, domain.ErrCodeIntegrity) {
		h.respondError(ctx, err)
		return
	}

	// An integrity violation is a successful check with a negative
	// outcome: the report carries the failed comparison.
	h.respondSuccess(ctx, http.StatusOK, report)
}
