package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/retexhub/backend/api/transport"
	"github.com/retexhub/backend/domain"
	"github.com/retexhub/backend/internal/middleware"
	"github.com/retexhub/backend/pkg/httpcontext"
	"github.com/retexhub/backend/repository"
	contributionUC "github.com/retexhub/backend/usecase/contribution"
)

type ContributionHandler struct {
	baseHandler
	uc     *contributionUC.UseCase
	issuer string
}

func NewContributionHandler(uc *contributionUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger, issuerIdentity string) *ContributionHandler {
	return &ContributionHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		issuer:      issuerIdentity,
	}
}

// @Summary Submit contribution
// @Tags contributions
// @Router /api/v1/contributions [post]
func (h *ContributionHandler) Submit(ctx *fasthttp.RequestCtx) {
	var req transport.SubmitContributionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	subject := req.SubjectName
	if subject == "" {
		subject = string(ctx.Request.Header.Peek(middleware.HeaderSubject))
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Submit(stdCtx, subject, toDomainItems(req.Items))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary List contributions
// @Tags contributions
// @Router /api/v1/contributions [get]
func (h *ContributionHandler) List(ctx *fasthttp.RequestCtx) {
	filter := repository.ContributionFilter{
		State:       string(ctx.QueryArgs().Peek("state")),
		SubjectName: string(ctx.QueryArgs().Peek("subject")),
		Limit:       parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset:      parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	contributions, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, contributions)
}

// @Summary Fetch contribution by tracking ID
// @Tags contributions
// @Router /api/v1/contributions/{trackingId} [get]
func (h *ContributionHandler) Get(ctx *fasthttp.RequestCtx) {
	trackingID, ok := h.trackingID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	contribution, err := h.uc.Get(stdCtx, trackingID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, contribution)
}

// @Summary Confirm physical intake
// @Tags contributions
// @Router /api/v1/contributions/{trackingId}/receive [post]
func (h *ContributionHandler) Receive(ctx *fasthttp.RequestCtx) {
	trackingID, ok := h.trackingID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Receive(stdCtx, trackingID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Classify a received contribution
// @Tags contributions
// @Router /api/v1/contributions/{trackingId}/verify [post]
func (h *ContributionHandler) Verify(ctx *fasthttp.RequestCtx) {
	trackingID, ok := h.trackingID(ctx)
	if !ok {
		return
	}

	var req transport.VerifyContributionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	var corrected []domain.ContributionItem
	if req.CorrectedItems != nil {
		corrected = toDomainItems(req.CorrectedItems)
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Verify(stdCtx, trackingID, domain.Classification(req.Classification), corrected)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Issue the certificate
// @Tags contributions
// @Router /api/v1/contributions/{trackingId}/certify [post]
func (h *ContributionHandler) Certify(ctx *fasthttp.RequestCtx) {
	trackingID, ok := h.trackingID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Certify(stdCtx, trackingID, h.issuerIdentity(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

func (h *ContributionHandler) trackingID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("trackingId").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing tracking id", nil))
		return "", false
	}
	return id, true
}

// issuerIdentity is the configured deployment identity; the acting
// operator is appended when known so the certificate records who
// triggered issuance.
func (h *ContributionHandler) issuerIdentity(ctx *fasthttp.RequestCtx) string {
	if operator := string(ctx.Request.Header.Peek(middleware.HeaderSubject)); operator != "" {
		return h.issuer + "/" + operator
	}
	return h.issuer
}

func toDomainItems(items []transport.ContributionItemRequest) []domain.ContributionItem {
	out := make([]domain.ContributionItem, 0, len(items))
	for _, item := range items {
		mixture := make([]domain.MixtureComponent, 0, len(item.Mixture))
		for _, comp := range item.Mixture {
			mixture = append(mixture, domain.MixtureComponent{
				Fiber:      comp.Fiber,
				Percentage: comp.Percentage,
			})
		}
		if len(mixture) == 0 {
			mixture = nil
		}
		out = append(out, domain.ContributionItem{
			Type:           item.Type,
			IsMixture:      item.IsMixture,
			SingleMaterial: item.SingleMaterial,
			Mixture:        mixture,
			WeightKg:       item.WeightKg,
			OriginCountry:  item.OriginCountry,
		})
	}
	return out
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
