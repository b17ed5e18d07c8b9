package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/astralfield/roster-engine/internal/domain/user"
	"github.com/astralfield/roster-engine/internal/platform/logging"
	"github.com/astralfield/roster-engine/internal/usecase"
)

var errInvalidLimit = fmt.Errorf("%w: limit must be an integer between 1 and 500", usecase.ErrInvalidInput)

type Handler struct {
	tradeService  *usecase.TradeService
	waiverService *usecase.WaiverService
	rosterService *usecase.RosterService
	sweepService  *usecase.SweepService
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(
	tradeService *usecase.TradeService,
	waiverService *usecase.WaiverService,
	rosterService *usecase.RosterService,
	sweepService *usecase.SweepService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		tradeService:  tradeService,
		waiverService: waiverService,
		rosterService: rosterService,
		sweepService:  sweepService,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func decodeBody(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: request is not authenticated", usecase.ErrUnauthorized)
	}

	return principal, nil
}
