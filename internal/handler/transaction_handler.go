package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/eaglebank/transaction-api/shared/cqrs"
	"github.com/eaglebank/transaction-api/shared/logger"
	"github.com/eaglebank/transaction-api/shared/middleware"
	"github.com/eaglebank/transaction-api/shared/models"
	"github.com/eaglebank/transaction-api/shared/response"
	"github.com/eaglebank/transaction-api/shared/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgTransactionsNotFound = "Transactions not found"
	msgIDExpected           = "Transaction Id expected"
	msgInvalidID            = "Invalid transaction id"
	msgInvalidBody          = "Invalid request body"
)

// TransactionCommander defines the write-side operations used by TransactionHandler.
type TransactionCommander interface {
	Save(ctx context.Context, cmd cqrs.CreateTransactionCommand) ([]models.Transaction, error)
	Update(ctx context.Context, cmd cqrs.UpdateTransactionCommand) ([]models.Transaction, error)
	Remove(ctx context.Context, cmd cqrs.DeleteTransactionCommand) ([]models.Transaction, error)
}

// TransactionQuerier defines the read-side operations used by TransactionHandler.
type TransactionQuerier interface {
	FindAll(ctx context.Context) ([]models.Transaction, error)
	FindByID(ctx context.Context, q cqrs.GetTransactionQuery) ([]models.Transaction, error)
}

type TransactionHandler struct {
	commands TransactionCommander
	queries  TransactionQuerier
	logger   *zap.Logger
	now      func() time.Time
}

// TransactionRequest is the body of POST and PUT. A client supplied date is ignored.
// Amount limits follow the NUMERIC(18,2) column.
type TransactionRequest struct {
	ID          *int64  `json:"id"`
	Amount      float64 `json:"amount" validate:"required,gt=0,lt=1e16,decimals=2"`
	Currency    string  `json:"currency" validate:"required,len=3,uppercase"`
	Type        string  `json:"type" validate:"required,oneof=credit debit"`
	Description string  `json:"description" validate:"max=255"`
}

func NewTransactionHandler(commands TransactionCommander, queries TransactionQuerier, logger *zap.Logger) *TransactionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionHandler{commands: commands, queries: queries, logger: logger, now: time.Now}
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	h.logRequest(c)

	transactions, err := h.queries.FindAll(c.Request.Context())
	h.respond(c, h.readResult(transactions, err), http.StatusOK)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	h.logRequest(c)

	id, err := utils.ParseTransactionID(c.Param("id"))
	if err != nil {
		h.respond(c, response.Err[models.Transaction](response.KindBadRequest, msgInvalidID), http.StatusOK)
		return
	}

	transactions, err := h.queries.FindByID(c.Request.Context(), cqrs.GetTransactionQuery{TransactionID: id})
	h.respond(c, h.readResult(transactions, err), http.StatusOK)
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	h.logRequest(c)

	var req TransactionRequest
	if result, ok := h.bind(c, &req, false); !ok {
		h.respond(c, result, http.StatusCreated)
		return
	}

	transactions, err := h.commands.Save(c.Request.Context(), cqrs.CreateTransactionCommand{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Type:        req.Type,
		Description: req.Description,
	})
	h.respond(c, writeResult(transactions, err), http.StatusCreated)
}

func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	h.logRequest(c)

	var req TransactionRequest
	if result, ok := h.bind(c, &req, true); !ok {
		h.respond(c, result, http.StatusOK)
		return
	}

	transactions, err := h.commands.Update(c.Request.Context(), cqrs.UpdateTransactionCommand{
		TransactionID: *req.ID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Type:          req.Type,
		Description:   req.Description,
	})
	h.respond(c, writeResult(transactions, err), http.StatusOK)
}

func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	h.logRequest(c)

	raw := c.Param("id")
	if raw == "" {
		h.respond(c, response.Err[models.Transaction](response.KindBadRequest, msgIDExpected), http.StatusOK)
		return
	}
	id, err := utils.ParseTransactionID(raw)
	if err != nil {
		h.respond(c, response.Err[models.Transaction](response.KindBadRequest, msgInvalidID), http.StatusOK)
		return
	}

	transactions, err := h.commands.Remove(c.Request.Context(), cqrs.DeleteTransactionCommand{TransactionID: id})
	h.respond(c, writeResult(transactions, err), http.StatusOK)
}

// bind decodes and validates a request body. On failure it returns the
// result to send. The id is checked before the rest of the body.
func (h *TransactionHandler) bind(c *gin.Context, req *TransactionRequest, requireID bool) (response.Result[models.Transaction], bool) {
	if err := c.ShouldBindJSON(req); err != nil {
		return response.Err[models.Transaction](response.KindBadRequest, msgInvalidBody), false
	}
	if requireID {
		if req.ID == nil {
			return response.Err[models.Transaction](response.KindBadRequest, msgIDExpected), false
		}
		if *req.ID <= 0 {
			return response.Err[models.Transaction](response.KindBadRequest, msgInvalidID), false
		}
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		return response.Err[models.Transaction](response.KindBadRequest, middleware.FormatValidationErrors(validationErrors)), false
	}
	return response.Result[models.Transaction]{}, true
}

// readResult treats an empty read as not found.
func (h *TransactionHandler) readResult(transactions []models.Transaction, err error) response.Result[models.Transaction] {
	if err != nil {
		return response.FromError[models.Transaction](err)
	}
	if len(transactions) == 0 {
		return response.Err[models.Transaction](response.KindNotFound, msgTransactionsNotFound)
	}
	return response.Ok(transactions)
}

func writeResult(transactions []models.Transaction, err error) response.Result[models.Transaction] {
	if err != nil {
		return response.FromError[models.Transaction](err)
	}
	return response.Ok(transactions)
}

// logRequest logs METHOD:URI, with the caller's user id on authenticated routes.
func (h *TransactionHandler) logRequest(c *gin.Context) {
	var fields []zap.Field
	if userID, ok := middleware.GetUserID(c); ok {
		fields = append(fields, zap.String("user_id", userID))
	}
	logger.WithRequestID(c.Request.Context(), h.logger).Info(c.Request.Method+":"+c.Request.URL.RequestURI(), fields...)
}

func (h *TransactionHandler) respond(c *gin.Context, result response.Result[models.Transaction], successStatus int) {
	log := logger.WithRequestID(c.Request.Context(), h.logger)
	if failure := result.Error(); failure != nil {
		log.Error(failure.Message,
			zap.String("kind", failure.Kind.String()),
			zap.Error(failure.Err),
		)
	}

	status, envelope := result.Resolve(successStatus, response.APIVersionV1, h.now())
	log.Debug("response", zap.Stringer("envelope", envelope))
	c.JSON(status, envelope)
}
