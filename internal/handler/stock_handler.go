package handler

import (
	"bytes"
	"strconv"

	"profitpath-api/internal/export"
	"profitpath-api/internal/ledger"
	"profitpath-api/internal/repository"
	"profitpath-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxTransactionLimit = 1000

type StockHandler struct {
	service service.StockService
	log     logrus.FieldLogger
}

func NewStockHandler(s service.StockService, log logrus.FieldLogger) *StockHandler {
	return &StockHandler{service: s, log: log}
}

type RecomputeRequest struct {
	FinancialYear ledger.FinancialYear `json:"financial_year"`
	ProductID     *uuid.UUID           `json:"product_id"`
}

// GetSummary returns on-hand per product
// GET /api/stock/summary
func (h *StockHandler) GetSummary(c *fiber.Ctx) error {
	items, err := h.service.Summary(c.UserContext())
	if err != nil {
		return respondError(c, h.log, "GetSummary", err)
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetMovementHistory returns per-product ledgers for a financial year
// GET /api/stock/movement-history?financial_year=&product_id=
func (h *StockHandler) GetMovementHistory(c *fiber.Ctx) error {
	fy, productID, err := historyQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ledgers, err := h.service.MovementHistory(c.UserContext(), fy, productID)
	if err != nil {
		return respondError(c, h.log, "GetMovementHistory", err)
	}
	return c.JSON(fiber.Map{"financial_year": yearOf(fy, ledgers, h.service), "data": ledgers})
}

// ExportMovementHistory streams the movement history as an xlsx workbook
// GET /api/stock/movement-history/export?financial_year=&product_id=
func (h *StockHandler) ExportMovementHistory(c *fiber.Ctx) error {
	fy, productID, err := historyQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ledgers, err := h.service.MovementHistory(c.UserContext(), fy, productID)
	if err != nil {
		return respondError(c, h.log, "ExportMovementHistory", err)
	}

	var buf bytes.Buffer
	if err := export.MovementHistory(&buf, ledgers); err != nil {
		return respondError(c, h.log, "ExportMovementHistory", err)
	}

	c.Attachment(export.Filename(yearOf(fy, ledgers, h.service)))
	c.Set(fiber.HeaderContentType, export.XLSXContentType)
	return c.Send(buf.Bytes())
}

// GetTransactions lists ledger rows, newest first
// GET /api/stock/transactions?financial_year=&product_id=&entry_type=&limit=
func (h *StockHandler) GetTransactions(c *fiber.Ctx) error {
	var filter repository.TransactionFilter

	if raw := c.Query("financial_year"); raw != "" {
		fy, err := ledger.ParseFinancialYear(raw)
		if err != nil {
			return badRequest(c, err.Error())
		}
		filter.FinancialYear = fy
	}
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid product ID")
		}
		filter.ProductID = id
	}
	if raw := c.Query("entry_type"); raw != "" {
		filter.EntryType = ledger.EntryType(raw)
		if !filter.EntryType.Valid() {
			return badRequest(c, "Invalid entry type")
		}
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return badRequest(c, "Invalid limit")
		}
		filter.Limit = min(limit, maxTransactionLimit)
	}

	rows, err := h.service.ListTransactions(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, "GetTransactions", err)
	}
	return c.JSON(fiber.Map{"data": rows})
}

// GetTransaction returns one ledger row
// GET /api/stock/transactions/:id
func (h *StockHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid transaction ID")
	}

	row, err := h.service.GetTransaction(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, "GetTransaction", err)
	}
	return c.JSON(row)
}

// CreateTransaction appends a purchase, invoice or adjustment row
// POST /api/stock/transactions
func (h *StockHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.RecordTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	row, err := h.service.RecordTransaction(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, "CreateTransaction", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction recorded", "data": row})
}

// Adjust records a manual stock adjustment
// POST /api/stock/adjust
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var req service.AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	resp, err := h.service.Adjust(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, "Adjust", err)
	}
	return c.JSON(resp)
}

// SetOpening pins a product's opening balance for a financial year
// PUT /api/stock/opening
func (h *StockHandler) SetOpening(c *fiber.Ctx) error {
	var req service.SetOpeningRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	opening, err := h.service.SetOpeningStock(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, "SetOpening", err)
	}
	return c.JSON(fiber.Map{"message": "Opening stock saved", "data": opening})
}

// Recompute rebuilds running balances for one product or every product
// POST /api/stock/recompute
func (h *StockHandler) Recompute(c *fiber.Ctx) error {
	var req RecomputeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	if req.FinancialYear.IsZero() {
		req.FinancialYear = h.service.CurrentFinancialYear()
	}

	var (
		report *service.RecomputeReport
		err    error
	)
	if req.ProductID != nil {
		report, err = h.service.Recompute(c.UserContext(), *req.ProductID, req.FinancialYear, actorFrom(c))
	} else {
		report, err = h.service.RecomputeYear(c.UserContext(), req.FinancialYear, actorFrom(c))
	}
	if err != nil {
		if report != nil {
			// some products failed; the service already logged each one
			return c.Status(fiber.StatusMultiStatus).JSON(fiber.Map{"data": report, "error": err.Error()})
		}
		return respondError(c, h.log, "Recompute", err)
	}
	return c.JSON(fiber.Map{"data": report})
}

// CloseFinancialYear freezes a year and carries closings forward
// POST /api/stock/financial-years/:fy/close
func (h *StockHandler) CloseFinancialYear(c *fiber.Ctx) error {
	fy, err := ledger.ParseFinancialYear(c.Params("fy"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	report, err := h.service.CloseFinancialYear(c.UserContext(), fy, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, "CloseFinancialYear", err)
	}
	return c.JSON(fiber.Map{"message": "Financial year closed", "data": report})
}

func historyQuery(c *fiber.Ctx) (ledger.FinancialYear, uuid.UUID, error) {
	var fy ledger.FinancialYear
	if raw := c.Query("financial_year"); raw != "" {
		parsed, err := ledger.ParseFinancialYear(raw)
		if err != nil {
			return 0, uuid.Nil, err
		}
		fy = parsed
	}

	productID := uuid.Nil
	if raw := c.Query("product_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return 0, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid product ID")
		}
		productID = parsed
	}
	return fy, productID, nil
}

// yearOf resolves the year a history request was answered for.
func yearOf(requested ledger.FinancialYear, ledgers []service.ProductLedger, s service.StockService) ledger.FinancialYear {
	if !requested.IsZero() {
		return requested
	}
	if len(ledgers) > 0 {
		return ledgers[0].FinancialYear
	}
	return s.CurrentFinancialYear()
}
