package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"profitpath-api/internal/ledger"
	"profitpath-api/internal/model"
	"profitpath-api/internal/repository"
	"profitpath-api/pkg/logger"
	"profitpath-api/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// Adjustment kinds accepted by POST /api/stock/adjust.
const (
	AdjustAdd    = "add"
	AdjustReduce = "reduce"
	AdjustTo     = "adjust" // quantity is the counted on-hand as of the date
)

type StockConfig struct {
	FinancialYearStart time.Month
	AllowNegativeStock bool
}

type StockService interface {
	CurrentFinancialYear() ledger.FinancialYear

	RecordTransaction(ctx context.Context, req *RecordTransactionRequest, actor Actor) (*model.StockTransaction, error)
	Adjust(ctx context.Context, req *AdjustStockRequest, actor Actor) (*AdjustStockResponse, error)
	SetOpeningStock(ctx context.Context, req *SetOpeningRequest, actor Actor) (*model.StockOpening, error)

	Recompute(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear, actor Actor) (*RecomputeReport, error)
	RecomputeYear(ctx context.Context, fy ledger.FinancialYear, actor Actor) (*RecomputeReport, error)
	CloseFinancialYear(ctx context.Context, fy ledger.FinancialYear, actor Actor) (*CloseYearReport, error)

	Summary(ctx context.Context) ([]StockSummaryItem, error)
	MovementHistory(ctx context.Context, fy ledger.FinancialYear, productID uuid.UUID) ([]ProductLedger, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error)
	ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]model.StockTransaction, error)
}

type RecordTransactionRequest struct {
	ProductID       uuid.UUID           `json:"product_id" validate:"uuid_required"`
	TransactionDate string              `json:"transaction_date" validate:"required,datetime=2006-01-02"`
	EntryType       ledger.EntryType    `json:"entry_type" validate:"required,oneof=incoming outgoing adjustment"`
	Direction       ledger.Direction    `json:"direction" validate:"omitempty,oneof=add subtract"`
	Quantity        decimal.Decimal     `json:"quantity" validate:"gt=0"`
	UnitPrice       decimal.NullDecimal `json:"unit_price" validate:"omitempty,gte=0"`
	TotalValue      decimal.NullDecimal `json:"total_value" validate:"omitempty,gte=0"`
	ReferenceType   model.ReferenceType `json:"reference_type" validate:"omitempty,oneof=purchase invoice adjustment"`
	ReferenceID     *uuid.UUID          `json:"reference_id"`
	ReferenceNumber string              `json:"reference_number" validate:"max=100"`
	Notes           string              `json:"notes"`
}

type AdjustStockRequest struct {
	ProductID           uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity            decimal.Decimal `json:"quantity" validate:"gte=0"`
	AdjustmentType      string          `json:"adjustment_type" validate:"required,oneof=add reduce adjust"`
	DateOfAdjustment    string          `json:"date_of_adjustment" validate:"required,datetime=2006-01-02"`
	ReferenceBillNumber string          `json:"reference_bill_number" validate:"max=100"`
	Notes               string          `json:"notes"`
}

type AdjustStockResponse struct {
	OK          bool                    `json:"ok"`
	NewStock    decimal.Decimal         `json:"new_stock"`
	Transaction *model.StockTransaction `json:"transaction,omitempty"`
}

type SetOpeningRequest struct {
	ProductID     uuid.UUID            `json:"product_id" validate:"uuid_required"`
	FinancialYear ledger.FinancialYear `json:"financial_year" validate:"required"`
	Quantity      decimal.Decimal      `json:"quantity"`
	Value         decimal.Decimal      `json:"value" validate:"gte=0"`
}

type RecomputeReport struct {
	FinancialYear ledger.FinancialYear `json:"financial_year"`
	Products      int                  `json:"products"`
	RowsUpdated   int                  `json:"rows_updated"`
}

type CloseYearReport struct {
	FinancialYear ledger.FinancialYear `json:"financial_year"`
	Closed        int                  `json:"closed"`
	AlreadyClosed int                  `json:"already_closed"`
}

type StockSummaryItem struct {
	ProductID uuid.UUID            `json:"product_id"`
	SKU       string               `json:"sku"`
	Name      string               `json:"name"`
	Unit      string               `json:"unit"`
	OnHand    decimal.Decimal      `json:"onhand"`
	StockYear ledger.FinancialYear `json:"stock_year,omitempty"`
}

// ProductLedger is one product's movement history for a financial year.
type ProductLedger struct {
	ProductID     uuid.UUID            `json:"product_id"`
	SKU           string               `json:"sku"`
	Name          string               `json:"name"`
	Unit          string               `json:"unit"`
	FinancialYear ledger.FinancialYear `json:"financial_year"`
	ledger.Summary
	Transactions []model.StockTransaction `json:"transactions"`
}

type stockService struct {
	repo    repository.StockRepository
	cfg     StockConfig
	metrics *metrics.Metrics
	events  EventPublisher
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewStockService wires the ledger service. events may be nil when nothing
// listens for live updates.
func NewStockService(repo repository.StockRepository, cfg StockConfig, m *metrics.Metrics, events EventPublisher, log logrus.FieldLogger) StockService {
	return &stockService{
		repo:    repo,
		cfg:     cfg,
		metrics: m,
		events:  events,
		log:     log.WithField("module", "stock"),
		now:     time.Now,
	}
}

func (s *stockService) CurrentFinancialYear() ledger.FinancialYear {
	return ledger.FinancialYearOf(s.now(), s.cfg.FinancialYearStart)
}

func (s *stockService) RecordTransaction(ctx context.Context, req *RecordTransactionRequest, actor Actor) (*model.StockTransaction, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	date, err := time.Parse(dateLayout, req.TransactionDate)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction_date must be YYYY-MM-DD", ErrValidation)
	}

	row := &model.StockTransaction{
		ProductID:       req.ProductID,
		TransactionDate: date,
		EntryType:       req.EntryType,
		Direction:       req.Direction,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		TotalValue:      req.TotalValue,
		ReferenceType:   req.ReferenceType,
		ReferenceID:     req.ReferenceID,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}
	if err := s.prepare(row); err != nil {
		return nil, err
	}

	var product *model.Product
	err = s.repo.Transaction(ctx, func(repo repository.StockRepository) error {
		product, err = lockProduct(ctx, repo, req.ProductID)
		if err != nil {
			return err
		}
		return s.insert(ctx, repo, product, row, actor)
	})
	if err != nil {
		return nil, err
	}

	s.recorded(product, row, actor)
	return row, nil
}

func (s *stockService) Adjust(ctx context.Context, req *AdjustStockRequest, actor Actor) (*AdjustStockResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	date, err := time.Parse(dateLayout, req.DateOfAdjustment)
	if err != nil {
		return nil, fmt.Errorf("%w: date_of_adjustment must be YYYY-MM-DD", ErrValidation)
	}
	if req.AdjustmentType != AdjustTo && !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}
	fy := ledger.FinancialYearOf(date, s.cfg.FinancialYearStart)

	var (
		product *model.Product
		row     *model.StockTransaction
	)
	err = s.repo.Transaction(ctx, func(repo repository.StockRepository) error {
		product, err = lockProduct(ctx, repo, req.ProductID)
		if err != nil {
			return err
		}

		quantity := req.Quantity
		direction := ledger.DirectionAdd
		switch req.AdjustmentType {
		case AdjustReduce:
			direction = ledger.DirectionSubtract
		case AdjustTo:
			onHand, err := balanceAsOf(ctx, repo, product.ID, fy, date)
			if err != nil {
				return err
			}
			diff := req.Quantity.Sub(onHand)
			if diff.IsZero() {
				return nil
			}
			if diff.IsNegative() {
				direction = ledger.DirectionSubtract
			}
			quantity = diff.Abs()
		}

		row = &model.StockTransaction{
			ProductID:       product.ID,
			TransactionDate: date,
			EntryType:       ledger.Adjustment,
			Direction:       direction,
			Quantity:        quantity,
			ReferenceType:   model.RefAdjustment,
			ReferenceNumber: req.ReferenceBillNumber,
			Notes:           req.Notes,
		}
		if err := s.prepare(row); err != nil {
			return err
		}
		return s.insert(ctx, repo, product, row, actor)
	})
	if err != nil {
		return nil, err
	}

	if row != nil {
		s.recorded(product, row, actor)
	}
	return &AdjustStockResponse{OK: true, NewStock: product.Stock, Transaction: row}, nil
}

func (s *stockService) SetOpeningStock(ctx context.Context, req *SetOpeningRequest, actor Actor) (*model.StockOpening, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if !s.cfg.AllowNegativeStock && req.Quantity.IsNegative() {
		return nil, fmt.Errorf("%w: opening quantity must not be negative", ErrValidation)
	}
	fy := req.FinancialYear

	var (
		product *model.Product
		opening *model.StockOpening
	)
	err := s.repo.Transaction(ctx, func(repo repository.StockRepository) error {
		var err error
		product, err = lockProduct(ctx, repo, req.ProductID)
		if err != nil {
			return err
		}
		if err := ensureOpen(ctx, repo, product.ID, fy); err != nil {
			return err
		}

		opening, err = repo.FindOpening(ctx, product.ID, fy)
		if err != nil {
			return err
		}
		if opening != nil && opening.Closed {
			return fmt.Errorf("%w: opening of %s was carried from a closed year", ErrFinancialYearClosed, fy)
		}
		if opening == nil {
			opening = &model.StockOpening{ProductID: product.ID, FinancialYear: fy}
		}
		opening.Quantity = req.Quantity
		opening.Value = req.Value
		opening.Stamp(actor.ID)

		if err := repo.UpsertOpening(ctx, opening); err != nil {
			return err
		}
		_, err = s.rebuild(ctx, repo, product, fy, actor, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(map[string]interface{}{
		"type":           "stock_update",
		"action":         "opening_set",
		"financial_year": fy.String(),
		"product":        productPayload(product),
		"user":           actorPayload(actor),
		"message":        fmt.Sprintf("%s set the %s opening of '%s' to %s", actor.Name, fy, product.Name, req.Quantity),
	})
	return opening, nil
}

func (s *stockService) Recompute(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear, actor Actor) (*RecomputeReport, error) {
	updated, err := s.recomputeProduct(ctx, productID, fy, actor)
	if err != nil {
		return nil, err
	}
	return &RecomputeReport{FinancialYear: fy, Products: 1, RowsUpdated: updated}, nil
}

// RecomputeYear rebuilds fy for every product with activity up to fy. A
// failing product is logged and skipped; the joined errors are returned.
func (s *stockService) RecomputeYear(ctx context.Context, fy ledger.FinancialYear, actor Actor) (*RecomputeReport, error) {
	ids, err := s.repo.ListProductIDsWithActivity(ctx, fy)
	if err != nil {
		return nil, err
	}

	report := &RecomputeReport{FinancialYear: fy}
	var errs []error
	for _, id := range ids {
		updated, err := s.recomputeProduct(ctx, id, fy, actor)
		if err != nil {
			logger.LogError(s.log, "stock", "RecomputeYear", "recompute product", id.String(), err)
			errs = append(errs, fmt.Errorf("product %s: %w", id, err))
			continue
		}
		report.Products++
		report.RowsUpdated += updated
	}

	s.log.WithFields(logrus.Fields{
		"financial_year": fy.String(),
		"products":       report.Products,
		"rows_updated":   report.RowsUpdated,
		"failed":         len(errs),
	}).Info("recompute finished")
	return report, errors.Join(errs...)
}

func (s *stockService) recomputeProduct(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear, actor Actor) (int, error) {
	var updated int
	err := s.repo.Transaction(ctx, func(repo repository.StockRepository) error {
		product, err := lockProduct(ctx, repo, productID)
		if err != nil {
			return err
		}
		res, err := s.rebuild(ctx, repo, product, fy, actor, false)
		if err != nil {
			return err
		}
		updated = res.Updated
		return nil
	})
	if err == nil && updated > 0 {
		s.log.WithFields(logrus.Fields{
			"product_id":     productID,
			"financial_year": fy.String(),
			"rows":           updated,
		}).Warn("recompute corrected stored running balances")
	}
	return updated, err
}

// CloseFinancialYear carries the closing of fy into a closed opening row of
// the next year for every product. Years that are already closed are skipped.
func (s *stockService) CloseFinancialYear(ctx context.Context, fy ledger.FinancialYear, actor Actor) (*CloseYearReport, error) {
	if fy >= s.CurrentFinancialYear() {
		return nil, fmt.Errorf("%w: %s has not ended yet", ErrValidation, fy)
	}

	products, err := s.repo.FindProducts(ctx, nil)
	if err != nil {
		return nil, err
	}

	report := &CloseYearReport{FinancialYear: fy}
	for _, p := range products {
		closed, err := s.closeProduct(ctx, p.ID, fy, actor)
		if err != nil {
			return report, fmt.Errorf("close %s for %s: %w", fy, p.SKU, err)
		}
		if closed {
			report.Closed++
		} else {
			report.AlreadyClosed++
		}
	}

	s.log.WithFields(logrus.Fields{
		"financial_year": fy.String(),
		"closed":         report.Closed,
		"already_closed": report.AlreadyClosed,
	}).Info("financial year closed")
	s.publish(map[string]interface{}{
		"type":           "stock_update",
		"action":         "year_closed",
		"financial_year": fy.String(),
		"user":           actorPayload(actor),
		"message":        fmt.Sprintf("%s closed financial year %s", actor.Name, fy),
	})
	return report, nil
}

func (s *stockService) closeProduct(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear, actor Actor) (bool, error) {
	closed := false
	err := s.repo.Transaction(ctx, func(repo repository.StockRepository) error {
		product, err := lockProduct(ctx, repo, productID)
		if err != nil {
			return err
		}

		next, err := repo.FindOpening(ctx, product.ID, fy.Next())
		if err != nil {
			return err
		}
		if next != nil && next.Closed {
			return nil
		}
		// a later close already froze fy
		latest, err := repo.LatestClosedYear(ctx, product.ID)
		if err != nil {
			return err
		}
		if fy < latest {
			return nil
		}

		opening, err := openingFor(ctx, repo, product.ID, fy)
		if err != nil {
			return err
		}
		rows, err := repo.ListPartition(ctx, product.ID, fy)
		if err != nil {
			return err
		}
		summary, err := ledger.SummarizePartition(opening, toEntries(rows))
		if err != nil {
			return fmt.Errorf("summarize %s: %w", fy, err)
		}

		if next == nil {
			next = &model.StockOpening{ProductID: product.ID, FinancialYear: fy.Next()}
		}
		next.Quantity = summary.ClosingStock
		next.Value = summary.ClosingValue
		next.Closed = true
		next.Stamp(actor.ID)
		if err := repo.UpsertOpening(ctx, next); err != nil {
			return err
		}

		if _, err := s.rebuild(ctx, repo, product, fy.Next(), actor, false); err != nil {
			return err
		}
		closed = true
		return nil
	})
	return closed, err
}

func (s *stockService) Summary(ctx context.Context) ([]StockSummaryItem, error) {
	products, err := s.repo.FindProducts(ctx, nil)
	if err != nil {
		return nil, err
	}

	items := make([]StockSummaryItem, len(products))
	for i, p := range products {
		items[i] = StockSummaryItem{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Unit:      p.Unit,
			OnHand:    p.Stock,
			StockYear: p.StockYear,
		}
	}
	return items, nil
}

// MovementHistory replays each product's partition for fy. Listing all
// products skips those with neither rows nor an opening balance.
func (s *stockService) MovementHistory(ctx context.Context, fy ledger.FinancialYear, productID uuid.UUID) ([]ProductLedger, error) {
	if fy.IsZero() {
		fy = s.CurrentFinancialYear()
	}

	var ids []uuid.UUID
	if productID != uuid.Nil {
		ids = []uuid.UUID{productID}
	}
	products, err := s.repo.FindProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	if productID != uuid.Nil && len(products) == 0 {
		return nil, ErrProductNotFound
	}

	ledgers := make([]ProductLedger, 0, len(products))
	for _, p := range products {
		l, err := s.productLedger(ctx, p, fy)
		if err != nil {
			return nil, err
		}
		if productID == uuid.Nil && len(l.Transactions) == 0 && l.OpeningStock.IsZero() {
			continue
		}
		ledgers = append(ledgers, *l)
	}
	return ledgers, nil
}

func (s *stockService) productLedger(ctx context.Context, p model.Product, fy ledger.FinancialYear) (*ProductLedger, error) {
	opening, err := openingFor(ctx, s.repo, p.ID, fy)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListPartition(ctx, p.ID, fy)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.StockTransaction{}
	}

	entries := toEntries(rows)
	computed, err := ledger.ComputeRunningBalances(opening.Quantity, entries)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", p.SKU, fy, err)
	}

	drift := 0
	for i := range rows {
		if !rows[i].RunningBalance.Equal(computed.Entries[i].RunningBalance) {
			drift++
			rows[i].RunningBalance = computed.Entries[i].RunningBalance
		}
	}
	if drift > 0 {
		s.metrics.BalanceDrift.Add(float64(drift))
		s.log.WithFields(logrus.Fields{
			"product_id":     p.ID,
			"sku":            p.SKU,
			"financial_year": fy.String(),
			"rows":           drift,
		}).Warn("stored running balances differ from replay")
	}

	summary, err := ledger.SummarizePartition(opening, entries)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", p.SKU, fy, err)
	}

	return &ProductLedger{
		ProductID:     p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Unit:          p.Unit,
		FinancialYear: fy,
		Summary:       *summary,
		Transactions:  rows,
	}, nil
}

func (s *stockService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error) {
	row, err := s.repo.FindTransactionByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	return row, err
}

func (s *stockService) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]model.StockTransaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// prepare fills the derived columns of a new row and runs it past the
// accumulator so malformed rows never reach the database.
func (s *stockService) prepare(row *model.StockTransaction) error {
	if row.EntryType != ledger.Adjustment {
		row.Direction = ""
	}
	if row.ReferenceType == "" {
		switch row.EntryType {
		case ledger.Incoming:
			row.ReferenceType = model.RefPurchase
		case ledger.Outgoing:
			row.ReferenceType = model.RefInvoice
		default:
			row.ReferenceType = model.RefAdjustment
		}
	}
	if !row.TotalValue.Valid && row.UnitPrice.Valid {
		row.TotalValue = decimal.NewNullDecimal(row.UnitPrice.Decimal.Mul(row.Quantity))
	}
	row.FinancialYear = ledger.FinancialYearOf(row.TransactionDate, s.cfg.FinancialYearStart)

	_, err := ledger.ComputeRunningBalances(decimal.Zero, []ledger.Entry{row.Entry()})
	return err
}

// insert appends row to its partition and rebuilds from there. The product
// row must already be locked by the surrounding transaction.
func (s *stockService) insert(ctx context.Context, repo repository.StockRepository, product *model.Product, row *model.StockTransaction, actor Actor) error {
	if err := ensureOpen(ctx, repo, product.ID, row.FinancialYear); err != nil {
		return err
	}

	seq, err := repo.NextSequence(ctx, product.ID, row.FinancialYear)
	if err != nil {
		return err
	}
	row.Sequence = seq
	row.Stamp(actor.ID)
	row.CreatedByUserID = actor.UserID()

	if err := repo.CreateTransaction(ctx, row); err != nil {
		return err
	}

	res, err := s.rebuild(ctx, repo, product, row.FinancialYear, actor, true)
	if err != nil {
		return err
	}
	row.RunningBalance = res.Balances[row.ID]
	return nil
}

type rebuildResult struct {
	Updated  int
	Balances map[uuid.UUID]decimal.Decimal
}

// rebuild replays fromFY and each later year with activity, stopping before
// the first later year whose opening is pinned by a row. Changed running
// balances are written back and the product's on-hand follows the latest
// rebuilt year. With enforce set, a decrease below zero fails unless
// negative stock is allowed.
func (s *stockService) rebuild(ctx context.Context, repo repository.StockRepository, product *model.Product, fromFY ledger.FinancialYear, actor Actor, enforce bool) (res *rebuildResult, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.PartitionRebuilds.WithLabelValues(outcome).Inc()
	}()

	years, err := repo.ListFinancialYears(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	opening, err := openingFor(ctx, repo, product.ID, fromFY)
	if err != nil {
		return nil, err
	}

	res = &rebuildResult{Balances: make(map[uuid.UUID]decimal.Decimal)}
	fy := fromFY
	for {
		rows, err := repo.ListPartition(ctx, product.ID, fy)
		if err != nil {
			return nil, err
		}
		entries := toEntries(rows)

		computed, err := ledger.ComputeRunningBalances(opening.Quantity, entries)
		if err != nil {
			return nil, fmt.Errorf("rebuild %s %s: %w", product.SKU, fy, err)
		}
		if enforce && !s.cfg.AllowNegativeStock {
			if err := checkNonNegative(opening.Quantity, rows, computed.Entries); err != nil {
				return nil, err
			}
		}

		changed := make(map[uuid.UUID]decimal.Decimal)
		for i, e := range computed.Entries {
			res.Balances[rows[i].ID] = e.RunningBalance
			if !rows[i].RunningBalance.Equal(e.RunningBalance) {
				changed[rows[i].ID] = e.RunningBalance
			}
		}
		if len(changed) > 0 {
			if err := repo.UpdateRunningBalances(ctx, changed); err != nil {
				return nil, err
			}
			res.Updated += len(changed)
		}

		summary, err := ledger.SummarizePartition(opening, entries)
		if err != nil {
			return nil, fmt.Errorf("rebuild %s %s: %w", product.SKU, fy, err)
		}

		if product.StockYear.IsZero() || fy >= product.StockYear {
			if err := repo.UpdateProductStock(ctx, product.ID, summary.ClosingStock, fy, actor.ID); err != nil {
				return nil, err
			}
			product.Stock = summary.ClosingStock
			product.StockYear = fy
		}

		next, ok := nextYear(years, fy)
		if !ok {
			break
		}
		pinned, err := repo.FindOpening(ctx, product.ID, next)
		if err != nil {
			return nil, err
		}
		if pinned != nil {
			break
		}
		opening = ledger.Opening{Quantity: summary.ClosingStock, Value: summary.ClosingValue}
		fy = next
	}

	s.metrics.RebuildRows.Observe(float64(res.Updated))
	return res, nil
}

func (s *stockService) recorded(product *model.Product, row *model.StockTransaction, actor Actor) {
	s.metrics.TransactionsRecorded.WithLabelValues(string(row.EntryType)).Inc()
	s.log.WithFields(logrus.Fields{
		"product_id":     product.ID,
		"transaction_id": row.ID,
		"entry_type":     row.EntryType,
		"quantity":       row.Quantity.String(),
		"financial_year": row.FinancialYear.String(),
		"user_id":        actor.ID,
	}).Info("stock transaction recorded")

	s.publish(map[string]interface{}{
		"type":   "stock_update",
		"action": "transaction_created",
		"transaction": map[string]interface{}{
			"id":               row.ID,
			"entry_type":       row.EntryType,
			"direction":        row.Direction,
			"quantity":         row.Quantity,
			"transaction_date": row.TransactionDate.Format(dateLayout),
			"financial_year":   row.FinancialYear.String(),
			"running_balance":  row.RunningBalance,
		},
		"product": productPayload(product),
		"user":    actorPayload(actor),
		"message": fmt.Sprintf("%s %s %s %s of '%s'", actor.Name, movementVerb(row), row.Quantity, product.Unit, product.Name),
	})
}

func (s *stockService) publish(event map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(event)
}

func productPayload(p *model.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":         p.ID,
		"sku":        p.SKU,
		"name":       p.Name,
		"new_stock":  p.Stock,
		"stock_year": p.StockYear.String(),
	}
}

func actorPayload(a Actor) map[string]interface{} {
	return map[string]interface{}{
		"id":    a.ID,
		"name":  a.Name,
		"email": a.Email,
	}
}

func movementVerb(row *model.StockTransaction) string {
	switch {
	case row.EntryType == ledger.Incoming:
		return "received"
	case row.EntryType == ledger.Outgoing:
		return "shipped"
	case row.Direction == ledger.DirectionSubtract:
		return "removed"
	default:
		return "added"
	}
}

func lockProduct(ctx context.Context, repo repository.StockRepository, id uuid.UUID) (*model.Product, error) {
	product, err := repo.LockProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

// ensureOpen fails when fy is at or before the latest closed year of the
// product. Closing is recorded as a closed opening row on the following year.
func ensureOpen(ctx context.Context, repo repository.StockRepository, productID uuid.UUID, fy ledger.FinancialYear) error {
	latest, err := repo.LatestClosedYear(ctx, productID)
	if err != nil {
		return err
	}
	if !latest.IsZero() && fy <= latest {
		return fmt.Errorf("%w: %s", ErrFinancialYearClosed, fy)
	}
	return nil
}

// openingFor resolves the opening position of a partition: a pinned opening
// row wins, a product with nothing earlier starts at zero, and otherwise the
// previous year's closing carries forward.
func openingFor(ctx context.Context, repo repository.StockRepository, productID uuid.UUID, fy ledger.FinancialYear) (ledger.Opening, error) {
	pinned, err := repo.FindOpening(ctx, productID, fy)
	if err != nil {
		return ledger.Opening{}, err
	}
	if pinned != nil {
		return pinned.Opening(), nil
	}

	earlier, err := repo.HasActivityBefore(ctx, productID, fy)
	if err != nil {
		return ledger.Opening{}, err
	}
	if !earlier {
		return ledger.Opening{Quantity: decimal.Zero, Value: decimal.Zero}, nil
	}

	prev, err := openingFor(ctx, repo, productID, fy.Previous())
	if err != nil {
		return ledger.Opening{}, err
	}
	rows, err := repo.ListPartition(ctx, productID, fy.Previous())
	if err != nil {
		return ledger.Opening{}, err
	}
	summary, err := ledger.SummarizePartition(prev, toEntries(rows))
	if err != nil {
		return ledger.Opening{}, fmt.Errorf("carry forward %s: %w", fy.Previous(), err)
	}
	return ledger.Opening{Quantity: summary.ClosingStock, Value: summary.ClosingValue}, nil
}

// balanceAsOf is the on-hand at the end of date within its partition.
func balanceAsOf(ctx context.Context, repo repository.StockRepository, productID uuid.UUID, fy ledger.FinancialYear, date time.Time) (decimal.Decimal, error) {
	opening, err := openingFor(ctx, repo, productID, fy)
	if err != nil {
		return decimal.Zero, err
	}
	rows, err := repo.ListPartition(ctx, productID, fy)
	if err != nil {
		return decimal.Zero, err
	}

	var upTo []ledger.Entry
	for i := range rows {
		if rows[i].TransactionDate.After(date) {
			break
		}
		upTo = append(upTo, rows[i].Entry())
	}
	res, err := ledger.ComputeRunningBalances(opening.Quantity, upTo)
	if err != nil {
		return decimal.Zero, err
	}
	return res.ClosingStock, nil
}

func checkNonNegative(opening decimal.Decimal, rows []model.StockTransaction, computed []ledger.Entry) error {
	prev := opening
	for i, e := range computed {
		if e.RunningBalance.IsNegative() && e.RunningBalance.LessThan(prev) {
			return fmt.Errorf("%w: balance would fall to %s on %s",
				ErrInsufficientStock, e.RunningBalance, rows[i].TransactionDate.Format(dateLayout))
		}
		prev = e.RunningBalance
	}
	return nil
}

func toEntries(rows []model.StockTransaction) []ledger.Entry {
	entries := make([]ledger.Entry, len(rows))
	for i := range rows {
		entries[i] = rows[i].Entry()
	}
	return entries
}

func nextYear(years []ledger.FinancialYear, after ledger.FinancialYear) (ledger.FinancialYear, bool) {
	for _, fy := range years {
		if fy > after {
			return fy, true
		}
	}
	return 0, false
}
