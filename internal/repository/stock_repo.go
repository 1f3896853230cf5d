package repository

import (
	"context"

	"profitpath-api/internal/ledger"
	"profitpath-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionFilter narrows ListTransactions. Zero fields are ignored.
type TransactionFilter struct {
	ProductID     uuid.UUID
	FinancialYear ledger.FinancialYear
	EntryType     ledger.EntryType
	Limit         int
}

type StockRepository interface {
	// Transaction runs fn against a repository bound to one database transaction.
	Transaction(ctx context.Context, fn func(repo StockRepository) error) error

	LockProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	UpdateProductStock(ctx context.Context, id uuid.UUID, stock decimal.Decimal, fy ledger.FinancialYear, updatedBy string) error
	FindProducts(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	NextSequence(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear) (int64, error)
	CreateTransaction(ctx context.Context, tx *model.StockTransaction) error
	ListPartition(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear) ([]model.StockTransaction, error)
	UpdateRunningBalances(ctx context.Context, balances map[uuid.UUID]decimal.Decimal) error
	FindTransactionByID(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.StockTransaction, error)

	FindOpening(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear) (*model.StockOpening, error)
	UpsertOpening(ctx context.Context, opening *model.StockOpening) error
	// LatestClosedYear is the last year closed for the product, zero when none is.
	LatestClosedYear(ctx context.Context, productID uuid.UUID) (ledger.FinancialYear, error)

	HasActivityBefore(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear) (bool, error)
	ListFinancialYears(ctx context.Context, productID uuid.UUID) ([]ledger.FinancialYear, error)
	ListProductIDsWithActivity(ctx context.Context, upTo ledger.FinancialYear) ([]uuid.UUID, error)
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) Transaction(ctx context.Context, fn func(repo StockRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&stockRepo{db: tx})
	})
}

// LockProduct takes a row lock on the product for the rest of the transaction.
// Every partition write of that product goes through it.
func (r *stockRepo) LockProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &product, nil
}

func (r *stockRepo) UpdateProductStock(ctx context.Context, id uuid.UUID, stock decimal.Decimal, fy ledger.FinancialYear, updatedBy string) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      stock,
			"stock_year": fy,
			"updated_by": updatedBy,
		}).Error
}

// FindProducts returns the given products, or every product when ids is empty.
func (r *stockRepo) FindProducts(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).Order("name ASC")
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	err := q.Find(&products).Error
	return products, err
}

func (r *stockRepo) NextSequence(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear) (int64, error) {
	var last int64
	err := r.db.WithContext(ctx).Model(&model.StockTransaction{}).
		Where("product_id = ? AND financial_year = ?", productID, fy).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error
	return last + 1, err
}

func (r *stockRepo) CreateTransaction(ctx context.Context, tx *model.StockTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *stockRepo) ListPartition(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear) ([]model.StockTransaction, error) {
	var rows []model.StockTransaction
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND financial_year = ?", productID, fy).
		Order("transaction_date ASC").
		Order("sequence ASC").
		Find(&rows).Error
	return rows, err
}

func (r *stockRepo) UpdateRunningBalances(ctx context.Context, balances map[uuid.UUID]decimal.Decimal) error {
	for id, balance := range balances {
		err := r.db.WithContext(ctx).Model(&model.StockTransaction{}).
			Where("id = ?", id).
			Update("running_balance", balance).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *stockRepo) FindTransactionByID(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error) {
	var row model.StockTransaction
	err := r.db.WithContext(ctx).Preload("Product").Preload("CreatedByUser").First(&row, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &row, nil
}

func (r *stockRepo) ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.StockTransaction, error) {
	var rows []model.StockTransaction
	q := r.db.WithContext(ctx).Preload("Product").Preload("CreatedByUser")
	if filter.ProductID != uuid.Nil {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	if !filter.FinancialYear.IsZero() {
		q = q.Where("financial_year = ?", filter.FinancialYear)
	}
	if filter.EntryType != "" {
		q = q.Where("entry_type = ?", filter.EntryType)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Order("transaction_date DESC").Order("sequence DESC").Find(&rows).Error
	return rows, err
}

// FindOpening returns nil without error when the partition has no opening row.
func (r *stockRepo) FindOpening(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear) (*model.StockOpening, error) {
	var rows []model.StockOpening
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND financial_year = ?", productID, fy).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (r *stockRepo) UpsertOpening(ctx context.Context, opening *model.StockOpening) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "financial_year"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "value", "closed", "updated_at", "updated_by"}),
	}).Create(opening).Error
}

// HasActivityBefore reports whether the product has transactions or an
// opening row in any year earlier than fy. Years compare lexically as "YYYY-YY".
func (r *stockRepo) HasActivityBefore(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM (
			SELECT 1 FROM stock_transactions
			WHERE product_id = ? AND financial_year < ? AND deleted_at IS NULL
			UNION ALL
			SELECT 1 FROM stock_openings
			WHERE product_id = ? AND financial_year < ? AND deleted_at IS NULL
		) AS activity`, productID, fy, productID, fy).
		Scan(&count).Error
	return count > 0, err
}

func (r *stockRepo) LatestClosedYear(ctx context.Context, productID uuid.UUID) (ledger.FinancialYear, error) {
	var rows []model.StockOpening
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND closed = ?", productID, true).
		Order("financial_year DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	// a closed opening row of fy freezes fy-1
	return rows[0].FinancialYear.Previous(), nil
}

// ListFinancialYears returns every year the product has rows in, ascending.
func (r *stockRepo) ListFinancialYears(ctx context.Context, productID uuid.UUID) ([]ledger.FinancialYear, error) {
	var raw []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT financial_year FROM stock_transactions WHERE product_id = ? AND deleted_at IS NULL
		UNION
		SELECT financial_year FROM stock_openings WHERE product_id = ? AND deleted_at IS NULL
		ORDER BY financial_year ASC`, productID, productID).
		Scan(&raw).Error
	if err != nil {
		return nil, err
	}
	return parseYears(raw)
}

func (r *stockRepo) ListProductIDsWithActivity(ctx context.Context, upTo ledger.FinancialYear) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		SELECT product_id FROM stock_transactions WHERE financial_year <= ? AND deleted_at IS NULL
		UNION
		SELECT product_id FROM stock_openings WHERE financial_year <= ? AND deleted_at IS NULL`, upTo, upTo).
		Scan(&ids).Error
	return ids, err
}

func parseYears(raw []string) ([]ledger.FinancialYear, error) {
	years := make([]ledger.FinancialYear, 0, len(raw))
	for _, s := range raw {
		fy, err := ledger.ParseFinancialYear(s)
		if err != nil {
			return nil, err
		}
		years = append(years, fy)
	}
	return years, nil
}
