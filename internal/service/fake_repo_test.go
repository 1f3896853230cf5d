package service

import (
	"context"
	"sort"
	"sync"

	"profitpath-api/internal/ledger"
	"profitpath-api/internal/model"
	"profitpath-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type openingKey struct {
	productID uuid.UUID
	fy        ledger.FinancialYear
}

// fakeStockRepo keeps the ledger in memory. Transaction restores a snapshot
// when fn fails, mirroring a database rollback.
type fakeStockRepo struct {
	products map[uuid.UUID]model.Product
	txs      []model.StockTransaction
	openings map[openingKey]model.StockOpening
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{
		products: make(map[uuid.UUID]model.Product),
		openings: make(map[openingKey]model.StockOpening),
	}
}

func (f *fakeStockRepo) addProduct(sku, name string) model.Product {
	p := model.Product{SKU: sku, Name: name, Unit: "pcs", Stock: decimal.Zero}
	p.ID = uuid.New()
	f.products[p.ID] = p
	return p
}

func (f *fakeStockRepo) product(id uuid.UUID) model.Product {
	return f.products[id]
}

func (f *fakeStockRepo) Transaction(ctx context.Context, fn func(repo repository.StockRepository) error) error {
	products := make(map[uuid.UUID]model.Product, len(f.products))
	for k, v := range f.products {
		products[k] = v
	}
	txs := append([]model.StockTransaction(nil), f.txs...)
	openings := make(map[openingKey]model.StockOpening, len(f.openings))
	for k, v := range f.openings {
		openings[k] = v
	}

	if err := fn(f); err != nil {
		f.products, f.txs, f.openings = products, txs, openings
		return err
	}
	return nil
}

func (f *fakeStockRepo) LockProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStockRepo) UpdateProductStock(ctx context.Context, id uuid.UUID, stock decimal.Decimal, fy ledger.FinancialYear, updatedBy string) error {
	p := f.products[id]
	p.Stock = stock
	p.StockYear = fy
	p.UpdatedBy = updatedBy
	f.products[id] = p
	return nil
}

func (f *fakeStockRepo) FindProducts(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		if len(ids) == 0 || containsID(ids, p.ID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStockRepo) NextSequence(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear) (int64, error) {
	var last int64
	for _, t := range f.txs {
		if t.ProductID == productID && t.FinancialYear == fy && t.Sequence > last {
			last = t.Sequence
		}
	}
	return last + 1, nil
}

func (f *fakeStockRepo) CreateTransaction(ctx context.Context, tx *model.StockTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	f.txs = append(f.txs, *tx)
	return nil
}

func (f *fakeStockRepo) ListPartition(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear) ([]model.StockTransaction, error) {
	var rows []model.StockTransaction
	for _, t := range f.txs {
		if t.ProductID == productID && t.FinancialYear == fy {
			rows = append(rows, t)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].TransactionDate.Equal(rows[j].TransactionDate) {
			return rows[i].TransactionDate.Before(rows[j].TransactionDate)
		}
		return rows[i].Sequence < rows[j].Sequence
	})
	return rows, nil
}

func (f *fakeStockRepo) UpdateRunningBalances(ctx context.Context, balances map[uuid.UUID]decimal.Decimal) error {
	for i := range f.txs {
		if b, ok := balances[f.txs[i].ID]; ok {
			f.txs[i].RunningBalance = b
		}
	}
	return nil
}

func (f *fakeStockRepo) FindTransactionByID(ctx context.Context, id uuid.UUID) (*model.StockTransaction, error) {
	for _, t := range f.txs {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStockRepo) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]model.StockTransaction, error) {
	var rows []model.StockTransaction
	for _, t := range f.txs {
		if filter.ProductID != uuid.Nil && t.ProductID != filter.ProductID {
			continue
		}
		if !filter.FinancialYear.IsZero() && t.FinancialYear != filter.FinancialYear {
			continue
		}
		if filter.EntryType != "" && t.EntryType != filter.EntryType {
			continue
		}
		rows = append(rows, t)
	}
	return rows, nil
}

func (f *fakeStockRepo) FindOpening(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear) (*model.StockOpening, error) {
	o, ok := f.openings[openingKey{productID, fy}]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (f *fakeStockRepo) UpsertOpening(ctx context.Context, opening *model.StockOpening) error {
	if opening.ID == uuid.Nil {
		opening.ID = uuid.New()
	}
	f.openings[openingKey{opening.ProductID, opening.FinancialYear}] = *opening
	return nil
}

func (f *fakeStockRepo) LatestClosedYear(ctx context.Context, productID uuid.UUID) (ledger.FinancialYear, error) {
	var latest ledger.FinancialYear
	for k, o := range f.openings {
		if k.productID == productID && o.Closed && o.FinancialYear.Previous() > latest {
			latest = o.FinancialYear.Previous()
		}
	}
	return latest, nil
}

func (f *fakeStockRepo) HasActivityBefore(ctx context.Context, productID uuid.UUID, fy ledger.FinancialYear) (bool, error) {
	for _, y := range f.years(productID) {
		if y < fy {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStockRepo) ListFinancialYears(ctx context.Context, productID uuid.UUID) ([]ledger.FinancialYear, error) {
	return f.years(productID), nil
}

func (f *fakeStockRepo) ListProductIDsWithActivity(ctx context.Context, upTo ledger.FinancialYear) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range f.products {
		years := f.years(id)
		if len(years) > 0 && years[0] <= upTo {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeStockRepo) years(productID uuid.UUID) []ledger.FinancialYear {
	seen := make(map[ledger.FinancialYear]bool)
	for _, t := range f.txs {
		if t.ProductID == productID {
			seen[t.FinancialYear] = true
		}
	}
	for k := range f.openings {
		if k.productID == productID {
			seen[k.fy] = true
		}
	}
	years := make([]ledger.FinancialYear, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Slice(years, func(i, j int) bool { return years[i] < years[j] })
	return years
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []map[string]interface{}
}

func (p *recordingPublisher) Publish(event any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := event.(map[string]interface{}); ok {
		p.events = append(p.events, m)
	}
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i], _ = e["action"].(string)
	}
	return out
}
