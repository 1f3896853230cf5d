package service

import (
	"context"
	"io"
	"testing"

	"profitpath-api/internal/model"
	"profitpath-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProductRepo shares its product table with a fakeStockRepo so
// opening balances land on the same rows.
type fakeProductRepo struct {
	stock *fakeStockRepo
}

func (f *fakeProductRepo) Create(ctx context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	f.stock.products[product.ID] = *product
	return nil
}

func (f *fakeProductRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	return f.stock.FindProducts(ctx, nil)
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := f.stock.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProductRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	for _, p := range f.stock.products {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProductRepo) UpdateDetails(ctx context.Context, product *model.Product) error {
	p := f.stock.products[product.ID]
	p.Name, p.HSNCode, p.Unit, p.Price = product.Name, product.HSNCode, product.Unit, product.Price
	f.stock.products[product.ID] = p
	return nil
}

func newProductFixture(t *testing.T) (*stockFixture, ProductService) {
	f := newStockFixture(t, false)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return f, NewProductService(&fakeProductRepo{stock: f.repo}, f.svc, f.events, log)
}

func TestProductService_CreateWithOpening(t *testing.T) {
	f, svc := newProductFixture(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, &CreateProductRequest{
		SKU:          "BOLT-10",
		Name:         "Bolt",
		Unit:         "pcs",
		Price:        decimal.RequireFromString("2.75"),
		OpeningStock: decimal.NewNullDecimal(decimal.NewFromInt(40)),
		OpeningValue: decimal.NewNullDecimal(decimal.NewFromInt(110)),
	}, tester)
	require.NoError(t, err)
	assert.Equal(t, "40", product.Stock.String())
	assert.Equal(t, f.svc.CurrentFinancialYear(), product.StockYear)
	require.NotNil(t, product.CreatedByUserID)

	opening, err := f.repo.FindOpening(ctx, product.ID, f.svc.CurrentFinancialYear())
	require.NoError(t, err)
	require.NotNil(t, opening)
	assert.Equal(t, "110", opening.Value.String())
	assert.Equal(t, "40", f.repo.product(product.ID).Stock.String())

	_, err = svc.CreateProduct(ctx, &CreateProductRequest{SKU: "BOLT-10", Name: "Other"}, tester)
	assert.ErrorIs(t, err, ErrSKUExists)

	_, err = svc.CreateProduct(ctx, &CreateProductRequest{SKU: "X"}, tester)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Contains(t, f.events.actions(), "product_created")
}

func TestProductService_UpdateKeepsStock(t *testing.T) {
	f, svc := newProductFixture(t)
	ctx := context.Background()
	p := f.repo.addProduct("SKU-1", "Widget")
	f.record(t, p.ID, "2024-05-01", "incoming", "", 9)

	updated, err := svc.UpdateProduct(ctx, p.ID, &UpdateProductRequest{
		Name: "Widget XL", Unit: "box", Price: decimal.NewFromInt(12),
	}, tester)
	require.NoError(t, err)
	assert.Equal(t, "Widget XL", updated.Name)

	stored := f.repo.product(p.ID)
	assert.Equal(t, "Widget XL", stored.Name)
	assert.Equal(t, "9", stored.Stock.String())

	_, err = svc.UpdateProduct(ctx, uuid.New(), &UpdateProductRequest{Name: "x"}, tester)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.GetProduct(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}
