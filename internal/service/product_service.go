package service

import (
	"context"
	"errors"
	"fmt"

	"profitpath-api/internal/model"
	"profitpath-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProductService interface {
	CreateProduct(ctx context.Context, req *CreateProductRequest, actor Actor) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor Actor) (*model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

type CreateProductRequest struct {
	SKU     string          `json:"sku" validate:"required,max=50"`
	Name    string          `json:"name" validate:"required,max=255"`
	HSNCode string          `json:"hsn_code" validate:"max=16"`
	Unit    string          `json:"unit" validate:"max=20"`
	Price   decimal.Decimal `json:"price" validate:"gte=0"`

	// Optional opening balance for the current financial year.
	OpeningStock decimal.NullDecimal `json:"opening_stock" validate:"omitempty,gte=0"`
	OpeningValue decimal.NullDecimal `json:"opening_value" validate:"omitempty,gte=0"`
}

type UpdateProductRequest struct {
	Name    string          `json:"name" validate:"required,max=255"`
	HSNCode string          `json:"hsn_code" validate:"max=16"`
	Unit    string          `json:"unit" validate:"max=20"`
	Price   decimal.Decimal `json:"price" validate:"gte=0"`
}

type productService struct {
	productRepo repository.ProductRepository
	stock       StockService
	events      EventPublisher
	log         logrus.FieldLogger
}

func NewProductService(productRepo repository.ProductRepository, stock StockService, events EventPublisher, log logrus.FieldLogger) ProductService {
	return &productService{
		productRepo: productRepo,
		stock:       stock,
		events:      events,
		log:         log.WithField("module", "product"),
	}
}

func (s *productService) CreateProduct(ctx context.Context, req *CreateProductRequest, actor Actor) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	existing, err := s.productRepo.FindBySKU(ctx, req.SKU)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSKUExists
	}

	product := &model.Product{
		SKU:     req.SKU,
		Name:    req.Name,
		HSNCode: req.HSNCode,
		Unit:    req.Unit,
		Price:   req.Price,
		Stock:   decimal.Zero,
	}
	product.Stamp(actor.ID)
	product.CreatedByUserID = actor.UserID()
	product.UpdatedByUserID = actor.UserID()

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	if req.OpeningStock.Valid {
		value := decimal.Zero
		if req.OpeningValue.Valid {
			value = req.OpeningValue.Decimal
		}
		fy := s.stock.CurrentFinancialYear()
		if _, err := s.stock.SetOpeningStock(ctx, &SetOpeningRequest{
			ProductID:     product.ID,
			FinancialYear: fy,
			Quantity:      req.OpeningStock.Decimal,
			Value:         value,
		}, actor); err != nil {
			return nil, fmt.Errorf("opening stock for %s: %w", product.SKU, err)
		}
		product.Stock = req.OpeningStock.Decimal
		product.StockYear = fy
	}

	s.log.WithFields(logrus.Fields{"product_id": product.ID, "sku": product.SKU, "user_id": actor.ID}).Info("product created")
	s.publish("product_created", product, actor)
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor Actor) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	product.Name = req.Name
	product.HSNCode = req.HSNCode
	product.Unit = req.Unit
	product.Price = req.Price
	product.Stamp(actor.ID)
	product.UpdatedByUserID = actor.UserID()

	if err := s.productRepo.UpdateDetails(ctx, product); err != nil {
		return nil, err
	}

	s.publish("product_updated", product, actor)
	return product, nil
}

func (s *productService) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindAll(ctx)
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

func (s *productService) publish(action string, product *model.Product, actor Actor) {
	if s.events == nil {
		return
	}
	verb := "created"
	if action == "product_updated" {
		verb = "updated"
	}
	s.events.Publish(map[string]interface{}{
		"type":    "stock_update",
		"action":  action,
		"product": productPayload(product),
		"user":    actorPayload(actor),
		"message": fmt.Sprintf("%s %s product '%s'", actor.Name, verb, product.Name),
	})
}
