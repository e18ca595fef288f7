package services

import (
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"artventure/internal/domain"
	"artventure/internal/repos"
	"artventure/internal/validate"
)

var inputValidator = validator.New()

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

func (s *CatalogService) ListPublished(featuredOnly bool) ([]domain.Product, error) {
	return s.Prods.ListPublished(featuredOnly)
}

func (s *CatalogService) ListAll() ([]domain.Product, error) {
	return s.Prods.ListAll()
}

// Get resolves a product by id, falling back to slug lookup so both
// /products/prod-x and /products/rose-gold-necklace work.
func (s *CatalogService) Get(idOrSlug string) (domain.Product, error) {
	p, err := s.Prods.Get(idOrSlug)
	if errors.Is(err, sql.ErrNoRows) {
		return s.Prods.GetBySlug(idOrSlug)
	}
	return p, err
}

type ProductInput struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Description    string  `json:"description"`
	Price          float64 `json:"price" validate:"gte=0"`
	InventoryCount int     `json:"inventory_count" validate:"gte=0"`
	ImageURL       string  `json:"image_url"`
	IsPublished    bool    `json:"is_published"`
	Featured       bool    `json:"featured"`
}

func (s *CatalogService) Create(in ProductInput) (domain.Product, error) {
	if err := inputValidator.Struct(in); err != nil {
		return domain.Product{}, badRequest("Invalid product: " + err.Error())
	}
	p := domain.Product{
		ID:             "prod-" + uuid.NewString()[:8],
		Name:           in.Name,
		Slug:           validate.Slug(in.Name),
		Description:    in.Description,
		Price:          domain.RoundCents(in.Price),
		InventoryCount: in.InventoryCount,
		ImageURL:       in.ImageURL,
		IsPublished:    in.IsPublished,
		Featured:       in.Featured,
	}
	if err := s.Prods.Create(&p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Update rewrites a product; the slug is regenerated whenever the name
// changes, per the catalog's rename rule.
func (s *CatalogService) Update(id string, in ProductInput) (domain.Product, error) {
	if err := inputValidator.Struct(in); err != nil {
		return domain.Product{}, badRequest("Invalid product: " + err.Error())
	}
	p, err := s.Prods.Get(id)
	if err != nil {
		return domain.Product{}, err
	}
	if in.Name != p.Name {
		p.Slug = validate.Slug(in.Name)
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Price = domain.RoundCents(in.Price)
	p.InventoryCount = in.InventoryCount
	p.ImageURL = in.ImageURL
	p.IsPublished = in.IsPublished
	p.Featured = in.Featured
	if err := s.Prods.Update(&p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) Delete(id string) error {
	return s.Prods.Delete(id)
}
