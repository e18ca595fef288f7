package repos

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"artventure/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, name, slug, description, price, inventory_count, image_url,
  is_published, featured, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

// GetBySlug resolves a product by its URL slug.
func (r *ProductRepo) GetBySlug(slug string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE slug = ?`, slug)
	return p, err
}

// ListPublished returns the storefront catalog, optionally only featured
// products.
func (r *ProductRepo) ListPublished(featuredOnly bool) ([]domain.Product, error) {
	q := `SELECT ` + productCols + ` FROM products WHERE is_published = 1`
	if featuredOnly {
		q += ` AND featured = 1`
	}
	q += ` ORDER BY created_at DESC`
	var out []domain.Product
	err := r.db.Select(&out, q)
	return out, err
}

// ListAll is the admin view, including unpublished products.
func (r *ProductRepo) ListAll() ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `SELECT `+productCols+` FROM products ORDER BY created_at DESC`)
	return out, err
}

func (r *ProductRepo) Create(p *domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id,name,slug,description,price,inventory_count,image_url,is_published,featured,created_at)
	  VALUES(?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, p.ID, p.Name, p.Slug, p.Description, p.Price, p.InventoryCount, p.ImageURL, p.IsPublished, p.Featured)
	return err
}

func (r *ProductRepo) Update(p *domain.Product) error {
	res, err := r.db.Exec(`
	  UPDATE products SET name=?, slug=?, description=?, price=?, inventory_count=?,
	    image_url=?, is_published=?, featured=?, updated_at=?
	  WHERE id=?
	`, p.Name, p.Slug, p.Description, p.Price, p.InventoryCount,
		p.ImageURL, p.IsPublished, p.Featured, time.Now().UTC().Format(time.RFC3339), p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s not found", p.ID)
	}
	return nil
}

func (r *ProductRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM products WHERE id=?`, id)
	return err
}

// DecrementInventory atomically subtracts qty units if enough stock
// exists. The guard in the WHERE clause is the only thing standing between
// concurrent materializations and a negative count, so callers must not
// read-modify-write around it.
func (r *ProductRepo) DecrementInventory(productID string, qty int) error {
	res, err := r.db.Exec(`
		UPDATE products
		SET inventory_count = inventory_count - ?
		WHERE id = ? AND inventory_count >= ?
	`, qty, productID, qty)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("insufficient stock for %s", productID)
	}
	return nil
}
