package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/DmitriiButk/market-bot/internal/models"
)

type ProductListFilter struct {
	CategoryID    *int64
	SubcategoryID *int64
	Page          int // с единицы
	PerPage       int
}

type CatalogRepo interface {
	ListCategories(ctx context.Context) ([]models.ProductCategory, error)
	ListSubcategories(ctx context.Context, categoryID int64) ([]models.ProductSubcategory, error)
	GetCategory(ctx context.Context, id int64) (*models.ProductCategory, error)
	GetSubcategory(ctx context.Context, id int64) (*models.ProductSubcategory, error)
	ListProducts(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepo(db *gorm.DB) CatalogRepo { return &catalogRepo{db: db} }

func (r *catalogRepo) ListCategories(ctx context.Context) ([]models.ProductCategory, error) {
	var list []models.ProductCategory
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("sort_order, name").
		Find(&list).Error
	return list, err
}

func (r *catalogRepo) ListSubcategories(ctx context.Context, categoryID int64) ([]models.ProductSubcategory, error) {
	var list []models.ProductSubcategory
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND active = ?", categoryID, true).
		Order("sort_order, name").
		Find(&list).Error
	return list, err
}

func (r *catalogRepo) GetCategory(ctx context.Context, id int64) (*models.ProductCategory, error) {
	var cat models.ProductCategory
	err := r.db.WithContext(ctx).First(&cat, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &cat, err
}

func (r *catalogRepo) GetSubcategory(ctx context.Context, id int64) (*models.ProductSubcategory, error) {
	var sub models.ProductSubcategory
	err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sub, err
}

func (r *catalogRepo) ListProducts(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("active = ?", true)

	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.SubcategoryID != nil {
		q = q.Where("subcategory_id = ?", *f.SubcategoryID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.PerPage <= 0 {
		f.PerPage = 20
	}
	if f.Page < 1 {
		f.Page = 1
	}

	var list []models.Product
	err := q.Order("sort_order, name").
		Limit(f.PerPage).
		Offset((f.Page - 1) * f.PerPage).
		Find(&list).Error
	return list, total, err
}

func (r *catalogRepo) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).First(&p, "id = ? AND active = ?", id, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}
