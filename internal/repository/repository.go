package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrQuestionNotFound = errors.New("question not found")
)

type Repository struct {
	DB        *gorm.DB
	Catalog   CatalogRepo
	Cart      CartRepo
	Orders    OrderRepo
	Questions QuestionRepo
}

func New(db *gorm.DB) *Repository {
	return &Repository{
		DB:        db,
		Catalog:   NewCatalogRepo(db),
		Cart:      NewCartRepo(db),
		Orders:    NewOrderRepo(db),
		Questions: NewQuestionRepo(db),
	}
}
