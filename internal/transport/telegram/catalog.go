package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/config"
	"github.com/DmitriiButk/market-bot/internal/repository"
)

func (h *Handler) showCategories(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		h.log.Error("Ошибка при загрузке категорий",
			zap.Int64("user_id", cq.From.ID), zap.Error(err))
		h.answerCallback(cq.ID, "Произошла ошибка при загрузке каталога")
		return
	}

	if len(categories) == 0 {
		h.editText(cq, "Каталог пока пуст.", tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
		))
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories)+1)
	for _, cat := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(cat.Name, fmt.Sprintf("category_%d", cat.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(mainMenuButton()))

	h.editText(cq, "Выберите категорию:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// showCategory показывает подкатегории, а при их отсутствии — сразу товары.
func (h *Handler) showCategory(ctx context.Context, cq *tgbotapi.CallbackQuery, categoryID int64) {
	subcategories, err := h.catalog.ListSubcategories(ctx, categoryID)
	if err != nil {
		h.log.Error("Ошибка при загрузке подкатегорий",
			zap.Int64("category_id", categoryID), zap.Error(err))
		h.answerCallback(cq.ID, "Произошла ошибка при загрузке каталога")
		return
	}

	if len(subcategories) == 0 {
		h.showProducts(ctx, cq, &categoryID, nil, 1)
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(subcategories)+2)
	for _, sub := range subcategories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(sub.Name, fmt.Sprintf("subcategory_%d", sub.ID)),
		))
	}
	rows = append(rows, backButtonRow("catalog"))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(mainMenuButton()))

	h.editText(cq, "Выберите подкатегорию:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handler) showSubcategoryProducts(ctx context.Context, cq *tgbotapi.CallbackQuery, subcategoryID int64) {
	h.showProducts(ctx, cq, nil, &subcategoryID, 1)
}

// handleProductsPage разбирает callback вида products_page_{cat}_{sub}_{page};
// ноль означает отсутствие фильтра.
func (h *Handler) handleProductsPage(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	parts := strings.Split(strings.TrimPrefix(cq.Data, "products_page_"), "_")
	if len(parts) != 3 {
		h.log.Warn("Некорректный callback пагинации", zap.String("data", cq.Data))
		return
	}

	catID, _ := strconv.ParseInt(parts[0], 10, 64)
	subID, _ := strconv.ParseInt(parts[1], 10, 64)
	page, _ := strconv.Atoi(parts[2])

	var categoryID, subcategoryID *int64
	if catID != 0 {
		categoryID = &catID
	}
	if subID != 0 {
		subcategoryID = &subID
	}
	if page < 1 {
		page = 1
	}

	h.showProducts(ctx, cq, categoryID, subcategoryID, page)
}

func (h *Handler) showProducts(ctx context.Context, cq *tgbotapi.CallbackQuery, categoryID, subcategoryID *int64, page int) {
	products, total, err := h.catalog.ListProducts(ctx, repository.ProductListFilter{
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		Page:          page,
		PerPage:       config.ProductsPerPage,
	})
	if err != nil {
		h.log.Error("Ошибка при загрузке товаров", zap.Error(err))
		h.answerCallback(cq.ID, "Произошла ошибка при загрузке товаров")
		return
	}

	backData := h.productsBackButton(ctx, categoryID, subcategoryID)

	if len(products) == 0 {
		h.editText(cq, "В этой категории пока нет товаров.", tgbotapi.NewInlineKeyboardMarkup(
			backButtonRow(backData),
			tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
		))
		return
	}

	title := h.productsTitle(ctx, categoryID, subcategoryID)

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(products)+4)
	for _, p := range products {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s - %s ₽", p.Name, rubles(p.PriceKopecks)),
				fmt.Sprintf("product_%d", p.ID),
			),
		))
	}

	totalPages := (int(total) + config.ProductsPerPage - 1) / config.ProductsPerPage
	if totalPages > 1 {
		var pagination []tgbotapi.InlineKeyboardButton
		catID, subID := int64(0), int64(0)
		if categoryID != nil {
			catID = *categoryID
		}
		if subcategoryID != nil {
			subID = *subcategoryID
		}

		if page > 1 {
			pagination = append(pagination, tgbotapi.NewInlineKeyboardButtonData(
				"⬅️", fmt.Sprintf("products_page_%d_%d_%d", catID, subID, page-1)))
		}
		pagination = append(pagination, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d/%d", page, totalPages), "ignore"))
		if page < totalPages {
			pagination = append(pagination, tgbotapi.NewInlineKeyboardButtonData(
				"➡️", fmt.Sprintf("products_page_%d_%d_%d", catID, subID, page+1)))
		}
		rows = append(rows, pagination)
	}

	rows = append(rows, backButtonRow(backData))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🛒 Корзина", "cart"),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(mainMenuButton()))

	h.editText(cq, title, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handler) productsTitle(ctx context.Context, categoryID, subcategoryID *int64) string {
	switch {
	case categoryID != nil:
		name := "Категория"
		if cat, err := h.catalog.GetCategory(ctx, *categoryID); err == nil && cat != nil {
			name = cat.Name
		}
		return fmt.Sprintf("Товары в категории «%s»:", name)
	case subcategoryID != nil:
		name := "Подкатегория"
		if sub, err := h.catalog.GetSubcategory(ctx, *subcategoryID); err == nil && sub != nil {
			name = sub.Name
		}
		return fmt.Sprintf("Товары в подкатегории «%s»:", name)
	default:
		return "Товары:"
	}
}

func (h *Handler) productsBackButton(ctx context.Context, categoryID, subcategoryID *int64) string {
	if subcategoryID != nil {
		if sub, err := h.catalog.GetSubcategory(ctx, *subcategoryID); err == nil && sub != nil {
			return fmt.Sprintf("category_%d", sub.CategoryID)
		}
	}
	return "catalog"
}

func (h *Handler) showProduct(ctx context.Context, cq *tgbotapi.CallbackQuery, productID int64) {
	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		h.log.Error("Ошибка при загрузке товара",
			zap.Int64("product_id", productID), zap.Error(err))
		h.answerCallback(cq.ID, errDefault)
		return
	}
	if product == nil {
		h.log.Error("Товар не найден",
			zap.Int64("product_id", productID), zap.Int64("user_id", cq.From.ID))
		h.answerCallback(cq.ID, "Товар не найден")
		return
	}

	backData := fmt.Sprintf("category_%d", product.CategoryID)
	if product.SubcategoryID != nil {
		backData = fmt.Sprintf("subcategory_%d", *product.SubcategoryID)
	}

	text := fmt.Sprintf("<b>%s</b>\n\n%s\n\nЦена: <b>%s ₽</b>",
		product.Name, product.Description, rubles(product.PriceKopecks))

	h.editText(cq, text, tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить в корзину",
				fmt.Sprintf("add_to_cart_%d", product.ID)),
		),
		backButtonRow(backData),
		tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
	))
}
