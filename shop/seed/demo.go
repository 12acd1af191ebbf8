package seed

import (
	"github.com/shopspring/decimal"

	"github.com/m3rciful/grocerybot/shop/domain"
)

func item(category, sub, name string, price int64, unit string, step, minQty int) domain.NewProductSeed {
	return domain.NewProductSeed{
		Category:    category,
		Subcategory: sub,
		Name:        name,
		Description: "Свежий товар: " + name,
		Price:       decimal.NewFromInt(price),
		Unit:        unit,
		Step:        step,
		MinQuantity: minQty,
	}
}

// Demo is a small storefront catalog for local runs.
func Demo() []domain.NewProductSeed {
	return []domain.NewProductSeed{
		item("🍎 Фрукты", "Яблоки", "Яблоки голден", 300, "кг", 1, 1),
		item("🍎 Фрукты", "Яблоки", "Яблоки гала", 260, "кг", 1, 1),
		item("🍎 Фрукты", "Яблоки", "Яблоки семеренко", 300, "кг", 1, 1),
		item("🍎 Фрукты", "Цитрусовые", "Апельсины", 360, "кг", 1, 1),
		item("🍎 Фрукты", "Цитрусовые", "Мандарины на ветке", 300, "кг", 1, 1),
		item("🍎 Фрукты", "Цитрусовые", "Грейпфрут", 260, "кг", 1, 1),
		item("🍎 Фрукты", "", "Авокадо", 590, "кг", 1, 1),
		item("🍎 Фрукты", "", "Бананы", 110, "кг", 1, 2),
		item("🍎 Фрукты", "", "Арбуз", 70, "кг", 1, 5),
		item("🍎 Фрукты", "", "Инжир", 100, "шт", 1, 1),
		item("🥕 Овощи", "Томаты", "Помидоры узбекские", 590, "кг", 1, 1),
		item("🥕 Овощи", "Томаты", "Помидоры краснодарские", 350, "кг", 1, 1),
		item("🥕 Овощи", "Картофель", "Картофель синеглазка", 85, "кг", 1, 3),
		item("🥕 Овощи", "Картофель", "Картофель гала", 65, "кг", 1, 3),
		item("🥕 Овощи", "", "Огурцы весна", 320, "кг", 1, 1),
		item("🥕 Овощи", "", "Морковь", 60, "кг", 1, 1),
		item("🥕 Овощи", "", "Перец чили", 15, "шт", 1, 1),
		item("🥕 Овощи", "", "Чеснок", 50, "100 г", 1, 1),
		item("🫐 Ягоды", "", "Голубика", 210, "100 г", 1, 1),
		item("🫐 Ягоды", "", "Малина", 410, "упак.", 1, 1),
		item("🌿 Зелень", "", "Укроп", 45, "100 г", 1, 1),
		item("🌿 Зелень", "", "Петрушка", 45, "100 г", 1, 1),
		item("🌿 Зелень", "", "Кинза", 50, "100 г", 1, 1),
		item("🌿 Зелень", "", "Базилик", 65, "100 г", 2, 2),
	}
}
