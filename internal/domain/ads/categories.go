package ads

import (
	"errors"
	"strings"
)

var (
	ErrUnknownCategory    = errors.New("ads: unknown category")
	ErrUnknownSubcategory = errors.New("ads: unknown subcategory")
)

// Category groups a set of subcategories under one catalog section.
type Category struct {
	Key           string
	Name          string
	Subcategories []Subcategory
}

type Subcategory struct {
	Key  string
	Name string
}

// Categories is the fixed catalog taxonomy.
var Categories = []Category{
	{
		Key:  "automobiles",
		Name: "Автомобілі",
		Subcategories: []Subcategory{
			{Key: "sale", Name: "Продаж Автомобілі"},
			{Key: "trucks", Name: "Продаж вантажівок"},
			{Key: "vinyls", Name: "Продаж Вініли"},
			{Key: "parts", Name: "Продаж Деталі"},
			{Key: "numbers", Name: "Продаж Номера"},
			{Key: "car-rental", Name: "Оренда автомобіля"},
			{Key: "truck-rental", Name: "Оренда вантажівок"},
		},
	},
	{
		Key:  "clothing",
		Name: "Одяг",
		Subcategories: []Subcategory{
			{Key: "sale", Name: "Продаж одягу"},
			{Key: "accessories", Name: "Продаж аксесуарів"},
			{Key: "backpacks", Name: "Продаж рюкзаків"},
		},
	},
	{
		Key:  "real-estate",
		Name: "Нерухомість",
		Subcategories: []Subcategory{
			{Key: "business", Name: "Продаж бізнесу"},
			{Key: "apartments", Name: "Продаж квартир"},
			{Key: "houses", Name: "Продаж приватних будинків"},
			{Key: "greenhouses", Name: "Оренда теплиць"},
		},
	},
	{
		Key:  "other",
		Name: "Інше",
		Subcategories: []Subcategory{
			{Key: "misc", Name: "Різне"},
		},
	},
}

// ValidateTaxonomy checks that the category exists and the subcategory belongs to it.
func ValidateTaxonomy(category, subcategory string) error {
	category = strings.TrimSpace(category)
	subcategory = strings.TrimSpace(subcategory)
	for _, cat := range Categories {
		if cat.Key != category {
			continue
		}
		for _, sub := range cat.Subcategories {
			if sub.Key == subcategory {
				return nil
			}
		}
		return ErrUnknownSubcategory
	}
	return ErrUnknownCategory
}
