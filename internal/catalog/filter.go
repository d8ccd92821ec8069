// Package catalog содержит фильтрацию, сортировку и постраничный вывод каталога треков
package catalog

import (
	"fmt"
	"strings"

	"github.com/samber/mo"
)

// SortKey - поле сортировки
type SortKey string

// Поля сортировки
const (
	SortViews SortKey = "views"
	SortLikes SortKey = "likes"
	SortDate  SortKey = "date"
	SortTitle SortKey = "title"
)

// SortKeys - все поля сортировки в порядке переключения
var SortKeys = []SortKey{SortViews, SortLikes, SortDate, SortTitle}

// Order - направление сортировки
type Order string

// Направления сортировки
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Filter описывает критерии выборки и порядок треков
type Filter struct {
	Search      string           // Подстрока для поиска, без учета регистра
	Channel     string           // Точное название канала, пусто - все каналы
	SortBy      SortKey          // Поле сортировки
	Order       Order            // Направление сортировки
	MinViews    mo.Option[int64] // Минимальное число просмотров, если задано
	HasHashtags bool             // Только треки с хэштегами
}

// DefaultFilter возвращает фильтр по умолчанию: все треки по просмотрам, по убыванию
func DefaultFilter() Filter {
	return Filter{
		SortBy: SortViews,
		Order:  Desc,
	}
}

// Active возвращает число включенных критериев отбора
func (f Filter) Active() int {
	n := 0
	if strings.TrimSpace(f.Search) != "" {
		n++
	}
	if f.Channel != "" {
		n++
	}
	if f.MinViews.IsPresent() {
		n++
	}
	if f.HasHashtags {
		n++
	}
	return n
}

// Cleared возвращает фильтр без критериев отбора с сохранением сортировки
func (f Filter) Cleared() Filter {
	return Filter{SortBy: f.SortBy, Order: f.Order}
}

// NextSortKey возвращает следующее поле сортировки по кругу
func (f Filter) NextSortKey() SortKey {
	for i, key := range SortKeys {
		if key == f.SortBy {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortViews
}

// Toggled возвращает противоположное направление сортировки
func (o Order) Toggled() Order {
	if o == Asc {
		return Desc
	}
	return Asc
}

// ParseSortKey разбирает поле сортировки из строки
func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range SortKeys {
		if k == key {
			return k, nil
		}
	}
	return "", fmt.Errorf("неизвестное поле сортировки %q (ожидается views, likes, date или title)", s)
}

// ParseOrder разбирает направление сортировки из строки
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", fmt.Errorf("неизвестное направление сортировки %q (ожидается asc или desc)", s)
}
