package catalog

import (
	"slices"

	"github.com/samber/lo"

	"github.com/hazadus/quantum-radio/internal/api"
)

// View хранит базовый список треков, фильтр и текущую страницу.
// Не потокобезопасен: используется из одного цикла событий интерфейса.
type View struct {
	base     []api.Track
	filter   Filter
	filtered []api.Track
	page     int
	pageSize int
}

// NewView создает пустое представление каталога
func NewView(pageSize int) *View {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &View{
		filter:   DefaultFilter(),
		page:     1,
		pageSize: pageSize,
	}
}

// SetTracks заменяет базовый список и возвращает на первую страницу
func (v *View) SetTracks(tracks []api.Track) {
	v.base = slices.Clone(tracks)
	v.refresh()
}

// SetFilter заменяет фильтр и возвращает на первую страницу
func (v *View) SetFilter(f Filter) {
	v.filter = f
	v.refresh()
}

// UpdateFilter изменяет фильтр функцией fn и возвращает на первую страницу
func (v *View) UpdateFilter(fn func(*Filter)) {
	f := v.filter
	fn(&f)
	v.SetFilter(f)
}

// Shuffle перемешивает текущую выборку и возвращает на первую страницу.
// Базовый список и фильтр не меняются; следующий SetFilter или SetTracks
// восстанавливает сортировку.
func (v *View) Shuffle() {
	v.filtered = lo.Shuffle(v.filtered)
	v.page = 1
}

func (v *View) refresh() {
	v.filtered = Apply(v.base, v.filter)
	v.page = 1
}

// Filter возвращает текущий фильтр
func (v *View) Filter() Filter {
	return v.filter
}

// Base возвращает базовый список треков
func (v *View) Base() []api.Track {
	return v.base
}

// Filtered возвращает все треки текущей выборки
func (v *View) Filtered() []api.Track {
	return v.filtered
}

// PageSize возвращает размер страницы
func (v *View) PageSize() int {
	return v.pageSize
}

// SetPage переходит на страницу n с ограничением по числу страниц
func (v *View) SetPage(n int) {
	v.page = Paginate(v.filtered, n, v.pageSize).Page
}

// NextPage переходит на следующую страницу, если она есть
func (v *View) NextPage() bool {
	current := v.Current()
	if current.Page >= current.TotalPages {
		return false
	}
	v.page++
	return true
}

// PrevPage переходит на предыдущую страницу, если она есть
func (v *View) PrevPage() bool {
	if v.page <= 1 {
		return false
	}
	v.page--
	return true
}

// Current возвращает текущую страницу
func (v *View) Current() Page {
	return Paginate(v.filtered, v.page, v.pageSize)
}
