package domain

import (
	"time"

	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
)

// UserSearch agrupa los criterios de búsqueda de usuarios. Los campos vacíos
// no filtran.
type UserSearch struct {
	Email    string `form:"email"`
	Name     string `form:"name"`
	City     string `form:"city"`
	Tag      string `form:"tag"` // etiqueta principal, ver FirstTagIs
	MinAge   *int   `form:"minAge"`
	MaxAge   *int   `form:"maxAge"`
	SortBy   string `form:"sortBy"`
	Desc     bool   `form:"desc"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// ---------------- Criterios ----------------

// ByEmail filtra por email exacto.
func ByEmail(email string) filter.SearchQuery {
	return filter.SearchQuery{By: "email", Operator: "eq", Value: email}
}

// NameLike busca el nombre sin distinguir mayúsculas.
func NameLike(name string) filter.SearchQuery {
	return filter.SearchQuery{By: "name", Operator: "iLike", Value: "%" + name + "%"}
}

// LivesIn filtra por la ciudad de la dirección anidada.
func LivesIn(city string) filter.SearchQuery {
	return filter.SearchQuery{By: "address.city", Operator: "eq", Value: city}
}

// FirstTagIs filtra por la etiqueta principal (tags[0]); el resto de la
// lista no se mira.
func FirstTagIs(tag string) filter.SearchQuery {
	return filter.SearchQuery{By: "tags[0]", Operator: "eq", Value: tag}
}

// AgeRange traduce edades a un rango de fechas de nacimiento. Las fechas se
// guardan en RFC 3339 UTC, así que la comparación de cadenas es cronológica.
func AgeRange(min, max *int, now time.Time) []filter.SearchQuery {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var qs []filter.SearchQuery
	if min != nil {
		qs = append(qs, filter.SearchQuery{
			By:       "birthDate",
			Operator: "lte",
			Value:    today.AddDate(-*min, 0, 0).Format(time.RFC3339),
		})
	}
	if max != nil {
		// Nacidos como pronto el día siguiente a hoy menos (max+1) años.
		qs = append(qs, filter.SearchQuery{
			By:       "birthDate",
			Operator: "gte",
			Value:    today.AddDate(-(*max + 1), 0, 1).Format(time.RFC3339),
		})
	}
	return qs
}

// ToFilter compone los criterios con AND.
func (s UserSearch) ToFilter(now time.Time) filter.Filter {
	var qs []filter.SearchQuery
	if s.Email != "" {
		qs = append(qs, ByEmail(s.Email))
	}
	if s.Name != "" {
		qs = append(qs, NameLike(s.Name))
	}
	if s.City != "" {
		qs = append(qs, LivesIn(s.City))
	}
	if s.Tag != "" {
		qs = append(qs, FirstTagIs(s.Tag))
	}
	ages := AgeRange(s.MinAge, s.MaxAge, now)
	if len(ages) == 2 {
		// Dos criterios sobre birthDate: en AND el último ganaría, se usa between.
		qs = append(qs, filter.SearchQuery{
			By:       "birthDate",
			Operator: "between",
			Value:    []any{ages[1].Value, ages[0].Value},
		})
	} else {
		qs = append(qs, ages...)
	}

	f := filter.Filter{Logic: "AND"}
	if len(qs) > 0 {
		f.Filters = filter.Many(qs...)
	}
	if s.SortBy != "" {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		f.Order = []filter.Order{{By: s.SortBy, Operator: dir}}
	}
	if s.Page > 0 || s.PageSize > 0 {
		f.Pagination = &filter.Pagination{Page: s.Page, PageSize: s.PageSize}
	}
	return f
}
