package services

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/politologod/vibes-marketplace/internal/models"
)

// ListParams is the recognized filter/sort/page configuration for the product
// listing endpoint.
type ListParams struct {
	Search    string
	Available *bool // nil means "not specified"
	Sort      string
	Order     string
	Page      int
	Limit     int
}

// ApplyDefaults clamps paging values into range. Zero or negative page/limit
// fall back to the defaults; limit is capped.
func (p *ListParams) ApplyDefaults(defaultLimit, maxLimit int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
}

// Filter translates the params into a MongoDB filter document.
//
// Availability: true restricts to active listings with stock; false selects
// the complement; absent defaults to active-only with no stock clause.
// Search is a case-insensitive substring match OR'd across name, description,
// category and tags; blank or whitespace-only search adds no clause.
func (p ListParams) Filter() bson.M {
	filter := bson.M{}
	var clauses []bson.M

	if p.Available != nil {
		if *p.Available {
			filter["estado"] = models.EstadoActivo
			filter["stock"] = bson.M{"$gt": 0}
		} else {
			clauses = append(clauses, bson.M{"$or": bson.A{
				bson.M{"estado": bson.M{"$ne": models.EstadoActivo}},
				bson.M{"stock": bson.M{"$lte": 0}},
			}})
		}
	} else {
		filter["estado"] = models.EstadoActivo
	}

	if search := strings.TrimSpace(p.Search); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		clauses = append(clauses, bson.M{"$or": bson.A{
			bson.M{"nombre": pattern},
			bson.M{"descripcion": pattern},
			bson.M{"categoria": pattern},
			bson.M{"etiquetas": bson.M{"$in": bson.A{pattern}}},
		}})
	}

	// Both branches produce $or clauses; $and keeps them from clobbering each other.
	switch len(clauses) {
	case 0:
	case 1:
		for k, v := range clauses[0] {
			filter[k] = v
		}
	default:
		filter["$and"] = clauses
	}

	return filter
}

// SortField resolves the client-facing sort alias to the stored field name.
// Unrecognized values fall back to the creation timestamp.
func (p ListParams) SortField() string {
	switch p.Sort {
	case "price":
		return "precio"
	case "name":
		return "nombre"
	default:
		return "fechaCreacion"
	}
}

// SortDoc returns the sort document. Order defaults to descending.
func (p ListParams) SortDoc() bson.D {
	order := -1
	if p.Order == "asc" {
		order = 1
	}
	return bson.D{{Key: p.SortField(), Value: order}}
}

// Skip returns the number of documents to skip for the requested page.
func (p ListParams) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// Pagination is the page metadata returned alongside listing results.
type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalProducts int64 `json:"totalProducts"`
	HasNextPage   bool  `json:"hasNextPage"`
	HasPrevPage   bool  `json:"hasPrevPage"`
}

// NewPagination computes page metadata for a total result count.
func NewPagination(params ListParams, total int64) Pagination {
	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	return Pagination{
		CurrentPage:   params.Page,
		TotalPages:    totalPages,
		TotalProducts: total,
		HasNextPage:   params.Skip()+int64(params.Limit) < total,
		HasPrevPage:   params.Page > 1,
	}
}

// AppliedFilters echoes the resolved filter configuration in list responses.
type AppliedFilters struct {
	Search    string `json:"search"`
	Sort      string `json:"sort"`
	Order     string `json:"order"`
	Available string `json:"available,omitempty"`
}

// Applied returns the echo document for a params value.
func (p ListParams) Applied() AppliedFilters {
	order := p.Order
	if order != "asc" {
		order = "desc"
	}
	applied := AppliedFilters{
		Search: p.Search,
		Sort:   p.SortField(),
		Order:  order,
	}
	if p.Available != nil {
		if *p.Available {
			applied.Available = "true"
		} else {
			applied.Available = "false"
		}
	}
	return applied
}

// SearchParams configures the relevance-ranked text search endpoint.
type SearchParams struct {
	Query     string
	Categoria string
	Limit     int
}

// Filter translates the params into a $text filter over active listings.
func (p SearchParams) Filter() bson.M {
	filter := bson.M{
		"estado": models.EstadoActivo,
		"$text":  bson.M{"$search": p.Query},
	}
	if p.Categoria != "" {
		filter["categoria"] = p.Categoria
	}
	return filter
}
