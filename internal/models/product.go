package models

import (
	"strings"
	"time"

	"github.com/politologod/vibes-marketplace/internal/apperr"
	"github.com/politologod/vibes-marketplace/internal/utils"
)

// Estado enumerates listing states. Agotado is derived: stock hitting zero
// forces it on every save.
const (
	EstadoActivo   = "activo"
	EstadoInactivo = "inactivo"
	EstadoAgotado  = "agotado"
)

// Condicion enumerates listing conditions.
const (
	CondicionNuevo           = "nuevo"
	CondicionUsado           = "usado"
	CondicionReacondicionado = "reacondicionado"
)

const (
	maxNombreLen      = 200
	maxDescripcionLen = 2000
)

// Especificaciones holds the optional structured attributes of a product.
type Especificaciones struct {
	Marca       string  `bson:"marca,omitempty" json:"marca,omitempty"`
	Modelo      string  `bson:"modelo,omitempty" json:"modelo,omitempty"`
	Color       string  `bson:"color,omitempty" json:"color,omitempty"`
	Talla       string  `bson:"talla,omitempty" json:"talla,omitempty"`
	Peso        float64 `bson:"peso,omitempty" json:"peso,omitempty"`
	Dimensiones string  `bson:"dimensiones,omitempty" json:"dimensiones,omitempty"`
	Material    string  `bson:"material,omitempty" json:"material,omitempty"`
}

// Valoraciones is the rating aggregate of a product.
type Valoraciones struct {
	Promedio float64 `bson:"promedio" json:"promedio"`
	Cantidad int     `bson:"cantidad" json:"cantidad"`
}

// Descuento is a time-boxed percentage discount.
type Descuento struct {
	Porcentaje  float64   `bson:"porcentaje" json:"porcentaje"`
	FechaInicio time.Time `bson:"fechaInicio" json:"fechaInicio"`
	FechaFin    time.Time `bson:"fechaFin" json:"fechaFin"`
}

// Active reports whether the discount window contains now.
func (d *Descuento) Active(now time.Time) bool {
	return !now.Before(d.FechaInicio) && !now.After(d.FechaFin)
}

// Product is a marketplace listing. Spanish field names are the wire contract.
type Product struct {
	ID                 utils.SixID       `bson:"_id,omitempty" json:"id,omitempty"`
	Nombre             string            `bson:"nombre" json:"nombre"`
	Descripcion        string            `bson:"descripcion" json:"descripcion"`
	Precio             float64           `bson:"precio" json:"precio"`
	Categoria          string            `bson:"categoria" json:"categoria"`
	Subcategoria       string            `bson:"subcategoria,omitempty" json:"subcategoria,omitempty"`
	Imagenes           []string          `bson:"imagenes" json:"imagenes"`
	Stock              int               `bson:"stock" json:"stock"`
	VendedorID         utils.SixID       `bson:"vendedorId" json:"vendedorId"`
	Estado             string            `bson:"estado" json:"estado"`
	Condicion          string            `bson:"condicion" json:"condicion"`
	Especificaciones   *Especificaciones `bson:"especificaciones,omitempty" json:"especificaciones,omitempty"`
	Etiquetas          []string          `bson:"etiquetas" json:"etiquetas"`
	Valoraciones       Valoraciones      `bson:"valoraciones" json:"valoraciones"`
	Descuento          *Descuento        `bson:"descuento,omitempty" json:"descuento,omitempty"`
	FechaCreacion      time.Time         `bson:"fechaCreacion" json:"fechaCreacion"`
	FechaActualizacion time.Time         `bson:"fechaActualizacion" json:"fechaActualizacion"`
	FechaPublicacion   *time.Time        `bson:"fechaPublicacion,omitempty" json:"fechaPublicacion,omitempty"`
}

// Normalize trims text fields, lowercases tags and applies defaults.
func (p *Product) Normalize() {
	p.Nombre = strings.TrimSpace(p.Nombre)
	p.Descripcion = strings.TrimSpace(p.Descripcion)
	p.Categoria = strings.TrimSpace(p.Categoria)
	p.Subcategoria = strings.TrimSpace(p.Subcategoria)
	for i, tag := range p.Etiquetas {
		p.Etiquetas[i] = strings.ToLower(strings.TrimSpace(tag))
	}
	if p.Estado == "" {
		p.Estado = EstadoActivo
	}
}

// ApplyStockStatus enforces the derived sold-out state. Must run on every save.
func (p *Product) ApplyStockStatus() {
	if p.Stock == 0 {
		p.Estado = EstadoAgotado
	}
}

// EffectivePrice returns the price with the discount applied while its window
// contains now, and the plain price otherwise.
func (p *Product) EffectivePrice(now time.Time) float64 {
	if p.Descuento != nil && p.Descuento.Active(now) {
		return p.Precio * (1 - p.Descuento.Porcentaje/100)
	}
	return p.Precio
}

// Validate checks the listing invariants.
func (p *Product) Validate() error {
	switch {
	case p.Nombre == "":
		return apperr.New(apperr.Validation, "El nombre es requerido")
	case len(p.Nombre) > maxNombreLen:
		return apperr.New(apperr.Validation, "El nombre excede la longitud máxima")
	case p.Descripcion == "":
		return apperr.New(apperr.Validation, "La descripción es requerida")
	case len(p.Descripcion) > maxDescripcionLen:
		return apperr.New(apperr.Validation, "La descripción excede la longitud máxima")
	case p.Precio <= 0:
		return apperr.New(apperr.Validation, "El precio debe ser mayor que cero")
	case p.Categoria == "":
		return apperr.New(apperr.Validation, "La categoría es requerida")
	case p.Stock < 0:
		return apperr.New(apperr.Validation, "El stock no puede ser negativo")
	}

	switch p.Condicion {
	case CondicionNuevo, CondicionUsado, CondicionReacondicionado:
	default:
		return apperr.New(apperr.Validation, "Condición inválida")
	}

	switch p.Estado {
	case EstadoActivo, EstadoInactivo, EstadoAgotado:
	default:
		return apperr.New(apperr.Validation, "Estado inválido")
	}

	if p.Valoraciones.Promedio < 0 || p.Valoraciones.Promedio > 5 || p.Valoraciones.Cantidad < 0 {
		return apperr.New(apperr.Validation, "Valoraciones inválidas")
	}

	if p.Descuento != nil {
		if p.Descuento.Porcentaje < 0 || p.Descuento.Porcentaje > 100 {
			return apperr.New(apperr.Validation, "Porcentaje de descuento inválido")
		}
		if p.Descuento.FechaFin.Before(p.Descuento.FechaInicio) {
			return apperr.New(apperr.Validation, "Ventana de descuento inválida")
		}
	}

	return nil
}
