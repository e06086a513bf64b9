package models

import (
	"strings"
	"time"

	"github.com/politologod/vibes-marketplace/internal/apperr"
	"github.com/politologod/vibes-marketplace/internal/utils"
)

// TipoCuenta enumerates the bank account types.
const (
	TipoCuentaAhorro    = "ahorro"
	TipoCuentaCorriente = "corriente"
)

// CuentaBancaria is a bank account payout destination.
type CuentaBancaria struct {
	Banco        string `bson:"banco" json:"banco"`
	NumeroCuenta string `bson:"numeroCuenta" json:"numeroCuenta"`
	TipoCuenta   string `bson:"tipoCuenta" json:"tipoCuenta"`
}

// PagoMovil is a mobile-payment payout descriptor.
type PagoMovil struct {
	Banco    string `bson:"banco" json:"banco"`
	Telefono string `bson:"telefono" json:"telefono"`
	Cedula   string `bson:"cedula" json:"cedula"`
}

// User is the durable profile record, distinct from the login credential.
// Spanish field names are the wire contract the frontend consumes.
type User struct {
	ID                 utils.SixID      `bson:"_id,omitempty" json:"id,omitempty"`
	Cedula             string           `bson:"cedula" json:"cedula"`
	Correo             string           `bson:"correo" json:"correo"`
	NombreCompleto     string           `bson:"nombreCompleto" json:"nombreCompleto"`
	NumeroTelefono     string           `bson:"numeroTelefono" json:"numeroTelefono"`
	Direccion          string           `bson:"direccion" json:"direccion"`
	Edad               int              `bson:"edad" json:"edad"`
	CuentasBancarias   []CuentaBancaria `bson:"cuentasBancarias,omitempty" json:"cuentasBancarias,omitempty"`
	PagoMovil          *PagoMovil       `bson:"pagoMovil,omitempty" json:"pagoMovil,omitempty"`
	CorreoBinanceUSDT  string           `bson:"correoBinanceUSDT,omitempty" json:"correoBinanceUSDT,omitempty"`
	Foto               string           `bson:"foto,omitempty" json:"foto,omitempty"`
	FechaCreacion      time.Time        `bson:"fechaCreacion" json:"fechaCreacion"`
	FechaActualizacion time.Time        `bson:"fechaActualizacion" json:"fechaActualizacion"`
}

// Normalize trims whitespace and lowercases the email fields.
func (u *User) Normalize() {
	u.Cedula = strings.TrimSpace(u.Cedula)
	u.Correo = strings.ToLower(strings.TrimSpace(u.Correo))
	u.NombreCompleto = strings.TrimSpace(u.NombreCompleto)
	u.NumeroTelefono = strings.TrimSpace(u.NumeroTelefono)
	u.Direccion = strings.TrimSpace(u.Direccion)
	u.CorreoBinanceUSDT = strings.ToLower(strings.TrimSpace(u.CorreoBinanceUSDT))
	u.Foto = strings.TrimSpace(u.Foto)
}

// Validate checks the profile invariants.
func (u *User) Validate() error {
	switch {
	case u.Cedula == "":
		return apperr.New(apperr.Validation, "La cédula es requerida")
	case u.Correo == "":
		return apperr.New(apperr.Validation, "El correo es requerido")
	case u.NombreCompleto == "":
		return apperr.New(apperr.Validation, "El nombre completo es requerido")
	case u.NumeroTelefono == "":
		return apperr.New(apperr.Validation, "El número de teléfono es requerido")
	case u.Direccion == "":
		return apperr.New(apperr.Validation, "La dirección es requerida")
	case u.Edad < 18 || u.Edad > 120:
		return apperr.New(apperr.Validation, "La edad debe estar entre 18 y 120 años")
	}

	for _, cuenta := range u.CuentasBancarias {
		if err := cuenta.Validate(); err != nil {
			return err
		}
	}
	if u.PagoMovil != nil {
		if err := u.PagoMovil.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a bank account entry.
func (c *CuentaBancaria) Validate() error {
	if c.Banco == "" || c.NumeroCuenta == "" {
		return apperr.New(apperr.Validation, "Cuenta bancaria incompleta")
	}
	if c.TipoCuenta != TipoCuentaAhorro && c.TipoCuenta != TipoCuentaCorriente {
		return apperr.New(apperr.Validation, "Tipo de cuenta inválido")
	}
	return nil
}

// Validate checks a mobile-payment descriptor.
func (p *PagoMovil) Validate() error {
	if p.Banco == "" || p.Telefono == "" || p.Cedula == "" {
		return apperr.New(apperr.Validation, "Datos de pago móvil incompletos")
	}
	return nil
}

// AuthView returns the reduced representation used in auth responses.
func (u *User) AuthView() AuthUser {
	return AuthUser{
		ID:             u.ID,
		Email:          u.Correo,
		NombreCompleto: u.NombreCompleto,
	}
}
