package domain

import (
	"time"

	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	sharedBus "github.com/davicafu/hexacrud/internal/shared/infra/platform/bus"
)

// Address se guarda anidada dentro del documento del usuario.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

// User representa un usuario del sistema.
type User struct {
	sharedDomain.Base
	Email     string    `json:"email" binding:"required,email"`
	Name      string    `json:"name" binding:"required"`
	BirthDate time.Time `json:"birthDate"`
	Address   *Address  `json:"address"`
	Tags      []string  `json:"tags"`
}

func (u *User) PartitionKey() string {
	return u.ID.String()
}

// Age calcula la edad del usuario a partir de su fecha de nacimiento.
func (u *User) Age() int {
	return u.AgeAt(time.Now())
}

// AgeAt calcula la edad en la fecha indicada.
func (u *User) AgeAt(now time.Time) int {
	years := now.Year() - u.BirthDate.Year()
	if now.Month() < u.BirthDate.Month() ||
		(now.Month() == u.BirthDate.Month() && now.Day() < u.BirthDate.Day()) {
		years--
	}
	return years
}

// Verificación estática para asegurar que User implementa la interfaz
var _ sharedBus.Keyer = (*User)(nil)
