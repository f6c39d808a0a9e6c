package database

import (
	"errors"

	"meterstock/internal/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// seedUser describes one bootstrap account. The legacy deployment hardcoded
// these five logins in the application itself; here they only exist as a
// first-boot convenience and carry throwaway passwords that operators are
// expected to rotate.
type seedUser struct {
	Username string
	Email    string
	Password string
	Role     string
}

var defaultUsers = []seedUser{
	{Username: "ethekwini", Email: "reviewer@example.org", Password: "ethekwini123", Role: model.RoleCity},
	{Username: "Deezlo", Email: "contractor@example.org", Password: "Deezlo123", Role: model.RoleContractor},
	{Username: "installer1", Email: "installer@example.org", Password: "installer123", Role: model.RoleInstaller},
	{Username: "manufacturer1", Email: "manufacturer@example.org", Password: "manufacturer123", Role: model.RoleManufacturer},
	{Username: "Reece", Email: "manager@example.org", Password: "Reece123!", Role: model.RoleManager},
}

// SeedUsers inserts the default accounts for any role that has no user yet.
// Existing accounts are never touched.
func SeedUsers(db *gorm.DB) error {
	for _, su := range defaultUsers {
		var existing model.User
		err := db.First(&existing, "username = ?", su.Username).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := model.User{
			Username: su.Username,
			Email:    su.Email,
			Password: string(hash),
			Role:     su.Role,
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
		log.Info().Str("username", su.Username).Str("role", su.Role).Msg("Seeded default user")
	}
	return nil
}
