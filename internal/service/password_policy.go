package service

import (
	"fmt"
	"strings"

	"hospital-management-backend/internal/apperror"
	"hospital-management-backend/pkg/utils"
)

// validatePassword enforces the shape every stored password must have: a
// string no longer than bcrypt's input limit. A nil password means the
// client sent something other than a string.
func validatePassword(password *string, field string) (string, error) {
	if password == nil {
		return "", apperror.BadRequest(fmt.Sprintf("Invalid password type. Ensure '%s' is included as a string.", field))
	}
	if utils.PasswordTooLong(*password) {
		return "", apperror.BadRequest(fmt.Sprintf("Password too long. Maximum length is %d bytes.", utils.MaxPasswordBytes))
	}
	return *password, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
