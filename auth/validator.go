package auth

import (
	"cube-race/domain"
	"cube-race/errors"
	"fmt"
	"unicode"
)

// ValidateClaims checks the identity fields carried by a token.
func ValidateClaims(claims Claims) error {
	return domain.Validator().Struct(claims)
}

type RoomPasswordRequest struct {
	Password string `validate:"required,min=4,max=72"`
}

// ValidateRoomPassword rejects passwords that are too short, too long or
// made of blanks only.
func ValidateRoomPassword(password string) error {
	if err := domain.Validator().Struct(RoomPasswordRequest{Password: password}); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidArgs, err)
	}
	if !hasVisibleChar(password) {
		return fmt.Errorf("%w: blank password", errors.ErrInvalidArgs)
	}
	return nil
}

func hasVisibleChar(s string) bool {
	for _, char := range s {
		if !unicode.IsSpace(char) {
			return true
		}
	}
	return false
}
