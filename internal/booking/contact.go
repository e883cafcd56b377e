package booking

import (
	"net/mail"
	"regexp"
	"strings"

	"salonbook/internal/models"
)

var nameRegex = regexp.MustCompile(`^[\p{L}\s\-']+$`)

func isValidName(name string) bool {
	return len([]rune(name)) >= 2 && nameRegex.MatchString(name)
}

func isValidPhone(phone string) bool {
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 10 && digits <= 15
}

// ValidateContact trims and checks guest contact details.
func ValidateContact(c models.Contact) (models.Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)

	if c.Name == "" || c.Phone == "" {
		return c, ErrContactRequired
	}
	if !isValidName(c.Name) {
		return c, ErrInvalidName
	}
	if !isValidPhone(c.Phone) {
		return c, ErrInvalidPhone
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return c, ErrInvalidEmail
		}
	}
	return c, nil
}
