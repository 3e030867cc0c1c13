package utils

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "VN"

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

var citizenIdPattern = regexp.MustCompile(`^[0-9]{9,12}$`)

// IsValidCitizenId accepts 9-digit CMND and 12-digit CCCD numbers.
func IsValidCitizenId(citizenId string) bool {
	return citizenIdPattern.MatchString(citizenId)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err // Phone number is invalid
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil // Phone number is valid for the specified country code
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GeneratePassword returns a random password for admin-created accounts.
func GeneratePassword(length int) string {
	if length <= 0 {
		length = 10
	}
	var sb strings.Builder
	for i := 0; i < length; i++ {
		sb.WriteByte(passwordAlphabet[rand.Intn(len(passwordAlphabet))])
	}
	return sb.String()
}
