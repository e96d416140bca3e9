package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Константы валидации
const (
	MinNameLength            = 1
	MaxNameLength            = 100
	MaxEmailLocalPartLength  = 64
	MaxEmailDomainPartLength = 255
	PhoneDigits              = 10
	DateLayout               = "2006-01-02"
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	phoneRegex       = regexp.MustCompile(`^\d{10}$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email. Адрес сравнивается и хранится
// в нижнем регистре, поэтому проверка идёт по приведённому значению.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > MaxEmailLocalPartLength {
		return fmt.Errorf("локальная часть email должна быть от 1 до %d символов", MaxEmailLocalPartLength)
	}
	if len(domainPart) == 0 || len(domainPart) > MaxEmailDomainPartLength {
		return fmt.Errorf("доменная часть email должна быть от 1 до %d символов", MaxEmailDomainPartLength)
	}

	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// NormalizeEmail приводит email к каноническому виду для хранения.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateName проверяет имя или фамилию.
func ValidateName(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s обязательно", fieldName)
	}
	return ValidateLength(fieldName, strings.TrimSpace(value), MinNameLength, MaxNameLength)
}

// ValidatePhone проверяет телефонный номер: ровно десять цифр,
// без кода страны и разделителей.
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("номер телефона должен состоять из %d цифр", PhoneDigits)
	}
	return nil
}

// ValidateDate проверяет дату в формате YYYY-MM-DD.
func ValidateDate(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s обязательна", fieldName)
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return fmt.Errorf("%s должна быть в формате YYYY-MM-DD", fieldName)
	}
	return nil
}

// ValidateCabin проверяет класс обслуживания.
func ValidateCabin(cabin string, allowed []string) error {
	for _, item := range allowed {
		if cabin == item {
			return nil
		}
	}
	return fmt.Errorf("недопустимый класс обслуживания: %s", cabin)
}

// ValidateGender проверяет пол пассажира так, как его принимает провайдер.
func ValidateGender(gender string) error {
	if gender != "M" && gender != "F" {
		return fmt.Errorf("пол пассажира должен быть M или F")
	}
	return nil
}
