package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinFullNameLength = 2
	MaxFullNameLength = 100
	MaxItemLength     = 200
	MaxLocationLength = 100
	MinMessageLength  = 1
	MaxMessageLength  = 2000
	MaxCommentLength  = 1000
	MinRating         = 1
	MaxRating         = 5
)

var (
	emailLocalRe  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRe = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	fullNameRe    = regexp.MustCompile(`^[\p{L}0-9\s\-_.,'()]+$`)
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

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRe.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRe.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateFullName проверяет имя в профиле.
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("имя обязательно")
	}
	if err := ValidateLength("имя", name, MinFullNameLength, MaxFullNameLength); err != nil {
		return err
	}
	if !fullNameRe.MatchString(name) {
		return fmt.Errorf("имя содержит недопустимые символы")
	}
	return nil
}

// ValidateItem проверяет название товара в заказе.
func ValidateItem(item string) error {
	if err := ValidateNonEmpty("название товара", item); err != nil {
		return err
	}
	return ValidateLength("название товара", strings.TrimSpace(item), 1, MaxItemLength)
}

// ValidateLocation проверяет пункт маршрута.
func ValidateLocation(fieldName, location string) error {
	if err := ValidateNonEmpty(fieldName, location); err != nil {
		return err
	}
	return ValidateLength(fieldName, strings.TrimSpace(location), 1, MaxLocationLength)
}

// ValidateMessageContent проверяет текст сообщения чата.
func ValidateMessageContent(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("сообщение не может быть пустым")
	}
	return ValidateLength("сообщение", content, MinMessageLength, MaxMessageLength)
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("оценка должна быть от %d до %d", MinRating, MaxRating)
	}
	return nil
}

func ValidateComment(comment string) error {
	return ValidateLength("комментарий", strings.TrimSpace(comment), 0, MaxCommentLength)
}
