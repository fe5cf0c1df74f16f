package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{"user@example.com", " User.Name+tag@mail.co.id "}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), email)
	}

	invalid := []string{"", "plain", "a@b", "a@@b.com", "ру@example.com", "user@exa_mple.com"}
	for _, email := range invalid {
		assert.Error(t, ValidateEmail(email), email)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Secret123"))
	assert.Error(t, ValidatePassword("Short1"))
	assert.Error(t, ValidatePassword("alllowercase1"))
	assert.Error(t, ValidatePassword("ALLUPPERCASE1"))
	assert.Error(t, ValidatePassword("NoDigitsHere"))
}

func TestValidateFullName(t *testing.T) {
	assert.NoError(t, ValidateFullName("Siti Rahma"))
	assert.NoError(t, ValidateFullName("Анна-Мария"))
	assert.Error(t, ValidateFullName(" "))
	assert.Error(t, ValidateFullName("A"))
	assert.Error(t, ValidateFullName("<script>"))
}

func TestValidateMessageContent(t *testing.T) {
	assert.NoError(t, ValidateMessageContent("Sudah sampai bandara"))
	assert.NoError(t, ValidateMessageContent(strings.Repeat("я", MaxMessageLength)))
	assert.Error(t, ValidateMessageContent("   "))
	assert.Error(t, ValidateMessageContent(strings.Repeat("я", MaxMessageLength+1)))
}

func TestValidateOrderFields(t *testing.T) {
	assert.NoError(t, ValidateItem("Kopi Gayo"))
	assert.Error(t, ValidateItem(""))
	assert.Error(t, ValidateItem(strings.Repeat("x", MaxItemLength+1)))

	assert.NoError(t, ValidateLocation("пункт отправления", "Singapore"))
	assert.Error(t, ValidateLocation("пункт отправления", " "))
}

func TestValidateReview(t *testing.T) {
	assert.NoError(t, ValidateRating(1))
	assert.NoError(t, ValidateRating(5))
	assert.Error(t, ValidateRating(0))
	assert.Error(t, ValidateRating(6))

	assert.NoError(t, ValidateComment(""))
	assert.Error(t, ValidateComment(strings.Repeat("x", MaxCommentLength+1)))
}
