package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davgate/davgate/internal/upstream"
)

func TestAddressToVCard(t *testing.T) {
	card, err := AddressToVCard(&upstream.Address{
		Key:          "addr42",
		AddressType:  "customer",
		Name:         "Acme Corp",
		TaxID:        "DE123456789",
		ClientNumber: "10042",
		Memo:         "Key account",
		PostAddresses: []upstream.PostAddressEntry{
			{PostAddress: upstream.PostAddress{
				Line1:          "Acme Corporation",
				Street:         "Main St 1",
				ZipCodeAndCity: "12345 Springfield",
				Country:        "Germany",
				Phone:          "+49 30 1234",
				Mobile:         "+49 170 5678",
				Fax:            "+49 30 1235",
				Email:          "office@acme.example",
				Website:        "https://acme.example",
			}},
		},
	}, "customer")
	require.NoError(t, err)

	body := string(card)
	assert.Contains(t, body, "BEGIN:VCARD")
	assert.Contains(t, body, "VERSION:3.0")
	assert.Contains(t, body, "UID:addr42")
	assert.Contains(t, body, "FN:Acme Corporation")
	assert.Contains(t, body, "ORG:Acme Corporation")
	assert.Contains(t, body, "CATEGORIES:CUSTOMER")
	assert.Contains(t, body, "Main St 1")
	assert.Contains(t, body, "12345")
	assert.Contains(t, body, "Springfield")
	assert.Contains(t, body, "+49 30 1234")
	assert.Contains(t, body, "+49 170 5678")
	assert.Contains(t, body, "EMAIL:office@acme.example")
	assert.Contains(t, body, "NOTE:Key account")
	assert.Contains(t, body, "X-TAXID:DE123456789")
	assert.Contains(t, body, "X-CLIENTNUMBER:10042")
}

func TestAddressToVCardFallbacks(t *testing.T) {
	t.Run("name without post address", func(t *testing.T) {
		card, err := AddressToVCard(&upstream.Address{Key: "a1", Name: "Solo"}, "other")
		require.NoError(t, err)
		body := string(card)
		assert.Contains(t, body, "FN:Solo")
		assert.NotContains(t, body, "ADR")
	})

	t.Run("key as last resort", func(t *testing.T) {
		card, err := AddressToVCard(&upstream.Address{Key: "a1"}, "other")
		require.NoError(t, err)
		assert.Contains(t, string(card), "FN:a1")
	})
}

func TestSplitZipCity(t *testing.T) {
	tests := []struct {
		in        string
		zip, city string
	}{
		{"12345 Springfield", "12345", "Springfield"},
		{"12345 Bad Homburg", "12345", "Bad Homburg"},
		{"Springfield", "", "Springfield"},
		{"  12345 Springfield  ", "12345", "Springfield"},
		{"", "", ""},
	}
	for _, tt := range tests {
		zip, city := splitZipCity(tt.in)
		assert.Equal(t, tt.zip, zip, "input %q", tt.in)
		assert.Equal(t, tt.city, city, "input %q", tt.in)
	}
}
