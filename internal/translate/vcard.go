package translate

import (
	"bytes"
	"fmt"
	"strings"

	govcard "github.com/emersion/go-vcard"
	"github.com/google/uuid"

	"github.com/davgate/davgate/internal/upstream"
)

// AddressToVCard renders an upstream address record as a vCard 3.0.
// The record's first post address supplies the street-level fields;
// bookType ends up in CATEGORIES so clients can tell the four books
// apart after import.
func AddressToVCard(addr *upstream.Address, bookType string) ([]byte, error) {
	card := make(govcard.Card)
	card.SetValue(govcard.FieldVersion, "3.0")

	uid := addr.Key
	if uid == "" {
		uid = uuid.NewString()
	}
	card.SetValue(govcard.FieldUID, uid)

	var post *upstream.PostAddress
	if len(addr.PostAddresses) > 0 {
		post = &addr.PostAddresses[0].PostAddress
	}

	fn := addr.Name
	if post != nil && post.Line1 != "" {
		fn = post.Line1
	}
	if fn == "" {
		fn = addr.Key
	}
	card.SetValue(govcard.FieldFormattedName, fn)
	card.SetValue(govcard.FieldOrganization, fn)
	card.SetValue(govcard.FieldCategories, strings.ToUpper(bookType))

	if post != nil {
		zip, city := splitZipCity(post.ZipCodeAndCity)
		card.AddAddress(&govcard.Address{
			Field:         &govcard.Field{Params: govcard.Params{govcard.ParamType: {govcard.TypeWork}}},
			StreetAddress: post.Street,
			PostalCode:    zip,
			Locality:      city,
			Country:       post.Country,
		})
		addTel(card, post.Phone, govcard.TypeWork)
		addTel(card, post.Mobile, "cell")
		addTel(card, post.Fax, "fax")
		if post.Email != "" {
			card.Add(govcard.FieldEmail, &govcard.Field{Value: post.Email})
		}
		if post.Website != "" {
			card.Add(govcard.FieldURL, &govcard.Field{Value: post.Website})
		}
	}

	if addr.Memo != "" {
		card.SetValue(govcard.FieldNote, addr.Memo)
	}
	if addr.TaxID != "" {
		card.SetValue("X-TAXID", addr.TaxID)
	}
	if addr.ClientNumber != "" {
		card.SetValue("X-CLIENTNUMBER", addr.ClientNumber)
	}

	var buf bytes.Buffer
	if err := govcard.NewEncoder(&buf).Encode(card); err != nil {
		return nil, fmt.Errorf("encode vcard: %w", err)
	}
	return buf.Bytes(), nil
}

func addTel(card govcard.Card, value, telType string) {
	if value == "" {
		return
	}
	card.Add(govcard.FieldTelephone, &govcard.Field{
		Value:  value,
		Params: govcard.Params{govcard.ParamType: {telType}},
	})
}

// splitZipCity separates "12345 Sometown" on the first space. A value
// without a space counts as the city.
func splitZipCity(s string) (zip, city string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return "", s
}
