package carddav

import (
	"context"

	"github.com/davgate/davgate/internal/dav/common"
	"github.com/davgate/davgate/internal/translate"
	"github.com/davgate/davgate/internal/upstream"
)

type cardResource struct {
	stem string
	body []byte
	etag string
}

func renderCard(addr *upstream.Address, bookType string) (cardResource, error) {
	body, err := translate.AddressToVCard(addr, bookType)
	if err != nil {
		return cardResource{}, err
	}
	return cardResource{stem: addr.Key, body: body, etag: common.ETagFor(body)}, nil
}

const pageLimit = 1000

// listCards pages through every address of the book's type.
func (h *Handlers) listCards(ctx context.Context, book *addressBook) ([]cardResource, error) {
	company, err := h.companyName(ctx)
	if err != nil {
		return nil, err
	}

	var out []cardResource
	offset := 0
	for {
		page, err := h.client.Addresses(ctx, company, upstream.AddressListOptions{
			AddressType: book.Type,
			Offset:      offset,
			Limit:       pageLimit,
		})
		if err != nil {
			return nil, err
		}
		for i := range page.Addresses {
			res, err := renderCard(&page.Addresses[i], book.Type)
			if err != nil {
				h.logger.Warn().Err(err).Str("key", page.Addresses[i].Key).Msg("skipping unrenderable address")
				continue
			}
			out = append(out, res)
		}
		offset += len(page.Addresses)
		if len(page.Addresses) == 0 || offset >= page.TotalCount {
			return out, nil
		}
	}
}

func (h *Handlers) fetchCard(ctx context.Context, book *addressBook, key string) (cardResource, error) {
	company, err := h.companyName(ctx)
	if err != nil {
		return cardResource{}, err
	}
	addr, err := h.client.Address(ctx, company, key)
	if err != nil {
		return cardResource{}, err
	}
	return renderCard(addr, book.Type)
}
