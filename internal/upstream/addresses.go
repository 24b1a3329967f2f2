package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Companies returns the company names visible to the configured license.
func (c *Client) Companies(ctx context.Context) ([]string, error) {
	var out companiesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/companies", nil, nil, &out); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Companies))
	for _, co := range out.Companies {
		if co.CompanyName != "" {
			names = append(names, co.CompanyName)
		}
	}
	return names, nil
}

// AddressListOptions narrows an address listing. Zero values mean no
// filter; Limit caps at the upstream maximum of 1000.
type AddressListOptions struct {
	AddressType string
	Phrase      string
	Offset      int
	Limit       int
}

// Addresses lists address records for a company.
func (c *Client) Addresses(ctx context.Context, company string, opts AddressListOptions) (*AddressPage, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	q := url.Values{}
	q.Set("offset", strconv.Itoa(opts.Offset))
	q.Set("limit", strconv.Itoa(limit))
	if opts.AddressType != "" {
		q.Set("addressType", opts.AddressType)
	}
	if opts.Phrase != "" {
		q.Set("phrase", opts.Phrase)
	}

	var out AddressPage
	p := "/companies/" + url.PathEscape(company) + "/addresses"
	if err := c.doJSON(ctx, http.MethodGet, p, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Address fetches a single address record by key.
func (c *Client) Address(ctx context.Context, company, key string) (*Address, error) {
	q := url.Values{}
	q.Set("fields", "all")
	var out Address
	p := "/companies/" + url.PathEscape(company) + "/addresses/" + url.PathEscape(key)
	if err := c.doJSON(ctx, http.MethodGet, p, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
