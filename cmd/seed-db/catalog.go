package main

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
)

// catalogProduct is one entry of the seed catalog file.
type catalogProduct struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Image       string           `json:"image"`
	Images      []string         `json:"images"`
	Category    *catalogCategory `json:"category"`
}

type catalogCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// categoryID returns the product's category id, or nil when uncategorised.
func (p catalogProduct) categoryID() *int64 {
	if p.Category == nil {
		return nil
	}
	return &p.Category.ID
}

// categories returns the distinct categories referenced by products, in
// first-seen order.
func categories(products []catalogProduct) []catalogCategory {
	var (
		out  []catalogCategory
		seen = make(map[int64]struct{})
	)
	for _, p := range products {
		if p.Category == nil {
			continue
		}
		if _, ok := seen[p.Category.ID]; ok {
			continue
		}
		seen[p.Category.ID] = struct{}{}
		out = append(out, *p.Category)
	}
	return out
}

// readCatalog reads a JSON catalog. Files ending in .gz are decompressed.
func readCatalog(path string) ([]catalogProduct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return decodeCatalog(r)
}

func decodeCatalog(r io.Reader) ([]catalogProduct, error) {
	var products []catalogProduct
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}

	seen := make(map[int64]struct{}, len(products))
	categoryNames := make(map[int64]string)
	for i, p := range products {
		switch {
		case p.ID <= 0:
			return nil, errors.Errorf("product #%d: id must be positive", i)
		case strings.TrimSpace(p.Name) == "":
			return nil, errors.Errorf("product %d: name is required", p.ID)
		case p.Price.IsNegative():
			return nil, errors.Errorf("product %d: price must not be negative", p.ID)
		}
		if c := p.Category; c != nil {
			switch name, ok := categoryNames[c.ID]; {
			case c.ID <= 0:
				return nil, errors.Errorf("product %d: category id must be positive", p.ID)
			case strings.TrimSpace(c.Name) == "":
				return nil, errors.Errorf("product %d: category name is required", p.ID)
			case ok && name != c.Name:
				return nil, errors.Errorf("product %d: category %d is named both %q and %q", p.ID, c.ID, name, c.Name)
			}
			categoryNames[c.ID] = c.Name
		}
		if _, dup := seen[p.ID]; dup {
			return nil, errors.Errorf("product %d: duplicate id", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return products, nil
}
