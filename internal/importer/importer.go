// Package importer loads menu products and branches from CSV files.
package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"aura-taste/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type BranchWriter interface {
	Upsert(ctx context.Context, b domain.Branch) (*domain.Branch, error)
}

// Kind names the layout of a CSV file.
type Kind string

const (
	KindProducts Kind = "products"
	KindBranches Kind = "branches"
)

// DetectKind inspects the header row. Product files carry a basePrice
// column, branch files a tables column.
func DetectKind(r io.Reader) (Kind, error) {
	headers, err := csv.NewReader(bufio.NewReader(r)).Read()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}
	idx := headerIndex(headers)
	switch {
	case has(idx, "baseprice"):
		return KindProducts, nil
	case has(idx, "tables"):
		return KindBranches, nil
	}
	return "", errors.New("unrecognised csv layout: expected a basePrice or tables column")
}

// CSVImporter reads menu exports and inserts or updates rows by key.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryStore
	branches   BranchWriter
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryStore, branches BranchWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		categories: categories,
		branches:   branches,
	}
}

type productRow struct {
	product domain.Product
	line    int
}

// Run imports the file and returns the number of saved records.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	switch {
	case has(index, "baseprice"):
		return i.runProducts(ctx, index)
	case has(index, "tables"):
		return i.runBranches(ctx, index)
	}
	return 0, errors.New("unrecognised csv layout: expected a basePrice or tables column")
}

// runProducts groups rows by product key. Rows without a key continue the
// previous product and contribute one size and/or extra each.
func (i *CSVImporter) runProducts(ctx context.Context, index map[string]int) (int, error) {
	if i.products == nil {
		return 0, errors.New("product writer required")
	}
	known, err := i.knownCategories(ctx)
	if err != nil {
		return 0, err
	}

	var (
		current  *productRow
		imported int
		line     = 1
	)
	flush := func() error {
		if current == nil {
			return nil
		}
		if err := i.ensureCategory(ctx, known, current.product.Category); err != nil {
			return err
		}
		if err := i.saveProduct(ctx, current); err != nil {
			return err
		}
		imported++
		return nil
	}

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		key := pick(record, index, "key")
		if key != "" {
			if err := flush(); err != nil {
				return imported, err
			}
			base, err := parseCents(pick(record, index, "baseprice"))
			if err != nil {
				return imported, fmt.Errorf("line %d: basePrice: %w", line, err)
			}
			current = &productRow{line: line, product: domain.Product{
				Key:            key,
				Name:           pick(record, index, "name"),
				Description:    pick(record, index, "description"),
				Category:       pick(record, index, "category"),
				BasePriceCents: base,
				Image:          pick(record, index, "image"),
			}}
		} else if current == nil {
			continue
		}

		if err := addOption(&current.product.Sizes, record, index, "size"); err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if err := addOption(&current.product.Extras, record, index, "extra"); err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
	}

	if err := flush(); err != nil {
		return imported, err
	}
	return imported, nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, row *productRow) error {
	p := row.product
	if p.Name == "" || p.Category == "" || p.BasePriceCents <= 0 {
		return fmt.Errorf("invalid product row (missing required fields) for key %q at line %d", p.Key, row.line)
	}
	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.Key, err)
	}
	return nil
}

func (i *CSVImporter) knownCategories(ctx context.Context) (map[string]int, error) {
	known := map[string]int{}
	if i.categories == nil {
		return known, nil
	}
	cats, err := i.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range cats {
		known[strings.ToLower(c.Name)] = c.Position
		known[strings.ToLower(c.Key)] = c.Position
	}
	return known, nil
}

// ensureCategory appends categories the store does not know yet after the
// existing ones, leaving seeded positions alone.
func (i *CSVImporter) ensureCategory(ctx context.Context, known map[string]int, name string) error {
	if i.categories == nil || name == "" {
		return nil
	}
	if _, ok := known[strings.ToLower(name)]; ok {
		return nil
	}
	next := 0
	for _, pos := range known {
		if pos >= next {
			next = pos + 1
		}
	}
	c := domain.Category{Key: slugify(name), Name: name, Position: next}
	if _, err := i.categories.Upsert(ctx, c); err != nil {
		return fmt.Errorf("upsert category %q: %w", name, err)
	}
	known[strings.ToLower(name)] = next
	known[c.Key] = next
	return nil
}

func (i *CSVImporter) runBranches(ctx context.Context, index map[string]int) (int, error) {
	if i.branches == nil {
		return 0, errors.New("branch writer required")
	}
	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		name := pick(record, index, "name")
		if name == "" {
			continue
		}
		key := pick(record, index, "key")
		if key == "" {
			key = slugify(name)
		}
		tables, err := strconv.Atoi(pick(record, index, "tables"))
		if err != nil || tables < 0 {
			return imported, fmt.Errorf("line %d: invalid tables value", line)
		}
		b := domain.Branch{Key: key, Name: name, Address: pick(record, index, "address"), Tables: tables}
		if _, err := i.branches.Upsert(ctx, b); err != nil {
			return imported, fmt.Errorf("upsert branch %q: %w", key, err)
		}
		imported++
	}
	return imported, nil
}

func addOption(dst *[]domain.Option, record []string, index map[string]int, prefix string) error {
	name := pick(record, index, prefix+".name")
	if name == "" {
		return nil
	}
	cents, err := parseCents(pick(record, index, prefix+".price"))
	if err != nil {
		return fmt.Errorf("%s %q price: %w", prefix, name, err)
	}
	*dst = append(*dst, domain.Option{Name: name, PriceCents: cents})
	return nil
}

// parseCents reads a decimal amount such as "12", "12.5" or "12.50".
func parseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount %q", s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("too many decimals in %q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return w*100 + f, nil
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func has(index map[string]int, key string) bool {
	_, ok := index[key]
	return ok
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
