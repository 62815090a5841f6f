package cart

type Priority int

const (
	Low Priority = iota
	Medium
	High
)

const unrelated = 3

type Money struct {
	Amount   int64
	Currency string
}

type Product struct {
	ID       int64 `meta:"id"`
	Name     string `meta:"unique"`
	Price    Money
	Picture  []byte
	Priority Priority
	Tags     []string
}

//meta:service Product
type Catalog struct{}

//meta:readonly
func (c *Catalog) Featured(limit int) []*Product { return nil }

func (c *Catalog) Restock(product *Product, _ int) error { return nil }
