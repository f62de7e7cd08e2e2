// Package memledger is an in-memory stand-in for the PostgreSQL ledger
// tables used by service tests. Units of work run one at a time under a
// single mutex, which models row locks held until commit, and every map is
// restored when a unit of work fails.
package memledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/debt"
	"github.com/kassa-pos/kassa/internal/stock"
)

type stockKey struct {
	branchID  int64
	productID int64
}

type state struct {
	stock    map[stockKey]stock.Stock
	products map[int64]catalog.Product
	branches map[int64]catalog.Branch
	clients  map[int64]debt.Client
	debts    map[int64]debt.Debt
	payments []debt.Payment
}

func (s state) clone() state {
	out := state{
		stock:    make(map[stockKey]stock.Stock, len(s.stock)),
		products: make(map[int64]catalog.Product, len(s.products)),
		branches: make(map[int64]catalog.Branch, len(s.branches)),
		clients:  make(map[int64]debt.Client, len(s.clients)),
		debts:    make(map[int64]debt.Debt, len(s.debts)),
		payments: append([]debt.Payment(nil), s.payments...),
	}
	for k, v := range s.stock {
		out.stock[k] = v
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.branches {
		out.branches[k] = v
	}
	for k, v := range s.clients {
		out.clients[k] = v
	}
	for k, v := range s.debts {
		out.debts[k] = v
	}
	return out
}

// LockKind ranks the rows a unit of work locks. A unit of work must take
// them in ascending (Kind, ID) order, the order db.WithTx documents.
type LockKind int

const (
	LockStock LockKind = iota + 1
	LockProduct
	LockClient
)

// Lock is one row lock. ID is the product id for stock and product rows and
// the client id for client rows.
type Lock struct {
	Kind LockKind
	ID   int64
}

// Ordered reports whether locks were taken in ascending (Kind, ID) order.
func Ordered(locks []Lock) bool {
	for i := 1; i < len(locks); i++ {
		prev, cur := locks[i-1], locks[i]
		if cur.Kind < prev.Kind || (cur.Kind == prev.Kind && cur.ID < prev.ID) {
			return false
		}
	}
	return true
}

// Ledger holds stock, catalog and debt rows.
type Ledger struct {
	mu     sync.Mutex
	st     state
	nextID int64

	held  map[Lock]bool
	trace []Lock
	last  []Lock
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{st: state{}.clone()}
}

// Tx is one unit of work. It implements stock.TxStore, catalog.TxStore and
// debt.TxStore.
type Tx struct {
	l *Ledger
}

var (
	_ stock.TxStore   = (*Tx)(nil)
	_ catalog.TxStore = (*Tx)(nil)
	_ debt.TxStore    = (*Tx)(nil)

	_ catalog.WorkshopBranchStore = (*Ledger)(nil)
)

// WithTx runs fn exclusively and rolls every change back when it fails.
func (l *Ledger) WithTx(ctx context.Context, fn func(*Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	saved := l.st.clone()
	nextID := l.nextID
	l.held, l.trace = make(map[Lock]bool), nil
	defer func() { l.last = l.trace }()
	if err := fn(&Tx{l: l}); err != nil {
		l.st = saved
		l.nextID = nextID
		return err
	}
	return nil
}

// Locks returns the row locks taken by the latest unit of work, in
// acquisition order. Re-locking a held row is not recorded.
func (l *Ledger) Locks() []Lock {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Lock(nil), l.last...)
}

func (t *Tx) lock(kind LockKind, id int64) {
	k := Lock{Kind: kind, ID: id}
	if t.l.held[k] {
		return
	}
	t.l.held[k] = true
	t.l.trace = append(t.l.trace, k)
}

// NextID hands out row ids. Call it only inside WithTx.
func (t *Tx) NextID() int64 {
	t.l.nextID++
	return t.l.nextID
}

// SetStock seeds a stock row.
func (l *Ledger) SetStock(branchID, productID int64, qty decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.st.stock[stockKey{branchID, productID}] = stock.Stock{BranchID: branchID, ProductID: productID, Quantity: qty, UpdatedAt: time.Now()}
}

// Stock returns the quantity at (branch, product), zero when absent.
func (l *Ledger) Stock(branchID, productID int64) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.stock[stockKey{branchID, productID}].Quantity
}

// HasStockRow reports whether a (branch, product) row exists.
func (l *Ledger) HasStockRow(branchID, productID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.st.stock[stockKey{branchID, productID}]
	return ok
}

// AllStock returns every stock row.
func (l *Ledger) AllStock() []stock.Stock {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]stock.Stock, 0, len(l.st.stock))
	for _, s := range l.st.stock {
		out = append(out, s)
	}
	return out
}

// AddProduct seeds a product.
func (l *Ledger) AddProduct(p catalog.Product) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.st.products[p.ID] = p
}

// Product returns a seeded product.
func (l *Ledger) Product(id int64) catalog.Product {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.products[id]
}

// AddBranch seeds a branch.
func (l *Ledger) AddBranch(b catalog.Branch) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.st.branches[b.ID] = b
	if b.ID > l.nextID {
		l.nextID = b.ID
	}
}

// AddClient seeds a client.
func (l *Ledger) AddClient(c debt.Client) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.st.clients[c.ID] = c
}

// Client returns a seeded client.
func (l *Ledger) Client(id int64) debt.Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.clients[id]
}

// Debts returns all debts of a client.
func (l *Ledger) Debts(clientID int64) []debt.Debt {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []debt.Debt
	for _, d := range l.st.debts {
		if d.ClientID == clientID {
			out = append(out, d)
		}
	}
	return out
}

// stock.TxStore

func (t *Tx) CreateStock(ctx context.Context, branchID, productID int64) error {
	k := stockKey{branchID, productID}
	if _, ok := t.l.st.stock[k]; !ok {
		t.l.st.stock[k] = stock.Stock{BranchID: branchID, ProductID: productID, Quantity: decimal.Zero, UpdatedAt: time.Now()}
	}
	return nil
}

func (t *Tx) LockStock(ctx context.Context, branchID, productID int64) (stock.Stock, error) {
	t.lock(LockStock, productID)
	st, ok := t.l.st.stock[stockKey{branchID, productID}]
	if !ok {
		return stock.Stock{BranchID: branchID, ProductID: productID}, stock.ErrStockNotFound
	}
	return st, nil
}

func (t *Tx) SaveStock(ctx context.Context, st stock.Stock) (stock.Stock, error) {
	k := stockKey{st.BranchID, st.ProductID}
	if _, ok := t.l.st.stock[k]; !ok {
		return stock.Stock{}, stock.ErrStockNotFound
	}
	if st.Quantity.IsNegative() {
		return stock.Stock{}, fmt.Errorf("memledger: stock check constraint violated for %d/%d", st.BranchID, st.ProductID)
	}
	st.UpdatedAt = time.Now()
	t.l.st.stock[k] = st
	return st, nil
}

// catalog.TxStore

func (t *Tx) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	p, ok := t.l.st.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: %d", catalog.ErrProductNotFound, id)
	}
	return p, nil
}

func (t *Tx) UpdateProductPrices(ctx context.Context, id int64, purchase, sale decimal.Decimal) error {
	t.lock(LockProduct, id)
	p, ok := t.l.st.products[id]
	if !ok {
		return fmt.Errorf("%w: %d", catalog.ErrProductNotFound, id)
	}
	p.PurchasePrice, p.SalePrice = purchase, sale
	t.l.st.products[id] = p
	return nil
}

func (t *Tx) ShiftProductQuantity(ctx context.Context, id int64, delta decimal.Decimal) error {
	t.lock(LockProduct, id)
	p, ok := t.l.st.products[id]
	if !ok {
		return nil
	}
	p.Quantity = p.Quantity.Add(delta)
	if p.Quantity.IsNegative() {
		p.Quantity = decimal.Zero
	}
	t.l.st.products[id] = p
	return nil
}

func (t *Tx) GetBranch(ctx context.Context, id int64) (catalog.Branch, error) {
	b, ok := t.l.st.branches[id]
	if !ok {
		return catalog.Branch{}, fmt.Errorf("%w: %d", catalog.ErrBranchNotFound, id)
	}
	return b, nil
}

// debt.TxStore

func (t *Tx) LockClient(ctx context.Context, clientID int64) (debt.Client, error) {
	t.lock(LockClient, clientID)
	c, ok := t.l.st.clients[clientID]
	if !ok {
		return debt.Client{}, fmt.Errorf("%w: %d", debt.ErrClientNotFound, clientID)
	}
	return c, nil
}

func (t *Tx) SaveClientDebt(ctx context.Context, clientID int64, total decimal.Decimal) error {
	t.lock(LockClient, clientID)
	c := t.l.st.clients[clientID]
	if total.IsNegative() {
		return fmt.Errorf("memledger: client %d debt check constraint violated", clientID)
	}
	c.TotalDebt = total
	t.l.st.clients[clientID] = c
	return nil
}

func (t *Tx) InsertDebt(ctx context.Context, d debt.Debt) (debt.Debt, error) {
	d.ID = t.NextID()
	d.CreatedAt = time.Now()
	t.l.st.debts[d.ID] = d
	return d, nil
}

func (t *Tx) LockDebt(ctx context.Context, debtID int64) (debt.Debt, error) {
	d, ok := t.l.st.debts[debtID]
	if !ok {
		return debt.Debt{}, fmt.Errorf("%w: %d", debt.ErrDebtNotFound, debtID)
	}
	return d, nil
}

func (t *Tx) SaveDebtPaid(ctx context.Context, debtID int64, paid decimal.Decimal) error {
	d := t.l.st.debts[debtID]
	d.Paid = paid
	t.l.st.debts[debtID] = d
	return nil
}

func (t *Tx) InsertDebtPayment(ctx context.Context, p debt.Payment) (debt.Payment, error) {
	p.ID = t.NextID()
	p.CreatedAt = time.Now()
	t.l.st.payments = append(t.l.st.payments, p)
	return p, nil
}

// catalog.WorkshopBranchStore

func (l *Ledger) FindWorkshopBranch(ctx context.Context) (catalog.Branch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.st.branches {
		if b.IsWorkshop {
			return b, nil
		}
	}
	return catalog.Branch{}, catalog.ErrBranchNotFound
}

func (l *Ledger) FindBranchByName(ctx context.Context, name string) (catalog.Branch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.st.branches {
		if b.Name == name {
			return b, nil
		}
	}
	return catalog.Branch{}, catalog.ErrBranchNotFound
}

func (l *Ledger) MarkWorkshop(ctx context.Context, id int64) (catalog.Branch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.st.branches[id]
	if !ok {
		return catalog.Branch{}, catalog.ErrBranchNotFound
	}
	b.IsWorkshop = true
	l.st.branches[id] = b
	return b, nil
}

func (l *Ledger) CreateWorkshopBranch(ctx context.Context, name string) (catalog.Branch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	b := catalog.Branch{ID: l.nextID, Name: name, Active: true, IsWorkshop: true, CreatedAt: time.Now()}
	l.st.branches[b.ID] = b
	return b, nil
}
