// Package memrepo is an in-memory repository.Repository for tests. Writes made
// inside Transaction are staged on a copy of the state and only become visible
// when fn returns nil. Transactions are serialized.
package memrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fatflowers/checkout/internal/app/repository"
	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/types"
)

type state struct {
	carts     map[string]*repository.CartSnapshot
	addresses map[string]*models.Address
	products  map[string]*models.Product
	orders    map[string]*models.Order
	txns      map[string]*models.Transaction
	payments  map[string]*models.Payment
	logs      []*models.TransactionLog
}

func newState() *state {
	return &state{
		carts:     map[string]*repository.CartSnapshot{},
		addresses: map[string]*models.Address{},
		products:  map[string]*models.Product{},
		orders:    map[string]*models.Order{},
		txns:      map[string]*models.Transaction{},
		payments:  map[string]*models.Payment{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.carts {
		cp := *v
		cp.Items = append([]repository.CartLine(nil), v.Items...)
		c.carts[k] = &cp
	}
	for k, v := range s.addresses {
		cp := *v
		c.addresses[k] = &cp
	}
	for k, v := range s.products {
		cp := *v
		c.products[k] = &cp
	}
	for k, v := range s.orders {
		c.orders[k] = v.Clone()
	}
	for k, v := range s.txns {
		c.txns[k] = v.Clone()
	}
	for k, v := range s.payments {
		c.payments[k] = v.Clone()
	}
	c.logs = append(c.logs, s.logs...)
	return c
}

type faults struct {
	mu    sync.Mutex
	errs  map[string]error
	calls map[string]int
}

func (f *faults) hit(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.errs[method]
}

type Repo struct {
	txMu *sync.Mutex
	mu   sync.Mutex
	st   *state
	f    *faults
}

var _ repository.Repository = (*Repo)(nil)

func New() *Repo {
	return &Repo{
		txMu: &sync.Mutex{},
		st:   newState(),
		f:    &faults{errs: map[string]error{}, calls: map[string]int{}},
	}
}

// Fail makes every later call of method return err. A nil err clears it.
func (r *Repo) Fail(method string, err error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if err == nil {
		delete(r.f.errs, method)
		return
	}
	r.f.errs[method] = err
}

// Calls returns how many times method was invoked, including failed calls.
func (r *Repo) Calls(method string) int {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.calls[method]
}

func (r *Repo) Transaction(ctx context.Context, fn func(tx repository.Repository) error) error {
	if err := r.f.hit("Transaction"); err != nil {
		return err
	}
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	staged := r.st.clone()
	r.mu.Unlock()

	tx := &Repo{txMu: &sync.Mutex{}, st: staged, f: r.f}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.st = staged
	r.mu.Unlock()
	return nil
}

// Seeding helpers.

func (r *Repo) PutCart(c *repository.CartSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.st.carts[c.UserID] = &cp
}

func (r *Repo) PutAddress(a *models.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.st.addresses[a.ID] = &cp
}

func (r *Repo) PutProduct(p *models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.st.products[p.ID] = &cp
}

// Inspection helpers.

func (r *Repo) Orders() []*models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Order, 0, len(r.st.orders))
	for _, o := range r.st.orders {
		out = append(out, o.Clone())
	}
	return out
}

func (r *Repo) Transactions() []*models.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Transaction, 0, len(r.st.txns))
	for _, t := range r.st.txns {
		out = append(out, t.Clone())
	}
	return out
}

func (r *Repo) Payments() []*models.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Payment, 0, len(r.st.payments))
	for _, p := range r.st.payments {
		out = append(out, p.Clone())
	}
	return out
}

func (r *Repo) TransactionLogs() []*models.TransactionLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.TransactionLog(nil), r.st.logs...)
}

// Repository implementation.

func (r *Repo) GetCartSnapshot(_ context.Context, userID string) (*repository.CartSnapshot, error) {
	if err := r.f.hit("GetCartSnapshot"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.st.carts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	cp.Items = append([]repository.CartLine(nil), c.Items...)
	return &cp, nil
}

func (r *Repo) GetUserAddress(_ context.Context, userID, addressID string) (*models.Address, error) {
	if err := r.f.hit("GetUserAddress"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.st.addresses[addressID]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *Repo) GetProductsByIDs(_ context.Context, ids []string) ([]*models.Product, error) {
	if err := r.f.hit("GetProductsByIDs"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Product
	seen := map[string]bool{}
	for _, id := range ids {
		if p, ok := r.st.products[id]; ok && !seen[id] {
			seen[id] = true
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *Repo) CreateOrder(_ context.Context, order *models.Order) error {
	if err := r.f.hit("CreateOrder"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.st.orders[order.ID]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	r.st.orders[order.ID] = order.Clone()
	return nil
}

func (r *Repo) GetOrder(_ context.Context, id string) (*models.Order, error) {
	if err := r.f.hit("GetOrder"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.st.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *Repo) SaveOrder(_ context.Context, order *models.Order) error {
	if err := r.f.hit("SaveOrder"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.st.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := order.Clone()
	// Associations are not written by Save.
	next.Items, next.ShippingInfo = cur.Items, cur.ShippingInfo
	next.UpdatedAt = time.Now()
	r.st.orders[order.ID] = next
	return nil
}

func (r *Repo) CreateTransaction(_ context.Context, txn *models.Transaction) error {
	if err := r.f.hit("CreateTransaction"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.st.txns[txn.ID]; ok {
		return repository.ErrDuplicate
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	txn.UpdatedAt = txn.CreatedAt
	r.st.txns[txn.ID] = txn.Clone()
	return nil
}

func (r *Repo) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	if err := r.f.hit("GetTransaction"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.st.txns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t.Clone(), nil
}

func (r *Repo) SaveTransaction(_ context.Context, txn *models.Transaction) error {
	if err := r.f.hit("SaveTransaction"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.st.txns[txn.ID]; !ok {
		return repository.ErrNotFound
	}
	next := txn.Clone()
	next.UpdatedAt = time.Now()
	r.st.txns[txn.ID] = next
	return nil
}

func (r *Repo) ListTransactionsByStatus(_ context.Context, status types.TransactionStatus, createdBefore time.Time, limit int) ([]*models.Transaction, error) {
	if err := r.f.hit("ListTransactionsByStatus"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Transaction
	for _, t := range r.st.txns {
		if t.Status == status && t.CreatedAt.Before(createdBefore) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repo) CreateTransactionLog(_ context.Context, log *models.TransactionLog) error {
	if err := r.f.hit("CreateTransactionLog"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *log
	r.st.logs = append(r.st.logs, &cp)
	return nil
}

// uniqueViolation reports whether p collides with another payment on a unique column.
func (s *state) uniqueViolation(p *models.Payment) bool {
	for id, other := range s.payments {
		if id == p.ID {
			continue
		}
		if other.ResNumber == p.ResNumber || other.TransactionID == p.TransactionID {
			return true
		}
		if p.RefNumber != nil && other.RefNumber != nil && *p.RefNumber == *other.RefNumber {
			return true
		}
	}
	return false
}

func (r *Repo) CreatePayment(_ context.Context, p *models.Payment) error {
	if err := r.f.hit("CreatePayment"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.st.payments[p.ID]; ok || r.st.uniqueViolation(p) {
		return repository.ErrDuplicate
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.st.payments[p.ID] = p.Clone()
	return nil
}

func (r *Repo) GetPaymentByResNumber(_ context.Context, res types.ResNumber, _ bool) (*models.Payment, error) {
	if err := r.f.hit("GetPaymentByResNumber"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.st.payments {
		if p.ResNumber == res {
			return p.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Repo) GetPaymentByRefNumber(_ context.Context, ref types.RefNumber) (*models.Payment, error) {
	if err := r.f.hit("GetPaymentByRefNumber"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.st.payments {
		if p.RefNumber != nil && *p.RefNumber == ref {
			return p.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Repo) GetPaymentByTransactionID(_ context.Context, transactionID string) (*models.Payment, error) {
	if err := r.f.hit("GetPaymentByTransactionID"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.st.payments {
		if p.TransactionID == transactionID {
			return p.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Repo) SavePayment(_ context.Context, p *models.Payment) error {
	if err := r.f.hit("SavePayment"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.st.payments[p.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.st.uniqueViolation(p) {
		return repository.ErrDuplicate
	}
	next := p.Clone()
	next.UpdatedAt = time.Now()
	r.st.payments[p.ID] = next
	return nil
}
