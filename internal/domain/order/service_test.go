package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fake implementations ---

// memStore commits an order only when every item "insert" succeeds, which
// mirrors the transactional contract of the real store.
type memStore struct {
	mu        sync.Mutex
	orders    []Order
	products  map[int64]ProductRef
	nextOrder int64
	nextItem  int64

	creates    int
	failOnItem int // 1-based index of the item insert that fails; 0 disables
	readErr    error
}

func newMemStore() *memStore {
	return &memStore{products: map[int64]ProductRef{
		7: {Name: "Linen Shirt", Image: "/img/7.jpg"},
		9: {Name: "Wool Coat", Image: "/img/9.jpg"},
	}}
}

func (m *memStore) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++

	staged := *o
	staged.ID = m.nextOrder + 1
	staged.CreatedAt = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	staged.Items = make([]Item, len(o.Items))
	itemID := m.nextItem
	for i, it := range o.Items {
		if m.failOnItem == i+1 {
			return errors.New("insert order item: foreign key violation")
		}
		itemID++
		it.ID = itemID
		staged.Items[i] = it
	}

	m.nextOrder = staged.ID
	m.nextItem = itemID
	m.orders = append(m.orders, staged)
	*o = staged
	return nil
}

func (m *memStore) rows(match func(Order) bool) []Row {
	var rows []Row
	for _, o := range m.orders {
		if !match(o) {
			continue
		}
		header := o
		header.Items = nil
		if len(o.Items) == 0 {
			rows = append(rows, Row{Header: header})
			continue
		}
		for _, it := range o.Items {
			it := it
			if p, ok := m.products[it.ProductID]; ok {
				it.Product = &p
			}
			rows = append(rows, Row{Header: header, Item: &it})
		}
	}
	return rows
}

func (m *memStore) RowsByID(_ context.Context, id int64) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.rows(func(o Order) bool { return o.ID == id }), nil
}

func (m *memStore) RowsByEmail(_ context.Context, email string) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.rows(func(o Order) bool { return o.Email == email }), nil
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []Order
}

func (n *recordingNotifier) Notify(_ context.Context, o Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, o)
}

// --- Helpers ---

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func scenarioCheckout() Checkout {
	return Checkout{
		Email:      "a@b.com",
		FirstName:  "Ada",
		LastName:   "Byron",
		Address:    "1 Main St",
		City:       "London",
		PostalCode: "N1",
		Phone:      "555-0100",
		CartItems: []CartItem{
			{ProductID: 7, Quantity: 2, Size: "M", Price: dec("29.99")},
			{ProductID: 9, Quantity: 1, Size: "L", Price: dec("49.99")},
		},
		Subtotal: dec("109.97"),
		Shipping: dec("7.99"),
		Tax:      dec("0"),
		Total:    dec("117.96"),
	}
}

func newTestWriter(t *testing.T, store Store, n Notifier) *Writer {
	t.Helper()
	w, err := NewWriter(store, n, Options{})
	require.NoError(t, err)
	return w
}

// --- Tests ---

func TestCreateOrder_Scenario(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	w := newTestWriter(t, store, notifier)
	r := NewReader(store, Options{})
	ctx := context.Background()

	id, err := w.CreateOrder(ctx, scenarioCheckout())
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := r.GetOrderByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "a@b.com", got.Email)
	assert.True(t, decimal.RequireFromString("109.97").Equal(got.Subtotal))
	assert.True(t, decimal.RequireFromString("7.99").Equal(got.Shipping))
	assert.True(t, decimal.Zero.Equal(got.Tax))
	assert.True(t, decimal.RequireFromString("117.96").Equal(got.Total))

	require.Len(t, got.Items, 2)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, "M", got.Items[0].Size)
	assert.True(t, decimal.RequireFromString("29.99").Equal(got.Items[0].Price))
	assert.Equal(t, 1, got.Items[1].Quantity)
	assert.Equal(t, "L", got.Items[1].Size)
	assert.True(t, decimal.RequireFromString("49.99").Equal(got.Items[1].Price))
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, "Linen Shirt", got.Items[0].Product.Name)

	require.Len(t, notifier.got, 1)
	assert.Equal(t, id, notifier.got[0].ID)
	assert.Len(t, notifier.got[0].Items, 2)
}

func TestCreateOrder_ItemCountMatchesCart(t *testing.T) {
	store := newMemStore()
	w := newTestWriter(t, store, nil)
	r := NewReader(store, Options{})
	ctx := context.Background()

	for _, n := range []int{1, 3, 10} {
		c := scenarioCheckout()
		c.Email = "count@example.com"
		c.CartItems = nil
		for i := range n {
			c.CartItems = append(c.CartItems, CartItem{ProductID: int64(i + 1), Quantity: i + 1, Price: dec("1.50")})
		}

		id, err := w.CreateOrder(ctx, c)
		require.NoError(t, err)

		got, err := r.GetOrderByID(ctx, id)
		require.NoError(t, err)
		require.Len(t, got.Items, n)
		for i, it := range got.Items {
			assert.Equal(t, int64(i+1), it.ProductID, "items keep cart order")
		}
	}

	orders, err := r.GetOrdersByCustomer(ctx, "count@example.com")
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestCreateOrder_ValidationBeforeStore(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	w := newTestWriter(t, store, notifier)

	c := scenarioCheckout()
	c.Email = "  "

	_, err := w.CreateOrder(context.Background(), c)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "email", vErr.Field)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Zero(t, store.creates, "store must not be touched")
	assert.Empty(t, notifier.got)
}

func TestCreateOrder_NthItemFails(t *testing.T) {
	store := newMemStore()
	store.failOnItem = 2
	notifier := &recordingNotifier{}
	w := newTestWriter(t, store, notifier)
	r := NewReader(store, Options{})
	ctx := context.Background()

	_, err := w.CreateOrder(ctx, scenarioCheckout())

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.Contains(t, err.Error(), "create order")

	_, err = r.GetOrderByID(ctx, 1)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)

	orders, err := r.GetOrdersByCustomer(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, notifier.got, "no notification without commit")
}

func TestGetOrderByID_NotFound(t *testing.T) {
	r := NewReader(newMemStore(), Options{})

	got, err := r.GetOrderByID(context.Background(), 404)

	require.Nil(t, got)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, int64(404), nfErr.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGetOrdersByCustomer_NoOrders(t *testing.T) {
	r := NewReader(newMemStore(), Options{})

	orders, err := r.GetOrdersByCustomer(context.Background(), "nobody@example.com")

	require.NoError(t, err)
	require.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestGetOrdersByCustomer_EmptyEmail(t *testing.T) {
	r := NewReader(newMemStore(), Options{})

	_, err := r.GetOrdersByCustomer(context.Background(), "")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestGetOrderByID_Repeatable(t *testing.T) {
	store := newMemStore()
	w := newTestWriter(t, store, nil)
	r := NewReader(store, Options{})
	ctx := context.Background()

	id, err := w.CreateOrder(ctx, scenarioCheckout())
	require.NoError(t, err)

	first, err := r.GetOrderByID(ctx, id)
	require.NoError(t, err)
	second, err := r.GetOrderByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReader_StoreError(t *testing.T) {
	store := newMemStore()
	store.readErr = errors.New("connection reset")
	r := NewReader(store, Options{})
	ctx := context.Background()

	_, err := r.GetOrderByID(ctx, 1)
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.ErrorIs(t, err, store.readErr)

	_, err = r.GetOrdersByCustomer(ctx, "a@b.com")
	assert.Equal(t, KindPersistence, KindOf(err))
}

func TestKindOf_Unknown(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindNotFound, KindOf(errors.Wrap(&NotFoundError{ID: 1}, "lookup")))
}
