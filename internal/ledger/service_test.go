package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database/dbtest"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/notify"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/refcode"
)

func cookieOrder() CreateOrderInput {
	return CreateOrderInput{
		CustomerName:  "Sam Baker",
		CustomerEmail: "sam@example.com",
		CustomerPhone: "(555) 123-4567",
		PickupDate:    "2024-05-01",
		PickupTime:    "10:00 AM",
		Items:         []models.OrderItem{{ID: "1", Name: "Chocolate Chip", Price: 2.50, Quantity: 4}},
		Total:         10.00,
	}
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return NewService(dbtest.Open(t), nil, "shop@example.com", opts...)
}

func TestCreateOrderStoresPendingOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, cookieOrder())
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if !refcode.Valid(created.OrderNumber) {
		t.Fatalf("unexpected order number %q", created.OrderNumber)
	}

	got, err := svc.GetOrder(ctx, created.OrderNumber)
	if err != nil {
		t.Fatalf("GetOrder returned error: %v", err)
	}
	if got.Total != 10 || got.Subtotal != 10 || got.RemainingBalance != 10 || got.DepositAmount != 0 {
		t.Fatalf("unexpected money fields: %+v", got)
	}
	if got.OrderStatus != models.OrderPending || got.PaymentStatus != models.PaymentPending {
		t.Fatalf("unexpected statuses: %s / %s", got.OrderStatus, got.PaymentStatus)
	}
	if got.PaymentMethod != "pending" {
		t.Fatalf("expected default payment method, got %q", got.PaymentMethod)
	}
	if len(got.Items) != 1 || got.Items[0].Name != "Chocolate Chip" || got.Items[0].Quantity != 4 {
		t.Fatalf("items not round-tripped: %+v", got.Items)
	}
}

func TestCreateOrderKeepsBoxContents(t *testing.T) {
	svc := newTestService(t)
	in := cookieOrder()
	in.Items = append(in.Items, models.OrderItem{
		ID: "box-6", Name: "Box of 6", Price: 15, Quantity: 1, Category: "boxes",
		BoxItems: []models.BoxItem{{ID: "1", Name: "Chocolate Chip"}, {ID: "2", Name: "Snickerdoodle"}},
	})
	in.Total = 25

	created, err := svc.CreateOrder(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	got, err := svc.GetOrderByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetOrderByID returned error: %v", err)
	}
	if len(got.Items) != 2 || len(got.Items[1].BoxItems) != 2 || got.Items[1].BoxItems[1].Name != "Snickerdoodle" {
		t.Fatalf("box contents lost: %+v", got.Items)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"bad email", func(in *CreateOrderInput) { in.CustomerEmail = "not-an-email" }},
		{"bad phone", func(in *CreateOrderInput) { in.CustomerPhone = "12345" }},
		{"bad pickup date", func(in *CreateOrderInput) { in.PickupDate = "05/01/2024" }},
		{"missing pickup time", func(in *CreateOrderInput) { in.PickupTime = " " }},
		{"no items", func(in *CreateOrderInput) { in.Items = nil; in.Total = 0 }},
		{"zero price", func(in *CreateOrderInput) { in.Items[0].Price = 0 }},
		{"zero quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }},
		{"negative total", func(in *CreateOrderInput) { in.Total = -1 }},
		{"total mismatch", func(in *CreateOrderInput) { in.Total = 9.50 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cookieOrder()
			in.Items = append([]models.OrderItem(nil), in.Items...)
			tt.mutate(&in)
			if _, err := svc.CreateOrder(context.Background(), in); !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateOrderAcceptsPhoneLayouts(t *testing.T) {
	for _, phone := range []string{"(555) 123-4567", "(555)123-4567", "555-123-4567", "555.123.4567", "5551234567"} {
		if !ValidPhone(phone) {
			t.Fatalf("expected %q to be accepted", phone)
		}
	}
}

func TestCreateOrderToleratesRounding(t *testing.T) {
	svc := newTestService(t)
	in := cookieOrder()
	in.Total = 10.004
	created, err := svc.CreateOrder(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if created.Total != 10 {
		t.Fatalf("expected server total 10, got %v", created.Total)
	}
}

func TestConcurrentCreatesGetDistinctNumbers(t *testing.T) {
	svc := newTestService(t)
	const n = 40

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]bool{}
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := svc.CreateOrder(context.Background(), cookieOrder())
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[o.OrderNumber] = true
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(numbers) != n {
		t.Fatalf("expected %d distinct order numbers, got %d", n, len(numbers))
	}
}

func TestOrderNumberCollisionRetries(t *testing.T) {
	draws := []string{"JOY-AAAAAA", "JOY-AAAAAA", "JOY-BBBBBB"}
	next := 0
	svc := newTestService(t, WithOrderNumbers(func() (string, error) {
		n := draws[next]
		next++
		return n, nil
	}))

	first, err := svc.CreateOrder(context.Background(), cookieOrder())
	if err != nil || first.OrderNumber != "JOY-AAAAAA" {
		t.Fatalf("first create: %v %q", err, first.OrderNumber)
	}
	second, err := svc.CreateOrder(context.Background(), cookieOrder())
	if err != nil || second.OrderNumber != "JOY-BBBBBB" {
		t.Fatalf("second create should skip the taken number: %v %q", err, second.OrderNumber)
	}
}

func TestOrderNumberExhaustion(t *testing.T) {
	calls := 0
	svc := newTestService(t, WithOrderNumbers(func() (string, error) {
		calls++
		return "JOY-CCCCCC", nil
	}))

	if _, err := svc.CreateOrder(context.Background(), cookieOrder()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	calls = 0
	_, err := svc.CreateOrder(context.Background(), cookieOrder())
	if !errors.Is(err, ErrOrderNumberExhausted) {
		t.Fatalf("expected ErrOrderNumberExhausted, got %v", err)
	}
	if calls != maxOrderNumberAttempts {
		t.Fatalf("expected %d draws, got %d", maxOrderNumberAttempts, calls)
	}
}

func TestCreateOrderNotifiesCustomerAndBusiness(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := notify.NewMockNotifier(ctrl)
	dispatcher := notify.NewDispatcher(mock, time.Second)

	var (
		mu    sync.Mutex
		kinds = map[notify.Kind]string{}
	)
	mock.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg notify.Message) error {
		mu.Lock()
		kinds[msg.Kind] = msg.To
		mu.Unlock()
		return errors.New("mail server unreachable")
	}).Times(2)

	svc := NewService(dbtest.Open(t), dispatcher, "shop@example.com")
	created, err := svc.CreateOrder(context.Background(), cookieOrder())
	if err != nil {
		t.Fatalf("notification failure must not fail the order: %v", err)
	}
	dispatcher.Wait()

	if kinds[notify.KindOrderConfirmation] != "sam@example.com" || kinds[notify.KindBusinessAlert] != "shop@example.com" {
		t.Fatalf("unexpected notifications: %v", kinds)
	}
	if _, err := svc.GetOrder(context.Background(), created.OrderNumber); err != nil {
		t.Fatalf("order should persist: %v", err)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		steps []string
		err   error
	}{
		{"happy path", []string{"ready", "picked_up"}, nil},
		{"cancel pending", []string{"cancelled"}, nil},
		{"cancel ready", []string{"ready", "cancelled"}, nil},
		{"same status", []string{"pending"}, nil},
		{"skip ready", []string{"picked_up"}, ErrInvalidTransition},
		{"backwards", []string{"ready", "pending"}, ErrInvalidTransition},
		{"terminal cancelled", []string{"cancelled", "ready"}, ErrInvalidTransition},
		{"terminal picked up", []string{"ready", "picked_up", "cancelled"}, ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := svc.CreateOrder(ctx, cookieOrder())
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			for i, step := range tt.steps {
				_, err = svc.TransitionOrderStatus(ctx, o.ID, step)
				if i < len(tt.steps)-1 && err != nil {
					t.Fatalf("step %s: %v", step, err)
				}
			}
			if tt.err == nil && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestOrderStatusRejectsLegacyAndUnknownTargets(t *testing.T) {
	svc := newTestService(t)
	o, err := svc.CreateOrder(context.Background(), cookieOrder())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, status := range []string{"confirmed", "completed", "baking"} {
		if _, err := svc.TransitionOrderStatus(context.Background(), o.ID, status); !IsValidation(err) {
			t.Fatalf("expected validation error for %q, got %v", status, err)
		}
	}
	if _, err := svc.TransitionOrderStatus(context.Background(), "missing", "ready"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLegacyConfirmedBehavesAsPending(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	o, err := svc.CreateOrder(ctx, cookieOrder())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.db.Exec(`UPDATE orders SET order_status = 'confirmed' WHERE id = ?`, o.ID); err != nil {
		t.Fatalf("seed legacy status: %v", err)
	}
	got, err := svc.TransitionOrderStatus(ctx, o.ID, "ready")
	if err != nil || got.OrderStatus != models.OrderReady {
		t.Fatalf("expected confirmed -> ready, got %v %s", err, got.OrderStatus)
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o, _ := svc.CreateOrder(ctx, cookieOrder())
	if _, err := svc.TransitionPaymentStatus(ctx, o.ID, "paid", ""); !IsValidation(err) {
		t.Fatalf("paid without method should be a validation error, got %v", err)
	}

	got, err := svc.TransitionPaymentStatus(ctx, o.ID, "deposit_paid", "venmo")
	if err != nil {
		t.Fatalf("deposit_paid: %v", err)
	}
	if got.DepositMethod != models.MethodVenmo || got.RemainingBalance != 10 {
		t.Fatalf("unexpected order after deposit_paid: %+v", got)
	}

	got, err = svc.TransitionPaymentStatus(ctx, o.ID, "paid", "CASH")
	if err != nil {
		t.Fatalf("paid: %v", err)
	}
	if got.BalanceMethod != models.MethodCash || got.RemainingBalance != 0 || !MoneyConsistent(got) {
		t.Fatalf("unexpected order after paid: %+v", got)
	}

	if _, err := svc.TransitionPaymentStatus(ctx, o.ID, "pending", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected paid -> pending to be refused, got %v", err)
	}
	if _, err := svc.TransitionPaymentStatus(ctx, o.ID, "paid", "Cash"); err != nil {
		t.Fatalf("same status should be a no-op, got %v", err)
	}
}

func TestRecordDepositKeepsMoneyInvariant(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	o, _ := svc.CreateOrder(ctx, cookieOrder())

	got, err := svc.RecordDeposit(ctx, o.OrderNumber, DepositInput{Amount: 4, Method: "paypal", TransactionID: "TX-1"})
	if err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}
	if got.PaymentStatus != models.PaymentDepositPaid || got.DepositAmount != 4 || got.RemainingBalance != 6 {
		t.Fatalf("unexpected order after deposit: %+v", got)
	}
	if !MoneyConsistent(got) {
		t.Fatalf("money invariant broken: %+v", got)
	}

	if _, err := svc.RecordDeposit(ctx, o.OrderNumber, DepositInput{Amount: 1, Method: "Cash"}); !errors.Is(err, ErrDepositRecorded) {
		t.Fatalf("expected ErrDepositRecorded, got %v", err)
	}

	paid, err := svc.PayRemainingBalance(ctx, o.OrderNumber, BalancePayment{TransactionID: "TX-2", Method: "Venmo"})
	if err != nil {
		t.Fatalf("PayRemainingBalance: %v", err)
	}
	if paid.RemainingBalance != 0 || paid.BalanceMethod != models.MethodVenmo || paid.DepositAmount != 4 || !MoneyConsistent(paid) {
		t.Fatalf("unexpected order after balance: %+v", paid)
	}
}

func TestRecordDepositFullAmountSettlesOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	o, _ := svc.CreateOrder(ctx, cookieOrder())

	got, err := svc.RecordDeposit(ctx, o.OrderNumber, DepositInput{Amount: 10, Method: "PayPal", TransactionID: "TX-9", PayerEmail: "payer@example.com"})
	if err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}
	if got.PaymentStatus != models.PaymentPaid || got.RemainingBalance != 0 || got.PaymentMethod != models.MethodPayPal {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestPayRemainingBalanceTwiceFails(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	o, _ := svc.CreateOrder(ctx, cookieOrder())

	if _, err := svc.PayRemainingBalance(ctx, o.OrderNumber, BalancePayment{TransactionID: "TX-1", Method: "PayPal"}); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	_, err := svc.PayRemainingBalance(ctx, o.OrderNumber, BalancePayment{TransactionID: "TX-2", Method: "PayPal"})
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}

	got, _ := svc.GetOrder(ctx, o.OrderNumber)
	if got.RemainingBalance != 0 || got.PaymentTransactionID != "TX-1" {
		t.Fatalf("second payment must not change the order: %+v", got)
	}
}

func TestBalancePaymentKeepsDepositRecord(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	o, _ := svc.CreateOrder(ctx, cookieOrder())

	deposit := DepositInput{Amount: 4, Method: "PayPal", TransactionID: "TX-DEP", PayerEmail: "Payer@Example.com"}
	if _, err := svc.RecordDeposit(ctx, o.OrderNumber, deposit); err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}
	paid, err := svc.PayRemainingBalance(ctx, o.OrderNumber, BalancePayment{TransactionID: "TX-BAL", Method: "Cash"})
	if err != nil {
		t.Fatalf("PayRemainingBalance: %v", err)
	}
	if paid.DepositTransactionID != "TX-DEP" || paid.PaymentTransactionID != "TX-BAL" {
		t.Fatalf("transaction ids: deposit %q, balance %q", paid.DepositTransactionID, paid.PaymentTransactionID)
	}
	if paid.PayerEmail != "payer@example.com" {
		t.Fatalf("payer email overwritten: %q", paid.PayerEmail)
	}
}

func TestPayRemainingBalanceUnknownOrder(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.PayRemainingBalance(context.Background(), "JOY-ZZZZZZ", BalancePayment{TransactionID: "TX", Method: "Cash"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrdersFiltersAndPages(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		o, err := svc.CreateOrder(ctx, cookieOrder())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, o.ID)
	}
	if _, err := svc.TransitionOrderStatus(ctx, ids[0], "ready"); err != nil {
		t.Fatalf("transition: %v", err)
	}

	page, err := svc.ListOrders(ctx, OrderFilter{}, 1, 2)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if page.Total != 5 || len(page.Orders) != 2 || page.Orders[0].ID != ids[4] {
		t.Fatalf("unexpected first page: total=%d len=%d", page.Total, len(page.Orders))
	}
	if len(page.Orders[0].Items) != 1 {
		t.Fatalf("expected items on listed orders")
	}

	ready, err := svc.ListOrders(ctx, OrderFilter{OrderStatus: "ready"}, 1, 20)
	if err != nil || ready.Total != 1 || ready.Orders[0].ID != ids[0] {
		t.Fatalf("status filter failed: %v %+v", err, ready)
	}
}

func TestDeleteOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	o, _ := svc.CreateOrder(ctx, cookieOrder())

	if err := svc.DeleteOrder(ctx, o.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if _, err := svc.GetOrderByID(ctx, o.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected order to be gone, got %v", err)
	}
	if err := svc.DeleteOrder(ctx, o.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
