package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

func TestDispatcherSendsEveryMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := NewMockNotifier(ctrl)

	n.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	d := NewDispatcher(n, 0)
	d.Dispatch(
		Message{Kind: KindOrderConfirmation, To: "a@b.co"},
		Message{Kind: KindBusinessAlert, To: "shop@b.co"},
	)
	d.Wait()
}

func TestDispatcherSwallowsFailuresAndPanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := NewMockNotifier(ctrl)

	n.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))
	n.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, Message) error {
		panic("boom")
	})

	d := NewDispatcher(n, 0)
	d.Dispatch(Message{Kind: KindBalancePaid, To: "a@b.co"}, Message{Kind: KindBalancePaid, To: "c@d.co"})
	d.Wait()
}

func TestDispatcherSkipsMessagesWithoutRecipient(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := NewMockNotifier(ctrl)

	d := NewDispatcher(n, 0)
	d.Dispatch(Message{Kind: KindBusinessAlert})
	d.Wait()
}

func TestOrderConfirmationListsItems(t *testing.T) {
	msg := OrderConfirmation(models.Order{
		OrderNumber:   "JOY-ABCDEF",
		CustomerName:  "Sam",
		CustomerEmail: "sam@example.com",
		PickupDate:    "2024-05-01",
		PickupTime:    "10:00 AM",
		Total:         10,
		Items: []models.OrderItem{{
			ID: "1", Name: "Cookie Box", Price: 10, Quantity: 1,
			BoxItems: []models.BoxItem{{ID: "c1", Name: "Chocolate Chip"}},
		}},
	})

	if msg.To != "sam@example.com" || msg.Kind != KindOrderConfirmation {
		t.Fatalf("unexpected message header: %+v", msg)
	}
	for _, want := range []string{"JOY-ABCDEF", "Cookie Box", "Chocolate Chip", "$10.00"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("expected body to contain %q, got %q", want, msg.Body)
		}
	}
}
