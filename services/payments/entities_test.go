package main

import (
	"errors"
	"testing"
)

func TestNewPayment(t *testing.T) {
	payment := NewPayment("pay-1", "order-1", "user-1", 32.00, PaymentMethodCard, CardDetails{LastFour: "4242", Brand: "visa"})

	if payment.Status != PaymentStatusProcessing {
		t.Errorf("Expected Status %s, got %s", PaymentStatusProcessing, payment.Status)
	}
	if payment.Currency != "USD" {
		t.Errorf("Expected Currency USD, got %s", payment.Currency)
	}
	if payment.PaymentGateway != PaymentGatewayLocal {
		t.Errorf("Expected PaymentGateway %s, got %s", PaymentGatewayLocal, payment.PaymentGateway)
	}
	if payment.Amount != 32.00 {
		t.Errorf("Expected Amount 32.00, got %.2f", payment.Amount)
	}
	if payment.TransactionID != "" {
		t.Errorf("Expected empty TransactionID, got %s", payment.TransactionID)
	}
	if payment.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestPaymentComplete(t *testing.T) {
	payment := NewPayment("pay-1", "order-1", "user-1", 32.00, PaymentMethodCard, CardDetails{})

	err := payment.Complete("TXN_abc")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if payment.Status != PaymentStatusCompleted {
		t.Errorf("Expected Status %s, got %s", PaymentStatusCompleted, payment.Status)
	}
	if payment.TransactionID != "TXN_abc" {
		t.Errorf("Expected TransactionID TXN_abc, got %s", payment.TransactionID)
	}
}

func TestPaymentCompleteTwice(t *testing.T) {
	payment := NewPayment("pay-1", "order-1", "user-1", 32.00, PaymentMethodCard, CardDetails{})
	_ = payment.Complete("TXN_abc")

	err := payment.Complete("TXN_other")

	if !errors.Is(err, ErrNotSettleable) {
		t.Errorf("Expected ErrNotSettleable, got %v", err)
	}
	if payment.TransactionID != "TXN_abc" {
		t.Errorf("Expected TransactionID to be unchanged, got %s", payment.TransactionID)
	}
}

func TestPaymentFail(t *testing.T) {
	payment := NewPayment("pay-1", "order-1", "user-1", 32.00, PaymentMethodCard, CardDetails{})

	err := payment.Fail("card declined")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if payment.Status != PaymentStatusFailed {
		t.Errorf("Expected Status %s, got %s", PaymentStatusFailed, payment.Status)
	}
	if payment.FailureReason != "card declined" {
		t.Errorf("Expected FailureReason 'card declined', got %s", payment.FailureReason)
	}
}

func TestPaymentRefundDefaultsToFullAmount(t *testing.T) {
	payment := NewPayment("pay-1", "order-1", "user-1", 32.00, PaymentMethodCard, CardDetails{})
	_ = payment.Complete("TXN_abc")

	err := payment.Refund(0, "REFUND_xyz")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if payment.Status != PaymentStatusRefunded {
		t.Errorf("Expected Status %s, got %s", PaymentStatusRefunded, payment.Status)
	}
	if payment.RefundAmount != 32.00 {
		t.Errorf("Expected RefundAmount 32.00, got %.2f", payment.RefundAmount)
	}
	if payment.RefundTransactionID != "REFUND_xyz" {
		t.Errorf("Expected RefundTransactionID REFUND_xyz, got %s", payment.RefundTransactionID)
	}
}

func TestPaymentRefundPartialAmount(t *testing.T) {
	payment := NewPayment("pay-1", "order-1", "user-1", 32.00, PaymentMethodCard, CardDetails{})
	_ = payment.Complete("TXN_abc")

	err := payment.Refund(10.00, "REFUND_xyz")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if payment.RefundAmount != 10.00 {
		t.Errorf("Expected RefundAmount 10.00, got %.2f", payment.RefundAmount)
	}
}

func TestPaymentRefundTwice(t *testing.T) {
	payment := NewPayment("pay-1", "order-1", "user-1", 32.00, PaymentMethodCard, CardDetails{})
	_ = payment.Complete("TXN_abc")
	_ = payment.Refund(0, "REFUND_first")

	err := payment.Refund(5.00, "REFUND_second")

	if !errors.Is(err, ErrAlreadyRefunded) {
		t.Errorf("Expected ErrAlreadyRefunded, got %v", err)
	}
	// Falha idempotente: o estado do primeiro reembolso permanece
	if payment.RefundAmount != 32.00 {
		t.Errorf("Expected RefundAmount to stay 32.00, got %.2f", payment.RefundAmount)
	}
	if payment.RefundTransactionID != "REFUND_first" {
		t.Errorf("Expected RefundTransactionID to stay REFUND_first, got %s", payment.RefundTransactionID)
	}
}

func TestIsValidPaymentMethod(t *testing.T) {
	for _, method := range []string{PaymentMethodCard, PaymentMethodPaypal, PaymentMethodBankTransfer, PaymentMethodWallet} {
		if !IsValidPaymentMethod(method) {
			t.Errorf("Expected %s to be a valid payment method", method)
		}
	}
	if IsValidPaymentMethod("cash") {
		t.Error("Expected 'cash' to be invalid")
	}
}

func TestMaskCard(t *testing.T) {
	card := MaskCard("4242424242424242", "visa")

	if card.LastFour != "4242" {
		t.Errorf("Expected LastFour 4242, got %s", card.LastFour)
	}
	if card.Brand != "visa" {
		t.Errorf("Expected Brand visa, got %s", card.Brand)
	}
}

func TestMaskCardShortNumber(t *testing.T) {
	card := MaskCard("99", "visa")

	if card.LastFour != "99" {
		t.Errorf("Expected LastFour 99, got %s", card.LastFour)
	}
}
