package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestTransactionErrorMatchesCauseAndKind(t *testing.T) {
	err := error(&TransactionError{BillNo: "POS-1", Err: &LookupMissError{Name: "Aspirin"}})

	if !errors.Is(err, ErrTransactionFailed) {
		t.Error("expected ErrTransactionFailed")
	}
	if !errors.Is(err, ErrLookupMiss) {
		t.Error("expected ErrLookupMiss")
	}
	var miss *LookupMissError
	if !errors.As(err, &miss) || miss.Name != "Aspirin" {
		t.Fatalf("errors.As lookup miss = %v", miss)
	}
	if !strings.Contains(err.Error(), "POS-1") {
		t.Errorf("message %q lacks bill number", err.Error())
	}
}

func TestInvalidNamesField(t *testing.T) {
	err := Invalid("discount_percent", "must be a number")
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ErrValidation")
	}
	if !strings.Contains(err.Error(), "discount_percent") {
		t.Errorf("message %q lacks field name", err.Error())
	}
}
