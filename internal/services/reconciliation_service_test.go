package services

import (
	"context"
	"errors"
	"testing"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/config"
	"cash-reconciliation-service/internal/models"
)

func TestSubmitEntryBalancedDayWithTransfer(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestServices(t, config.MonthCloseCurrent)

	submit(t, svc, "2024-02-29", "100", "0", "0", "100")
	entry := submit(t, svc, "2024-03-01", "500", "400", "50", "150")

	if !entry.ExpectedFrontSafe.Equal(dec("150")) {
		t.Errorf("expected front safe = %s, want 150", entry.ExpectedFrontSafe)
	}
	if !entry.Difference.IsZero() {
		t.Errorf("difference = %s, want 0", entry.Difference)
	}
	if !entry.IsBalanced || entry.Status() != models.StatusBalanced {
		t.Errorf("status = %s, want balanced", entry.Status())
	}

	txns, err := store.ListTransactions(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txns))
	}
	deposit := txns[0]
	if deposit.Type != models.TransactionDeposit || !deposit.Amount.Equal(dec("50")) {
		t.Errorf("deposit = %s %s, want deposit 50", deposit.Type, deposit.Amount)
	}
	if deposit.Date != "2024-03-01" || deposit.DailyEntryID == nil || *deposit.DailyEntryID != entry.ID {
		t.Error("deposit is not linked to the entry and its date")
	}
	assertBalances(t, svc, "150", "50")
}

func TestSubmitEntryChainsThroughPreviousCount(t *testing.T) {
	svc, _ := newTestServices(t, config.MonthCloseCurrent)

	days := []struct {
		date, cashIn, deposited, toBack, actual string
		wantExpected                            string
	}{
		{"2024-03-01", "300", "100", "0", "200", "200"},
		{"2024-03-02", "250", "200", "25", "220", "225"},
		{"2024-03-03", "80", "0", "100", "200", "200"},
		{"2024-03-04", "0", "0", "0", "199.99", "200"},
	}

	for _, d := range days {
		entry := submit(t, svc, d.date, d.cashIn, d.deposited, d.toBack, d.actual)
		if !entry.ExpectedFrontSafe.Equal(dec(d.wantExpected)) {
			t.Errorf("%s expected = %s, want %s", d.date, entry.ExpectedFrontSafe, d.wantExpected)
		}
	}
	assertBalances(t, svc, "199.99", "125")

	summary, err := svc.Balances.Summary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// 03-02 is short by 5 and 03-04 by one cent.
	if summary.OffEntries != 2 {
		t.Errorf("off entries = %d, want 2", summary.OffEntries)
	}
}

func TestSubmitEntryBackdatedUsesPredecessor(t *testing.T) {
	svc, _ := newTestServices(t, config.MonthCloseCurrent)

	submit(t, svc, "2024-03-01", "100", "0", "0", "100")
	submit(t, svc, "2024-03-05", "400", "0", "0", "500")

	backdated := submit(t, svc, "2024-03-03", "50", "0", "0", "150")
	if !backdated.ExpectedFrontSafe.Equal(dec("150")) {
		t.Errorf("backdated expected = %s, want 150 from the 03-01 count", backdated.ExpectedFrontSafe)
	}
	if !backdated.IsBalanced {
		t.Error("backdated entry should balance against its predecessor")
	}
	// The latest entry by date still defines the front safe.
	assertBalances(t, svc, "500", "0")
}

func TestSubmitEntryRejects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   EntryInput
		wantErr error
		field   string
	}{
		{
			name:    "missing date",
			input:   EntryInput{CashIn: dec("1"), ActualLeftInFront: decPtr("0")},
			wantErr: apperrors.ErrValidation,
			field:   "date",
		},
		{
			name:    "malformed date",
			input:   EntryInput{Date: "03/01/2024", ActualLeftInFront: decPtr("0")},
			wantErr: apperrors.ErrValidation,
			field:   "date",
		},
		{
			name:    "missing count",
			input:   EntryInput{Date: "2024-03-02", CashIn: dec("10")},
			wantErr: apperrors.ErrValidation,
			field:   "actual_left_in_front",
		},
		{
			name:    "negative amount",
			input:   EntryInput{Date: "2024-03-02", Deposited: dec("-1"), ActualLeftInFront: decPtr("0")},
			wantErr: apperrors.ErrValidation,
			field:   "deposited",
		},
		{
			name:    "sub-cent amount",
			input:   EntryInput{Date: "2024-03-02", CashIn: dec("1.001"), ActualLeftInFront: decPtr("0")},
			wantErr: apperrors.ErrValidation,
			field:   "cash_in",
		},
		{
			name:    "amount too large to store",
			input:   EntryInput{Date: "2024-03-02", CashIn: dec("10000000000"), ActualLeftInFront: decPtr("0")},
			wantErr: apperrors.ErrValidation,
			field:   "cash_in",
		},
		{
			name:    "derived difference too large to store",
			input:   EntryInput{Date: "2024-03-02", ToBackSafe: dec("9999999999.99"), ActualLeftInFront: decPtr("9999999999.99")},
			wantErr: apperrors.ErrValidation,
			field:   "difference",
		},
		{
			name:    "duplicate date",
			input:   EntryInput{Date: "2024-03-01", ActualLeftInFront: decPtr("0")},
			wantErr: apperrors.ErrDuplicateDate,
			field:   "date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestServices(t, config.MonthCloseCurrent)
			submit(t, svc, "2024-03-01", "0", "0", "0", "0")

			_, err := svc.Reconciliation.SubmitEntry(ctx, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			var appErr *apperrors.Error
			if errors.As(err, &appErr) && appErr.Field != tt.field {
				t.Errorf("field = %q, want %q", appErr.Field, tt.field)
			}

			entries, _ := store.ListEntries(ctx, "")
			if len(entries) != 1 {
				t.Errorf("entries = %d, nothing should have been written", len(entries))
			}
		})
	}
}

func TestEditEntryKeepsDepositInSync(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestServices(t, config.MonthCloseCurrent)

	submit(t, svc, "2024-03-01", "100", "0", "0", "100")
	entry := submit(t, svc, "2024-03-02", "200", "100", "50", "150")
	assertBalances(t, svc, "150", "50")

	raised := dec("80")
	actual := dec("120")
	edited, err := svc.Reconciliation.EditEntry(ctx, entry.ID, EntryUpdate{ToBackSafe: &raised, ActualLeftInFront: &actual})
	if err != nil {
		t.Fatalf("EditEntry: %v", err)
	}
	if !edited.ExpectedFrontSafe.Equal(dec("120")) || !edited.IsBalanced {
		t.Errorf("edited expected = %s balanced = %v, want 120 balanced", edited.ExpectedFrontSafe, edited.IsBalanced)
	}
	assertBalances(t, svc, "120", "80")

	txns, _ := store.ListTransactions(ctx, "")
	if len(txns) != 1 {
		t.Fatalf("transactions = %d, want the single linked deposit", len(txns))
	}

	newDate := "2024-03-03"
	if _, err := svc.Reconciliation.EditEntry(ctx, entry.ID, EntryUpdate{Date: &newDate}); err != nil {
		t.Fatalf("EditEntry(date): %v", err)
	}
	deposit, err := store.GetTransactionByEntryID(ctx, entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if deposit.Date != newDate {
		t.Errorf("deposit date = %s, want %s", deposit.Date, newDate)
	}

	zero := dec("0")
	if _, err := svc.Reconciliation.EditEntry(ctx, entry.ID, EntryUpdate{ToBackSafe: &zero}); err != nil {
		t.Fatalf("EditEntry(no transfer): %v", err)
	}
	if _, err := store.GetTransactionByEntryID(ctx, entry.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("deposit should be gone, got %v", err)
	}
	assertBalances(t, svc, "120", "0")
}

func TestEditEntryRecomputesFromPredecessor(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t, config.MonthCloseCurrent)

	submit(t, svc, "2024-03-01", "100", "0", "0", "100")
	entry := submit(t, svc, "2024-03-02", "50", "0", "0", "150")

	// A later entry must not become the predecessor of an earlier one.
	submit(t, svc, "2024-03-05", "850", "0", "0", "1000")

	notes := "recount"
	edited, err := svc.Reconciliation.EditEntry(ctx, entry.ID, EntryUpdate{Notes: &notes})
	if err != nil {
		t.Fatal(err)
	}
	if !edited.ExpectedFrontSafe.Equal(dec("150")) || edited.Notes != notes {
		t.Errorf("expected = %s notes = %q", edited.ExpectedFrontSafe, edited.Notes)
	}
}

func TestEditEntryRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t, config.MonthCloseCurrent)

	submit(t, svc, "2024-03-01", "0", "0", "0", "0")
	entry := submit(t, svc, "2024-03-02", "0", "0", "0", "0")

	taken := "2024-03-01"
	if _, err := svc.Reconciliation.EditEntry(ctx, entry.ID, EntryUpdate{Date: &taken}); !errors.Is(err, apperrors.ErrDuplicateDate) {
		t.Errorf("move onto taken date error = %v, want duplicate date", err)
	}

	empty := ""
	if _, err := svc.Reconciliation.EditEntry(ctx, entry.ID, EntryUpdate{Date: &empty}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("empty date error = %v, want validation", err)
	}

	negative := dec("-5")
	if _, err := svc.Reconciliation.EditEntry(ctx, entry.ID, EntryUpdate{CashIn: &negative}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("negative amount error = %v, want validation", err)
	}

	if _, err := svc.Reconciliation.EditEntry(ctx, "missing", EntryUpdate{}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("missing entry error = %v, want not found", err)
	}
}

func TestApproveAndRemoveApproval(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t, config.MonthCloseCurrent)

	entry := submit(t, svc, "2024-03-01", "100", "0", "0", "95")
	if entry.Status() != models.StatusOff {
		t.Fatalf("status = %s, want off", entry.Status())
	}

	for _, note := range []string{"", "   \t"} {
		if _, err := svc.Reconciliation.Approve(ctx, entry.ID, note); !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("Approve(%q) error = %v, want validation", note, err)
		}
	}

	approved, err := svc.Reconciliation.Approve(ctx, entry.ID, "  till miscount  ")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !approved.Difference.Equal(entry.Difference) || approved.IsBalanced {
		t.Error("approval changed the discrepancy")
	}
	if approved.Status() != models.StatusApproved {
		t.Errorf("status = %s, want approved", approved.Status())
	}
	if approved.ApprovalNote != "till miscount" {
		t.Errorf("note = %q, want trimmed", approved.ApprovalNote)
	}
	if approved.ApprovedAt == nil || !approved.ApprovedAt.Equal(fixedNow) {
		t.Errorf("approved at = %v, want %v", approved.ApprovedAt, fixedNow)
	}

	summary, _ := svc.Balances.Summary(ctx)
	if summary.OffEntries != 0 {
		t.Errorf("off entries = %d after approval, want 0", summary.OffEntries)
	}

	cleared, err := svc.Reconciliation.RemoveApproval(ctx, entry.ID)
	if err != nil {
		t.Fatalf("RemoveApproval: %v", err)
	}
	if cleared.Status() != models.StatusOff || cleared.ApprovalNote != "" || cleared.ApprovedAt != nil {
		t.Errorf("approval not cleared: %+v", cleared)
	}

	stored, err := svc.Reconciliation.GetEntry(ctx, entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ManuallyApproved {
		t.Error("stored entry still approved")
	}
}

func TestDeleteEntryRestoresBackSafe(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestServices(t, config.MonthCloseCurrent)

	submit(t, svc, "2024-03-01", "100", "0", "30", "70")
	entry := submit(t, svc, "2024-03-02", "100", "0", "45", "125")
	assertBalances(t, svc, "125", "75")

	if err := svc.Reconciliation.DeleteEntry(ctx, entry.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	assertBalances(t, svc, "70", "30")

	if _, err := store.GetTransactionByEntryID(ctx, entry.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Error("linked deposit survived the delete")
	}
	if err := svc.Reconciliation.DeleteEntry(ctx, entry.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("second delete error = %v, want not found", err)
	}
}

func TestListEntriesByMonth(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t, config.MonthCloseCurrent)

	submit(t, svc, "2024-02-28", "0", "0", "0", "0")
	submit(t, svc, "2024-03-01", "0", "0", "0", "0")
	submit(t, svc, "2024-03-09", "0", "0", "0", "0")

	march, err := svc.Reconciliation.ListEntries(ctx, "2024-03")
	if err != nil {
		t.Fatal(err)
	}
	if len(march) != 2 || march[0].Date != "2024-03-09" {
		t.Errorf("march = %d entries, want 2 newest first", len(march))
	}

	if _, err := svc.Reconciliation.ListEntries(ctx, "March"); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("bad month error = %v, want validation", err)
	}
}
