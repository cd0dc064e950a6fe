package services

import (
	"context"
	"errors"
	"testing"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/config"
)

func TestCloseMonthEmptyPeriod(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestServices(t, config.MonthCloseCurrent)
	submit(t, svc, "2024-02-10", "100", "0", "0", "100")

	if _, err := svc.MonthClose.CloseMonth(ctx, "2024-03"); !errors.Is(err, apperrors.ErrEmptyPeriod) {
		t.Fatalf("error = %v, want empty period", err)
	}
	archives, _ := store.ListArchives(ctx)
	if len(archives) != 0 {
		t.Errorf("archives = %d, want none written", len(archives))
	}

	if _, err := svc.MonthClose.CloseMonth(ctx, "2024-3"); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("bad month error = %v, want validation", err)
	}
}

func TestCloseMonthIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t, config.MonthCloseCurrent)
	submit(t, svc, "2024-03-01", "500", "300", "50", "150")
	withdraw(t, svc, "2024-03-05", "20", "supplies")

	first, err := svc.MonthClose.CloseMonth(ctx, "2024-03")
	if err != nil {
		t.Fatalf("CloseMonth: %v", err)
	}
	if !first.IsClosed || first.ClosedAt == nil {
		t.Error("archive not marked closed")
	}
	if !first.StartingFrontSafe.IsZero() || !first.StartingBackSafe.IsZero() {
		t.Error("first close should start from zero")
	}
	if !first.EndingFrontSafe.Equal(dec("150")) || !first.EndingBackSafe.Equal(dec("30")) {
		t.Errorf("ending = %s / %s, want 150 / 30", first.EndingFrontSafe, first.EndingBackSafe)
	}
	if len(first.Entries) != 1 || len(first.Withdrawals) != 1 {
		t.Errorf("attached %d entries and %d withdrawals", len(first.Entries), len(first.Withdrawals))
	}

	second, err := svc.MonthClose.CloseMonth(ctx, "2024-03")
	if err != nil {
		t.Fatalf("second CloseMonth: %v", err)
	}
	if second.ID != first.ID {
		t.Error("re-close created a new archive")
	}
	if !second.EndingFrontSafe.Equal(first.EndingFrontSafe) || !second.EndingBackSafe.Equal(first.EndingBackSafe) {
		t.Error("re-close without changes moved the ending balances")
	}

	archives, _ := svc.MonthClose.ListArchives(ctx)
	if len(archives) != 1 {
		t.Errorf("archives = %d, want 1", len(archives))
	}
}

func TestCloseMonthChainsFromPreviousClose(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t, config.MonthCloseCurrent)

	submit(t, svc, "2024-01-31", "100", "0", "40", "60")
	if _, err := svc.MonthClose.CloseMonth(ctx, "2024-01"); err != nil {
		t.Fatal(err)
	}

	// February is never closed, so March starts from January.
	submit(t, svc, "2024-02-15", "10", "0", "0", "70")
	submit(t, svc, "2024-03-02", "30", "0", "10", "90")

	march, err := svc.MonthClose.CloseMonth(ctx, "2024-03")
	if err != nil {
		t.Fatal(err)
	}
	if !march.StartingFrontSafe.Equal(dec("60")) || !march.StartingBackSafe.Equal(dec("40")) {
		t.Errorf("starting = %s / %s, want 60 / 40", march.StartingFrontSafe, march.StartingBackSafe)
	}
	if !march.EndingFrontSafe.Equal(dec("90")) || !march.EndingBackSafe.Equal(dec("50")) {
		t.Errorf("ending = %s / %s, want 90 / 50", march.EndingFrontSafe, march.EndingBackSafe)
	}

	archives, err := svc.MonthClose.ListArchives(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(archives) != 2 || archives[0].Month != "2024-03" {
		t.Error("archives not listed newest first")
	}
}

func TestCloseMonthModes(t *testing.T) {
	tests := []struct {
		mode                string
		wantFront, wantBack string
	}{
		{mode: config.MonthCloseCurrent, wantFront: "300", wantBack: "70"},
		{mode: config.MonthCloseAsOf, wantFront: "150", wantBack: "50"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			ctx := context.Background()
			svc, _ := newTestServices(t, tt.mode)
			submit(t, svc, "2024-03-31", "200", "0", "50", "150")
			submit(t, svc, "2024-04-02", "170", "0", "20", "300")

			archive, err := svc.MonthClose.CloseMonth(ctx, "2024-03")
			if err != nil {
				t.Fatal(err)
			}
			if !archive.EndingFrontSafe.Equal(dec(tt.wantFront)) || !archive.EndingBackSafe.Equal(dec(tt.wantBack)) {
				t.Errorf("ending = %s / %s, want %s / %s",
					archive.EndingFrontSafe, archive.EndingBackSafe, tt.wantFront, tt.wantBack)
			}
		})
	}
}

func TestGetArchive(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t, config.MonthCloseCurrent)

	if _, err := svc.MonthClose.GetArchive(ctx, "2024-03"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}

	submit(t, svc, "2024-03-01", "100", "0", "20", "80")
	submit(t, svc, "2024-03-02", "0", "0", "0", "80")
	if _, err := svc.MonthClose.CloseMonth(ctx, "2024-03"); err != nil {
		t.Fatal(err)
	}

	archive, err := svc.MonthClose.GetArchive(ctx, "2024-03")
	if err != nil {
		t.Fatalf("GetArchive: %v", err)
	}
	if len(archive.Entries) != 2 || len(archive.Withdrawals) != 0 {
		t.Errorf("attached %d entries and %d withdrawals", len(archive.Entries), len(archive.Withdrawals))
	}
}
