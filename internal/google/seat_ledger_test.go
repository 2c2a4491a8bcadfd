package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func setupMockLedger(ctx context.Context) (*http.ServeMux, *httptest.Server, *SeatLedger) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	srv, _ := sheets.NewService(ctx, option.WithEndpoint(server.URL), option.WithoutAuthentication())
	s := &SeatLedger{
		service:       srv,
		spreadsheetID: "ledger_tid",
		sheetName:     "Seats",
	}
	return mux, server, s
}

func valueRange(rows ...[]interface{}) sheets.ValueRange {
	return sheets.ValueRange{Values: rows}
}

func TestMarkOccupiedWritesMatchedRow(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockLedger(ctx)
	defer server.Close()

	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!A2:C", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(valueRange(
			[]interface{}{"2026-08-28", "1M", "101"},
			[]interface{}{"2026-08-28", "1M", "102"},
		))
	})
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!A3:E3", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(valueRange([]interface{}{"2026-08-28", "1M", "102", ""}))
	})

	var updates int
	var written string
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!D3:D3", func(w http.ResponseWriter, r *http.Request) {
		updates++
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		if len(vr.Values) == 1 && len(vr.Values[0]) == 1 {
			written, _ = vr.Values[0][0].(string)
		}
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	if err := s.MarkOccupied(ctx, "2026-08-28", "1M 102", "Анна Р."); err != nil {
		t.Fatalf("MarkOccupied failed: %v", err)
	}
	if updates != 1 {
		t.Errorf("expected 1 update, got %d", updates)
	}
	if written != "Анна Р." {
		t.Errorf("expected occupant written, got %q", written)
	}
}

func TestMarkOccupiedRowNotFound(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockLedger(ctx)
	defer server.Close()

	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!A2:C", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(valueRange([]interface{}{"2026-08-28", "1M", "101"}))
	})

	err := s.MarkOccupied(ctx, "2026-08-28", "3 77", "Кто-то")
	if !errors.Is(err, ErrSeatRowNotFound) {
		t.Fatalf("expected ErrSeatRowNotFound, got %v", err)
	}
}

func TestMarkFreeClearsOccupant(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockLedger(ctx)
	defer server.Close()

	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!A2:C", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(valueRange([]interface{}{"2026-08-28", "1M", "102"}))
	})
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!A2:E2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(valueRange([]interface{}{"2026-08-28", "1M", "102", "Анна Р."}))
	})

	var written *string
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!D2:D2", func(w http.ResponseWriter, r *http.Request) {
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		if len(vr.Values) == 1 && len(vr.Values[0]) == 1 {
			v, _ := vr.Values[0][0].(string)
			written = &v
		}
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	if err := s.MarkFree(ctx, "2026-08-28", "1M 102"); err != nil {
		t.Fatalf("MarkFree failed: %v", err)
	}
	if written == nil || *written != "" {
		t.Errorf("expected occupant cleared, got %v", written)
	}
}

func TestMarkFreeOnEmptySeatIsNoop(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockLedger(ctx)
	defer server.Close()

	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!A2:C", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(valueRange([]interface{}{"2026-08-28", "1M", "102"}))
	})
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!A2:E2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(valueRange([]interface{}{"2026-08-28", "1M", "102", ""}))
	})
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!D2:D2", func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty occupant cell must not be written")
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	// Повторное освобождение уже пустого места ничего не пишет.
	if err := s.MarkFree(ctx, "2026-08-28", "1M 102"); err != nil {
		t.Fatalf("MarkFree failed: %v", err)
	}
	if err := s.MarkFree(ctx, "2026-08-28", "1M 102"); err != nil {
		t.Fatalf("second MarkFree failed: %v", err)
	}
}

func TestWriteOccupantRetriesAfterRowShift(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockLedger(ctx)
	defer server.Close()

	// Первый снимок находит место в строке 2, но к подтверждающему чтению
	// строки сдвинулись. Второй снимок указывает на строку 3.
	var scans int
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!A2:C", func(w http.ResponseWriter, r *http.Request) {
		scans++
		if scans == 1 {
			_ = json.NewEncoder(w).Encode(valueRange([]interface{}{"2026-08-28", "1M", "102"}))
			return
		}
		_ = json.NewEncoder(w).Encode(valueRange(
			[]interface{}{"2026-08-28", "1M", "101"},
			[]interface{}{"2026-08-28", "1M", "102"},
		))
	})
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!A2:E2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(valueRange([]interface{}{"2026-08-28", "1M", "101", ""}))
	})
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!A3:E3", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(valueRange([]interface{}{"2026-08-28", "1M", "102", ""}))
	})

	var updates int
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!D3:D3", func(w http.ResponseWriter, r *http.Request) {
		updates++
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!D2:D2", func(w http.ResponseWriter, r *http.Request) {
		t.Error("stale row must not be written")
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	if err := s.MarkOccupied(ctx, "2026-08-28", "1M 102", "Пётр Ж."); err != nil {
		t.Fatalf("MarkOccupied failed: %v", err)
	}
	if scans != 2 {
		t.Errorf("expected 2 snapshots, got %d", scans)
	}
	if updates != 1 {
		t.Errorf("expected 1 update, got %d", updates)
	}
}

func TestSeatLedgerTestConnection(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockLedger(ctx)
	defer server.Close()

	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!A1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(valueRange([]interface{}{"Дата"}))
	})

	if err := s.TestConnection(ctx); err != nil {
		t.Errorf("TestConnection failed: %v", err)
	}
}

func TestListAvailableFiltersOccupied(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockLedger(ctx)
	defer server.Close()

	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Seats!A2:E", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(valueRange(
			[]interface{}{"2026-08-28", "1M", "101", "Анна Р."},
			[]interface{}{"2026-08-28", "1M", "102", ""},
			[]interface{}{"2026-08-29", "1M", "103", ""},
		))
	})

	free, err := s.ListAvailable(ctx, "2026-08-28")
	if err != nil {
		t.Fatalf("ListAvailable failed: %v", err)
	}
	if len(free) != 1 {
		t.Fatalf("expected 1 free seat, got %d", len(free))
	}
	if free[0].RefNo() != "1M 102" {
		t.Errorf("expected 1M 102, got %s", free[0].RefNo())
	}
}

func TestParseSeatRow(t *testing.T) {
	tests := []struct {
		name string
		row  []interface{}
		want *parsedSeat
	}{
		{
			name: "full row",
			row:  []interface{}{"2026-08-28", "1M", "102", "Ivanov", "1"},
			want: &parsedSeat{day: "2026-08-28", floor: "1M", number: "102", occupant: "Ivanov", count: 1},
		},
		{
			name: "free seat without occupant",
			row:  []interface{}{"2026-08-28", "2", "14"},
			want: &parsedSeat{day: "2026-08-28", floor: "2", number: "14"},
		},
		{
			name: "numeric cells from sheets api",
			row:  []interface{}{"2026-08-28", float64(2), float64(14)},
			want: &parsedSeat{day: "2026-08-28", floor: "2", number: "14"},
		},
		{
			name: "short row ignored",
			row:  []interface{}{"2026-08-28", "1M"},
			want: nil,
		},
		{
			name: "blank cells ignored",
			row:  []interface{}{"", "1M", "102"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seat := parseSeatRow(tt.row)
			if tt.want == nil {
				if seat != nil {
					t.Fatalf("expected nil seat, got %+v", seat)
				}
				return
			}
			if seat == nil {
				t.Fatal("expected seat, got nil")
			}
			if seat.Day != tt.want.day || seat.Floor != tt.want.floor || seat.Number != tt.want.number {
				t.Errorf("unexpected seat: %+v", seat)
			}
			if seat.Occupant != tt.want.occupant {
				t.Errorf("expected occupant %q, got %q", tt.want.occupant, seat.Occupant)
			}
			if seat.SeatCount != tt.want.count {
				t.Errorf("expected count %d, got %d", tt.want.count, seat.SeatCount)
			}
		})
	}
}

type parsedSeat struct {
	day      string
	floor    string
	number   string
	occupant string
	count    int
}

func TestCellString(t *testing.T) {
	if got := cellString("1M"); got != "1M" {
		t.Errorf("expected 1M, got %s", got)
	}
	if got := cellString(float64(102)); got != "102" {
		t.Errorf("expected 102, got %s", got)
	}
	if got := cellString(true); got != "true" {
		t.Errorf("expected true, got %s", got)
	}
}
