package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"hotdesk/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrSeatRowNotFound сообщает, что в реестре нет строки с таким местом на эту дату
var ErrSeatRowNotFound = errors.New("seat row not found in ledger")

// SeatLedger пишет занятость мест в Google-таблицу. Строка ищется по
// значениям (дата, этаж, место) при каждой записи; индексы строк не
// запоминаются, потому что реестр правят руками и строки сдвигаются.
type SeatLedger struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewSeatLedger(credentialsFile, spreadsheetID, sheetName string) (*SeatLedger, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	// Создаем JWT конфигурацию
	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	return &SeatLedger{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// TestConnection проверяет подключение к таблице
func (s *SeatLedger) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail возвращает email сервисного аккаунта
func (s *SeatLedger) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// FetchSeats reads every ledger row for the given day.
// Sheet layout: A=Day, B=Floor, C=Seat, D=Occupant, E=SeatCount.
func (s *SeatLedger) FetchSeats(ctx context.Context, day string) ([]*models.Seat, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A2:E").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var seats []*models.Seat
	for _, row := range resp.Values {
		seat := parseSeatRow(row)
		if seat == nil || seat.Day != day {
			continue
		}
		seats = append(seats, seat)
	}

	return seats, nil
}

// ListAvailable возвращает свободные места на дату
func (s *SeatLedger) ListAvailable(ctx context.Context, day string) ([]*models.Seat, error) {
	seats, err := s.FetchSeats(ctx, day)
	if err != nil {
		return nil, err
	}

	var free []*models.Seat
	for _, seat := range seats {
		if !seat.Occupied() {
			free = append(free, seat)
		}
	}
	return free, nil
}

// MarkOccupied записывает имя занявшего в строку места на дату
func (s *SeatLedger) MarkOccupied(ctx context.Context, day, refNo, occupant string) error {
	return s.writeOccupant(ctx, day, refNo, occupant, false)
}

// MarkFree очищает имя в строке места на дату. Уже пустая ячейка не трогается.
func (s *SeatLedger) MarkFree(ctx context.Context, day, refNo string) error {
	return s.writeOccupant(ctx, day, refNo, "", true)
}

// writeOccupant locates the row by value, confirms the match with a
// single-row re-read, then updates only the occupant cell. One retry with a
// fresh snapshot when the confirm read shows the sheet shifted underneath.
func (s *SeatLedger) writeOccupant(ctx context.Context, day, refNo, occupant string, skipIfEmpty bool) error {
	floor, number, err := models.ParseRefNo(refNo)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < 2; attempt++ {
		rowIdx, err := s.findSeatRow(ctx, day, floor, number)
		if err != nil {
			return err
		}

		current, err := s.readRow(ctx, rowIdx)
		if err != nil {
			return err
		}
		if current == nil || current.Day != day || current.Floor != floor || current.Number != number {
			// Sheet shifted between snapshot and write
			continue
		}

		if skipIfEmpty && !current.Occupied() {
			return nil
		}

		rangeData := fmt.Sprintf("%s!D%d:D%d", s.sheetName, rowIdx, rowIdx)
		_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{
			Values: [][]interface{}{{occupant}},
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to update ledger row: %w", err)
		}

		return nil
	}

	return ErrSeatRowNotFound
}

// findSeatRow locates the 1-based sheet row whose day, floor and seat
// columns match. The full range is re-read on every call.
func (s *SeatLedger) findSeatRow(ctx context.Context, day, floor, number string) (int, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A2:C").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read ledger: %w", err)
	}

	for i, row := range resp.Values {
		if len(row) < 3 {
			continue
		}
		if cellString(row[0]) == day && cellString(row[1]) == floor && cellString(row[2]) == number {
			// Values start at row 2; sheet rows are 1-based
			return i + 2, nil
		}
	}

	return 0, ErrSeatRowNotFound
}

func (s *SeatLedger) readRow(ctx context.Context, rowIdx int) (*models.Seat, error) {
	rangeData := fmt.Sprintf("%s!A%d:E%d", s.sheetName, rowIdx, rowIdx)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rangeData).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger row: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return parseSeatRow(resp.Values[0]), nil
}

func parseSeatRow(row []interface{}) *models.Seat {
	if len(row) < 3 {
		return nil
	}

	seat := &models.Seat{
		Day:    cellString(row[0]),
		Floor:  cellString(row[1]),
		Number: cellString(row[2]),
	}
	if seat.Day == "" || seat.Floor == "" || seat.Number == "" {
		return nil
	}

	if len(row) > 3 {
		seat.Occupant = cellString(row[3])
	}
	if len(row) > 4 {
		var count int
		fmt.Sscanf(cellString(row[4]), "%d", &count)
		seat.SeatCount = count
	}

	return seat
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
