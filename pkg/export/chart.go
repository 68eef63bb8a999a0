package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
)

// SeatRecord is one row of a seating chart. Charts carry roll numbers
// only; halls post them without names.
type SeatRecord struct {
	RoomNo     string
	SeatNumber int
	RollNo     string
	GroupKey   string
}

var chartHeaders = []string{"room_no", "seat_number", "roll_no", "group_key"}

// SeatingChart renders seat records as CSV ordered by room then seat, the
// order in which charts are pinned up outside examination rooms.
func SeatingChart(records []SeatRecord) ([]byte, error) {
	sorted := make([]SeatRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].RoomNo != sorted[j].RoomNo {
			return sorted[i].RoomNo < sorted[j].RoomNo
		}
		return sorted[i].SeatNumber < sorted[j].SeatNumber
	})

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(chartHeaders); err != nil {
		return nil, fmt.Errorf("write chart headers: %w", err)
	}
	for _, record := range sorted {
		row := []string{
			record.RoomNo,
			strconv.Itoa(record.SeatNumber),
			record.RollNo,
			record.GroupKey,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write chart row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush chart: %w", err)
	}
	return buf.Bytes(), nil
}
