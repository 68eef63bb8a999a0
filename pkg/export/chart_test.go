package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatingChartOrdersByRoomThenSeat(t *testing.T) {
	records := []SeatRecord{
		{RoomNo: "R2", SeatNumber: 1, RollNo: "201", GroupKey: "ME"},
		{RoomNo: "R1", SeatNumber: 2, RollNo: "102", GroupKey: "CS"},
		{RoomNo: "R1", SeatNumber: 1, RollNo: "101", GroupKey: "CS"},
	}

	data, err := SeatingChart(records)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "room_no,seat_number,roll_no,group_key", lines[0])
	assert.Equal(t, "R1,1,101,CS", lines[1])
	assert.Equal(t, "R1,2,102,CS", lines[2])
	assert.Equal(t, "R2,1,201,ME", lines[3])
}

func TestSeatingChartEmpty(t *testing.T) {
	data, err := SeatingChart(nil)
	require.NoError(t, err)
	assert.Equal(t, "room_no,seat_number,roll_no,group_key\n", string(data))
}

func TestSeatingChartDoesNotMutateInput(t *testing.T) {
	records := []SeatRecord{
		{RoomNo: "R2", SeatNumber: 1, RollNo: "201"},
		{RoomNo: "R1", SeatNumber: 1, RollNo: "101"},
	}

	_, err := SeatingChart(records)
	require.NoError(t, err)
	assert.Equal(t, "R2", records[0].RoomNo)
}
