package repository

import (
	"time"

	"github.com/google/uuid"
)

func uuidFromByte(b byte) uuid.UUID {
	var arr uuid.UUID
	arr[15] = b
	return arr
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
}
