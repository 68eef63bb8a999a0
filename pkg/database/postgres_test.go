package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Pushkar524/exam-seat-allotment/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:           "db.internal",
		Port:           5433,
		User:           "allocator",
		Password:       "secret",
		Name:           "exam_seat_allotment",
		SSLMode:        "require",
		ConnectTimeout: 5 * time.Second,
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=allocator password=secret dbname=exam_seat_allotment sslmode=require connect_timeout=5",
		dsn(cfg),
	)
}

func TestDSNWithoutConnectTimeout(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Name:     "exam_seat_allotment",
		SSLMode:  "disable",
	}

	assert.NotContains(t, dsn(cfg), "connect_timeout")
}
