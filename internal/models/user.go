package models

import (
	"time"
)

type User struct {
	ID             int64
	CreatedAt      time.Time
	Email          string
	FirstName      string
	LastName       string
	HashedPassword string
}
