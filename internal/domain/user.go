package domain

import "time"

// AccountUser owns accounts. User management itself lives outside this
// service; rows are only ever looked up here.
type AccountUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
