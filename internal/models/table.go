package models

// TableStatus represents the front-of-house state of a table
type TableStatus string

const (
	TableFree            TableStatus = "free"
	TableOccupied        TableStatus = "occupied"
	TableAwaitingFood    TableStatus = "awaiting_food"
	TableFoodReady       TableStatus = "food_ready"
	TableAwaitingPayment TableStatus = "awaiting_payment"
)

// Valid reports whether s is one of the known table states
func (s TableStatus) Valid() bool {
	switch s {
	case TableFree, TableOccupied, TableAwaitingFood, TableFoodReady, TableAwaitingPayment:
		return true
	}
	return false
}

// Table represents a dining table
type Table struct {
	ID     int64       `json:"id" db:"id"`
	Number int         `json:"number" db:"number"`
	Status TableStatus `json:"status" db:"status"`
}

// CreateTableRequest registers a new table
type CreateTableRequest struct {
	Number int `json:"number"`
}

// Validate validates the create table request
func (req *CreateTableRequest) Validate() error {
	if req.Number < 1 {
		return ValidationError{Field: "number", Message: "table number must be greater than 0"}
	}
	return nil
}
