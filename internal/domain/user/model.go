package user

// Principal is the acting identity resolved by the account service.
type Principal struct {
	UserID string
	Name   string
}
