package domain

// UserCategories holds a user's category labels per transaction type.
// Order is display order.
type UserCategories struct {
	Expense []string `json:"expense"`
	Income  []string `json:"income"`
}

// For returns the list for t. Unknown types have no categories.
func (c UserCategories) For(t TransactionType) []string {
	switch t {
	case Expense:
		return c.Expense
	case Income:
		return c.Income
	default:
		return nil
	}
}

// Clone returns a deep copy.
func (c UserCategories) Clone() UserCategories {
	return UserCategories{
		Expense: append([]string(nil), c.Expense...),
		Income:  append([]string(nil), c.Income...),
	}
}
