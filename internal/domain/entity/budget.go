package entity

import "time"

// Category is a fiscal-year budget bucket. Used is a running counter maintained
// by the reconciliation engine, not a live sum.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Allocated Money     `json:"allocated"`
	Used      Money     `json:"used"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Remaining returns the unspent part of the allocation.
func (c *Category) Remaining() Money {
	return c.Allocated - c.Used
}

// SubActivity is a sub-ledger under a category. Its usage is derived on read.
type SubActivity struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	ParentID   *int64    `json:"parent_id,omitempty"`
	Name       string    `json:"name"`
	Allocated  Money     `json:"allocated"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubActivityUsage is the derived usage of a sub-activity.
type SubActivityUsage struct {
	SubActivity *SubActivity `json:"sub_activity"`
	Used        Money        `json:"used"`
	Remaining   Money        `json:"remaining"`
}
