package order

import (
	"time"

	"github.com/trezcool/examprep/core/exam"
)

type Status string

// Statuses
const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// Order is a package purchase.
type Order struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Package       exam.Level `json:"package"`
	Status        Status     `json:"status"`
	AmountCents   int64      `json:"amount_cents"`
	UserID        string     `json:"user_id,omitempty"` // set once provisioned
	CreatedAt     time.Time  `json:"created_at"`        // UTC
	PaidAt        time.Time  `json:"paid_at"`           // UTC
	ProvisionedAt time.Time  `json:"provisioned_at"`    // UTC
}

func (o Order) IsPaid() bool        { return o.Status == StatusPaid }
func (o Order) IsProvisioned() bool { return !o.ProvisionedAt.IsZero() }
