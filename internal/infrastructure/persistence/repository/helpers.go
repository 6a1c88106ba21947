package repository

import (
	"database/sql"
	"time"

	"github.com/garyjia/budget-ledger/internal/domain/entity"
)

// nullMoney converts an optional amount to a nullable column value
func nullMoney(m *entity.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*m), Valid: true}
}

// moneyFromNull converts a nullable column value back to an optional amount
func moneyFromNull(n sql.NullInt64) *entity.Money {
	if !n.Valid {
		return nil
	}
	m := entity.Money(n.Int64)
	return &m
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64FromNull(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timeFromNull(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
