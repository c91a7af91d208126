package loyalty

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"kirana-be/internal/logger"

	"go.uber.org/zap"
)

// CashbackRate is the fraction of an order total credited back to the
// owning customer when the order is delivered.
const CashbackRate = 0.01

// Creditor applies delivery cashback to a customer's balance.
type Creditor interface {
	CreditForOrder(ctx context.Context, userID uint, orderTotal float64) (float64, error)
}

// CreditAmount returns the cashback for an order total, rounded down to
// the nearest whole currency unit.
func CreditAmount(orderTotal float64) float64 {
	return math.Floor(orderTotal * CashbackRate)
}

type creditor struct {
	db *sql.DB
}

func NewCreditor(db *sql.DB) Creditor {
	return &creditor{db: db}
}

func (c *creditor) CreditForOrder(ctx context.Context, userID uint, orderTotal float64) (float64, error) {
	amount := CreditAmount(orderTotal)
	if amount <= 0 {
		return 0, nil
	}

	log := logger.FromCtx(ctx).With(
		zap.Uint("user_id", userID),
		zap.Float64("amount", amount),
	)

	res, err := c.db.ExecContext(ctx, `
		UPDATE users
		SET loyalty_balance = loyalty_balance + $1
		WHERE id = $2
	`, amount, userID)
	if err != nil {
		log.Error("failed to credit loyalty balance", zap.Error(err))
		return 0, fmt.Errorf("credit loyalty balance: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		log.Warn("loyalty credit skipped, user not found")
		return 0, fmt.Errorf("user %d not found", userID)
	}

	log.Info("loyalty balance credited")
	return amount, nil
}
