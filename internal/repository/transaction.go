package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-loto-bot/internal/model"
)

// TransactionRepository records an audit row for every balance change.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create creates a new transaction record.
func (r *TransactionRepository) Create(ctx context.Context, chatID, userID int64, amount int64, txType string, description *string) (*model.Transaction, error) {
	const query = `
		INSERT INTO transactions (chat_id, user_id, amount, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, chat_id, user_id, amount, type, description, created_at
	`

	var tx model.Transaction
	err := r.pool.QueryRow(ctx, query, chatID, userID, amount, txType, description).Scan(
		&tx.ID,
		&tx.ChatID,
		&tx.UserID,
		&tx.Amount,
		&tx.Type,
		&tx.Description,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return &tx, nil
}

// GetByUser retrieves a player's transactions, newest first.
func (r *TransactionRepository) GetByUser(ctx context.Context, chatID, userID int64, limit int) ([]*model.Transaction, error) {
	const query = `
		SELECT id, chat_id, user_id, amount, type, description, created_at
		FROM transactions
		WHERE chat_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, chatID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		var tx model.Transaction
		err := rows.Scan(
			&tx.ID,
			&tx.ChatID,
			&tx.UserID,
			&tx.Amount,
			&tx.Type,
			&tx.Description,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
