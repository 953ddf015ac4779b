package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/models"
)

type UserRepository interface {
	// Create inserts a user row for the chat id if none exists yet and
	// returns the row either way.
	Create(ctx context.Context, chatID string, phone, pinSalt, pinHash *string) (*models.User, error)
	GetByChatID(ctx context.Context, chatID string) (*models.User, error)
	UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error
	UpdatePin(ctx context.Context, id uuid.UUID, pinSalt, pinHash string) error
}

type userRepository struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, chatID string, phone, pinSalt, pinHash *string) (*models.User, error) {
	q := `
        INSERT INTO users (id, chat_id, phone, pin_salt, pin_hash, balance, created_at)
        VALUES ($1, $2, $3, $4, $5, 0, NOW())
        ON CONFLICT (chat_id) DO NOTHING
    `
	if _, err := r.db.Exec(ctx, q, uuid.New(), chatID, phone, pinSalt, pinHash); err != nil {
		return nil, err
	}
	return r.GetByChatID(ctx, chatID)
}

func (r *userRepository) GetByChatID(ctx context.Context, chatID string) (*models.User, error) {
	q := `
        SELECT id, chat_id, phone, pin_salt, pin_hash, balance, created_at
        FROM users
        WHERE chat_id = $1
    `
	row := r.db.QueryRow(ctx, q, chatID)
	var u models.User
	err := row.Scan(&u.ID, &u.ChatID, &u.Phone, &u.PinSalt, &u.PinHash, &u.Balance, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error {
	q := `UPDATE users SET phone = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id, phone)
	return err
}

func (r *userRepository) UpdatePin(ctx context.Context, id uuid.UUID, pinSalt, pinHash string) error {
	q := `UPDATE users SET pin_salt = $2, pin_hash = $3 WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id, pinSalt, pinHash)
	return err
}
