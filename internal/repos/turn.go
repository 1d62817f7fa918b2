package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sundale/projectcoach-backend/internal/domain"
	"github.com/sundale/projectcoach-backend/internal/platform/apperr"
	"github.com/sundale/projectcoach-backend/internal/platform/logger"
)

type TurnRepo interface {
	Create(ctx context.Context, tx *gorm.DB, turn *domain.Turn) error
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, limit int) ([]*domain.Turn, error)
}

type turnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTurnRepo(db *gorm.DB, baseLog *logger.Logger) TurnRepo {
	return &turnRepo{db: db, log: baseLog.With("repo", "TurnRepo")}
}

func (r *turnRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *turnRepo) Create(ctx context.Context, tx *gorm.DB, turn *domain.Turn) error {
	if turn == nil {
		return apperr.ErrInvalidArgument
	}
	if err := r.conn(tx).WithContext(ctx).Create(turn).Error; err != nil {
		return fmt.Errorf("create turn: %w", err)
	}
	return nil
}

// ListBySession returns the most recent turns first, capped at limit.
func (r *turnRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, limit int) ([]*domain.Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	var turns []*domain.Turn
	err := r.conn(tx).WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq DESC").
		Limit(limit).
		Find(&turns).Error
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	return turns, nil
}
