package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sundale/projectcoach-backend/internal/domain"
	"github.com/sundale/projectcoach-backend/internal/platform/apperr"
	"github.com/sundale/projectcoach-backend/internal/platform/logger"
)

type SessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *domain.ConversationSession) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.ConversationSession, error)
	Update(ctx context.Context, tx *gorm.DB, session *domain.ConversationSession) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, session *domain.ConversationSession) error {
	if session == nil {
		return apperr.ErrInvalidArgument
	}
	if err := r.conn(tx).WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *sessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.ConversationSession, error) {
	var session domain.ConversationSession
	err := r.conn(tx).WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, tx *gorm.DB, session *domain.ConversationSession) error {
	if session == nil || session.ID == uuid.Nil {
		return apperr.ErrInvalidArgument
	}
	if err := r.conn(tx).WithContext(ctx).Save(session).Error; err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}
