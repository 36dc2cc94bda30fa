// dao/principal_dao.go
package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	echo_errors "github.com/dev-mohitbeniwal/dataeng/api/errors"
	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
)

// PrincipalRepository is the durable source of truth for principals.
// FindByName returns ErrPrincipalNotFound when no record matches.
type PrincipalRepository interface {
	FindByName(ctx context.Context, name string) (*model.Principal, error)
}

// PrincipalStore adds the writes used by administration.
type PrincipalStore interface {
	PrincipalRepository
	Create(ctx context.Context, principal model.Principal) (*model.Principal, error)
	SetActive(ctx context.Context, name string, active bool) (*model.Principal, error)
}

// PrincipalDAO keeps principals in the postgres "users" table.
type PrincipalDAO struct {
	DB *gorm.DB
}

var _ PrincipalStore = &PrincipalDAO{}

func NewPrincipalDAO(db *gorm.DB) *PrincipalDAO {
	return &PrincipalDAO{DB: db}
}

// EnsureSchema creates or migrates the users table.
func (dao *PrincipalDAO) EnsureSchema(ctx context.Context) error {
	logger.Info("Ensuring principal schema")
	if err := dao.DB.WithContext(ctx).AutoMigrate(&model.Principal{}); err != nil {
		logger.Error("Failed to migrate principal schema", zap.Error(err))
		return fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
	}
	return nil
}

func (dao *PrincipalDAO) FindByName(ctx context.Context, name string) (*model.Principal, error) {
	start := time.Now()

	var principal model.Principal
	err := dao.DB.WithContext(ctx).Where("username = ?", name).Take(&principal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Debug("Principal not found", zap.String("name", name))
		return nil, echo_errors.ErrPrincipalNotFound
	}
	if err != nil {
		logger.Error("Failed to look up principal",
			zap.Error(err),
			zap.String("name", name),
			zap.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
	}

	logger.Debug("Principal loaded from database",
		zap.String("name", name),
		zap.Duration("duration", time.Since(start)))
	return &principal, nil
}

func (dao *PrincipalDAO) Create(ctx context.Context, principal model.Principal) (*model.Principal, error) {
	start := time.Now()
	logger.Info("Creating new principal", zap.String("name", principal.Name))

	err := dao.DB.WithContext(ctx).Create(&principal).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, echo_errors.ErrPrincipalConflict
	}
	if err != nil {
		logger.Error("Failed to create principal",
			zap.Error(err),
			zap.String("name", principal.Name),
			zap.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
	}

	logger.Info("Principal created successfully",
		zap.Int64("id", principal.ID),
		zap.Duration("duration", time.Since(start)))
	return &principal, nil
}

func (dao *PrincipalDAO) SetActive(ctx context.Context, name string, active bool) (*model.Principal, error) {
	var principal model.Principal
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Principal{}).Where("username = ?", name).Update("is_active", active)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return echo_errors.ErrPrincipalNotFound
		}
		return tx.Where("username = ?", name).Take(&principal).Error
	})
	if errors.Is(err, echo_errors.ErrPrincipalNotFound) {
		return nil, err
	}
	if err != nil {
		logger.Error("Failed to update principal activity", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
	}

	logger.Info("Principal activity updated", zap.String("name", name), zap.Bool("active", active))
	return &principal, nil
}
