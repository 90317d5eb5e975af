package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	domainrepos "github.com/topcoder-platform/topcoder-x-processor/internal/domain/repositories"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/models"
	"github.com/topcoder-platform/topcoder-x-processor/pkg/idgen"
)

type copilotPaymentRepo struct {
	db *gorm.DB
}

// NewCopilotPaymentRepository builds the Store-backed CopilotPaymentRepository.
func NewCopilotPaymentRepository(db *gorm.DB) domainrepos.CopilotPaymentRepository {
	return &copilotPaymentRepo{db: db}
}

func (r *copilotPaymentRepo) Create(ctx context.Context, payment *entities.CopilotPayment) error {
	if payment.ID == uuid.Nil {
		payment.ID = idgen.NewID()
	}
	m := toCopilotPaymentModel(payment)
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	payment.CreatedAt = m.CreatedAt
	payment.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *copilotPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.CopilotPayment, error) {
	var m models.CopilotPayment
	err := GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.NotFound("copilot payment not found")
		}
		return nil, err
	}
	return toCopilotPaymentEntity(&m), nil
}

func (r *copilotPaymentRepo) Update(ctx context.Context, payment *entities.CopilotPayment) error {
	now := time.Now()
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.CopilotPayment{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"username":     payment.Username,
			"amount":       payment.Amount,
			"description":  payment.Description,
			"challenge_id": payment.ChallengeID,
			"closed":       payment.Closed,
			"status":       string(payment.Status),
			"updated_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.NotFound("copilot payment not found")
	}
	payment.UpdatedAt = now
	return nil
}

func (r *copilotPaymentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Delete(&models.CopilotPayment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.NotFound("copilot payment not found")
	}
	return nil
}

func (r *copilotPaymentRepo) FindOpenByProjectUser(ctx context.Context, projectID uuid.UUID, username string) ([]*entities.CopilotPayment, error) {
	var rows []models.CopilotPayment
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("project_id = ? AND username = ? AND closed = ?", projectID, username, false).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCopilotPaymentEntities(rows), nil
}

func (r *copilotPaymentRepo) FindOpenByChallengeID(ctx context.Context, challengeID string) ([]*entities.CopilotPayment, error) {
	var rows []models.CopilotPayment
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("challenge_id = ? AND closed = ?", challengeID, false).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCopilotPaymentEntities(rows), nil
}

// FindOpenByOwnerOrCopilot joins against the externally-owned projects table
// to find open payment rows for any project the handle owns or copilots
// (used by PaymentStateMachine.checkUpdates, spec.md §4.4).
func (r *copilotPaymentRepo) FindOpenByOwnerOrCopilot(ctx context.Context, handle string) ([]*entities.CopilotPayment, error) {
	var rows []models.CopilotPayment
	err := GetDB(ctx, r.db).WithContext(ctx).
		Joins("JOIN projects ON projects.id = copilot_payments.project_id").
		Where("copilot_payments.closed = ? AND (projects.owner = ? OR projects.copilot = ?)", false, handle, handle).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCopilotPaymentEntities(rows), nil
}

func (r *copilotPaymentRepo) CloseByChallengeID(ctx context.Context, challengeID string) error {
	return GetDB(ctx, r.db).WithContext(ctx).Model(&models.CopilotPayment{}).
		Where("challenge_id = ?", challengeID).
		Updates(map[string]interface{}{"closed": true, "updated_at": time.Now()}).Error
}

func toCopilotPaymentModel(e *entities.CopilotPayment) *models.CopilotPayment {
	return &models.CopilotPayment{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		Username:    e.Username,
		Amount:      e.Amount,
		Description: e.Description,
		ChallengeID: null.StringFromPtr(e.ChallengeID),
		Closed:      e.Closed,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toCopilotPaymentEntity(m *models.CopilotPayment) *entities.CopilotPayment {
	return &entities.CopilotPayment{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Username:    m.Username,
		Amount:      m.Amount,
		Description: m.Description,
		ChallengeID: m.ChallengeID.Ptr(),
		Closed:      m.Closed,
		Status:      entities.CopilotPaymentStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toCopilotPaymentEntities(rows []models.CopilotPayment) []*entities.CopilotPayment {
	out := make([]*entities.CopilotPayment, 0, len(rows))
	for i := range rows {
		out = append(out, toCopilotPaymentEntity(&rows[i]))
	}
	return out
}
