package repositories

import (
	"context"
	"fmt"

	"upload-finalizer/internal/domain/entities"

	"gorm.io/gorm"
)

type FailedTaskRepository struct {
	db *gorm.DB
}

func NewFailedTaskRepository(db *gorm.DB) *FailedTaskRepository {
	return &FailedTaskRepository{db: db}
}

func (r *FailedTaskRepository) Save(ctx context.Context, task *entities.FailedTask) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to save failed task %s: %w", task.TaskID, err)
	}
	return nil
}

func (r *FailedTaskRepository) ListByRequest(ctx context.Context, requestID string) ([]entities.FailedTask, error) {
	var tasks []entities.FailedTask
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list failed tasks of %s: %w", requestID, err)
	}
	return tasks, nil
}

func (r *FailedTaskRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&entities.FailedTask{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete failed task %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
