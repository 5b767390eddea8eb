package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"learnport.com/app/internal/shared/apperr"
)

// Repo is the narrow read contract the purchase flow depends on. Course
// authoring/CRUD lives elsewhere and is not part of this service.
type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) GetCourseOrFail(ctx context.Context, id string) (Course, error) {
	var c Course
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Course{}, apperr.NotFoundErr(fmt.Sprintf("course %s not found", id))
		}
		return Course{}, err
	}
	return c, nil
}
