package repository

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/deppfellow/crud-demo/internal/errs"
	"github.com/deppfellow/crud-demo/internal/model"
	"github.com/deppfellow/crud-demo/internal/sqlerr"
	"github.com/deppfellow/crud-demo/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var userNotFoundCode = "USER_NOT_FOUND"

// UserRepository issues the user queries. Every method is a single ORM
// operation (plus a read-back where the operation returns a record).
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateMany inserts all users in one statement and returns how many rows
// were inserted. With skipDuplicates, rows whose email already exists are
// skipped instead of failing the whole insert.
func (r *UserRepository) CreateMany(ctx context.Context, params []CreateUserParams, skipDuplicates bool) (int64, error) {
	if len(params) == 0 {
		return 0, nil
	}
	if err := validation.Validate(createManyParams{Users: params}); err != nil {
		return 0, err
	}

	users := make([]model.User, 0, len(params))
	for _, p := range params {
		users = append(users, model.User{Name: p.Name, Email: p.Email})
	}

	q := r.db.WithContext(ctx)
	if skipDuplicates {
		q = q.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		})
	}

	result := q.Create(&users)
	if result.Error != nil {
		return 0, sqlerr.HandleError(result.Error)
	}
	return result.RowsAffected, nil
}

// CreateWithRelations inserts the user, its posts and its profile in one
// transaction and returns the user with both relations loaded.
func (r *UserRepository) CreateWithRelations(ctx context.Context, params CreateUserWithRelationsParams) (*model.User, error) {
	if err := validation.Validate(params); err != nil {
		return nil, err
	}

	user := model.User{
		Name:  params.Name,
		Email: params.Email,
	}
	for _, p := range params.Posts {
		user.Posts = append(user.Posts, model.Post{
			Title:     p.Title,
			Content:   p.Content,
			Published: p.Published,
		})
	}
	if params.Profile != nil {
		user.Profile = &model.Profile{Bio: params.Profile.Bio}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	return &user, nil
}

// FindUnique returns the matching user, or nil when there is none.
func (r *UserRepository) FindUnique(ctx context.Context, where UserWhereUnique, include UserInclude) (*model.User, error) {
	user, err := r.FindUniqueOrThrow(ctx, where, include)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// FindUniqueOrThrow is FindUnique with a not-found error instead of nil.
func (r *UserRepository) FindUniqueOrThrow(ctx context.Context, where UserWhereUnique, include UserInclude) (*model.User, error) {
	if err := validation.Validate(where); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).
		Scopes(where.apply, include.apply).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFoundError("No User found", &userNotFoundCode, err)
	}
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	return &user, nil
}

// FindMany returns the users matching filter, ordered by id. The result
// is never nil.
func (r *UserRepository) FindMany(ctx context.Context, filter UserFilter, include UserInclude) ([]model.User, error) {
	users := []model.User{}

	err := r.db.WithContext(ctx).
		Scopes(filter.apply, include.apply).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	return users, nil
}

// Update changes exactly one user and returns it as stored afterwards.
// A missing user is a not-found error.
func (r *UserRepository) Update(ctx context.Context, where UserWhereUnique, data UpdateUserParams) (*model.User, error) {
	if err := validation.Validate(where); err != nil {
		return nil, err
	}
	if err := validation.Validate(data); err != nil {
		return nil, err
	}

	var updated model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.User
		if err := tx.Scopes(where.apply).Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NewNotFoundError("User to update not found", &userNotFoundCode, err)
			}
			return err
		}

		if err := tx.Model(&current).Updates(data.values()).Error; err != nil {
			return err
		}

		return tx.Take(&updated, current.ID).Error
	})
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	return &updated, nil
}

// UpdateMany changes every user matching filter and returns the count.
// An empty filter updates all users.
func (r *UserRepository) UpdateMany(ctx context.Context, filter UserFilter, data UpdateUserParams) (int64, error) {
	if err := validation.Validate(data); err != nil {
		return 0, err
	}

	result := r.session(ctx, filter).
		Model(&model.User{}).
		Scopes(filter.apply).
		Updates(data.values())
	if result.Error != nil {
		return 0, sqlerr.HandleError(result.Error)
	}

	return result.RowsAffected, nil
}

// UpdateManyAndReturn is UpdateMany returning the updated rows, ordered by
// id, from the same UPDATE ... RETURNING statement.
func (r *UserRepository) UpdateManyAndReturn(ctx context.Context, filter UserFilter, data UpdateUserParams) ([]model.User, error) {
	if err := validation.Validate(data); err != nil {
		return nil, err
	}

	users := []model.User{}
	result := r.session(ctx, filter).
		Model(&users).
		Clauses(clause.Returning{}).
		Scopes(filter.apply).
		Updates(data.values())
	if result.Error != nil {
		return nil, sqlerr.HandleError(result.Error)
	}

	slices.SortFunc(users, func(a, b model.User) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return users, nil
}

// session allows an unconditioned UPDATE only when the filter is empty,
// which is the one case where updating every row is what was asked for.
func (r *UserRepository) session(ctx context.Context, filter UserFilter) *gorm.DB {
	db := r.db.WithContext(ctx)
	if filter.IsEmpty() {
		db = db.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	return db
}
