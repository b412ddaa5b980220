package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

const taskNotFound = "no task found"

const taskColumns = `id, description, completed, owner_id, created_at, updated_at`

// sortColumns whitelists ORDER BY targets.
var sortColumns = map[repository.TaskSortField]string{
	repository.SortByCreatedAt:   "created_at",
	repository.SortByUpdatedAt:   "updated_at",
	repository.SortByDescription: "description",
	repository.SortByCompleted:   "completed",
}

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	t := &entity.Task{}
	if err := row.Scan(&t.ID, &t.Description, &t.Completed, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, mapError(err, taskNotFound)
	}
	return t, nil
}

func collectTasks(rows pgx.Rows) ([]*entity.Task, error) {
	defer rows.Close()
	tasks := make([]*entity.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Create(ctx context.Context, t *entity.Task) error {
	if !validID(t.OwnerID) {
		return apperr.NewValidation("owner does not exist", nil)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (description, completed, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, t.Description, t.Completed, t.OwnerID)
	return mapError(row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt), taskNotFound)
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string, f repository.TaskFilter) ([]*entity.Task, error) {
	if !validID(ownerID) {
		return []*entity.Task{}, nil
	}
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}

	var sb strings.Builder
	args := []any{ownerID}
	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`)
	if f.Completed != nil {
		args = append(args, *f.Completed)
		fmt.Fprintf(&sb, ` AND completed = $%d`, len(args))
	}
	fmt.Fprintf(&sb, ` ORDER BY %s %s, id %s`, col, dir, dir)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if f.Skip > 0 {
		args = append(args, f.Skip)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *TaskRepository) GetByIDs(ctx context.Context, ownerID string, ids []string) ([]*entity.Task, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	if !validID(ownerID) || len(valid) == 0 {
		return []*entity.Task{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE owner_id = $1 AND id = ANY($2::uuid[])
		ORDER BY array_position($2::uuid[], id)
	`, ownerID, valid)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id string) (*entity.Task, error) {
	if !validID(ownerID) || !validID(id) {
		return nil, apperr.NewNotFound(taskNotFound)
	}
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID))
}

func (r *TaskRepository) Update(ctx context.Context, t *entity.Task) error {
	if !validID(t.OwnerID) || !validID(t.ID) {
		return apperr.NewNotFound(taskNotFound)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks SET description = $1, completed = $2, updated_at = now()
		WHERE id = $3 AND owner_id = $4
		RETURNING updated_at
	`, t.Description, t.Completed, t.ID, t.OwnerID)
	return mapError(row.Scan(&t.UpdatedAt), taskNotFound)
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id string) (*entity.Task, error) {
	if !validID(ownerID) || !validID(id) {
		return nil, apperr.NewNotFound(taskNotFound)
	}
	return scanTask(r.pool.QueryRow(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING `+taskColumns, id, ownerID))
}

func (r *TaskRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	if !validID(ownerID) {
		return 0, nil
	}
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tasks WHERE owner_id = $1`, ownerID).Scan(&n)
	return n, err
}

var _ repository.TaskRepository = (*TaskRepository)(nil)
