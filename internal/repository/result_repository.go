package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizgate/quizgate-backend/internal/model"
)

// ResultRepository handles quiz result data access. Writes go through the
// results worker; handlers only read.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// ListByStudent retrieves a student's completed quiz results with
// pagination, newest first. Returns the page and the total row count.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID int, limit, offset int) ([]model.QuizResult, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_results WHERE student_id = $1`, studentID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, category, score, question_count, answered, trigger, started_at, finished_at
		 FROM quiz_results WHERE student_id = $1
		 ORDER BY finished_at DESC LIMIT $2 OFFSET $3`, studentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.QuizResult
	for rows.Next() {
		var res model.QuizResult
		if err := rows.Scan(&res.ID, &res.StudentID, &res.Category, &res.Score, &res.QuestionCount,
			&res.Answered, &res.Trigger, &res.StartedAt, &res.FinishedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

// BestScores returns each category's best score for a student.
func (r *ResultRepository) BestScores(ctx context.Context, studentID int) (map[model.Category]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category, MAX(score) FROM quiz_results WHERE student_id = $1 GROUP BY category`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	best := make(map[model.Category]int)
	for rows.Next() {
		var cat model.Category
		var score int
		if err := rows.Scan(&cat, &score); err != nil {
			return nil, err
		}
		best[cat] = score
	}
	return best, rows.Err()
}
