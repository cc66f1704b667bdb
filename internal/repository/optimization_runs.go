package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
)

func (r *Repository) CreateOptimizationRun(run *domain.OptimizationRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	cfg, err := json.Marshal(run.Config)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO optimization_runs (plan_id, status, config)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	if err := r.dbpool.QueryRowContext(ctx, query, run.PlanID, run.Status, cfg).Scan(&run.ID, &run.CreatedAt, &run.Version); err != nil {
		return err
	}

	return nil
}

// UpdateOptimizationRunStatus 更新任务状态
// 状态由引擎通知驱动，不走乐观锁：后到的终态通知不应该因为版本冲突而丢失
// 已经处于终态的任务不允许再被任何状态覆盖
func (r *Repository) UpdateOptimizationRunStatus(runID int64, status domain.RunStatus, errMsg string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE optimization_runs
		SET status = $1, error = $2, version = version + 1
		WHERE id = $3 AND status NOT IN ($4, $5, $6)
	`

	args := []any{status, errMsg, runID, domain.RunStatusCompleted, domain.RunStatusCancelled, domain.RunStatusFailed}
	if _, err := r.dbpool.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetOptimizationRunByID(id int64) (*domain.OptimizationRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT plan_id, status, config, error, created_at, version
		FROM optimization_runs WHERE id = $1
	`

	run := &domain.OptimizationRun{
		ID: id,
	}

	var cfg []byte
	dst := []any{&run.PlanID, &run.Status, &cfg, &run.Error, &run.CreatedAt, &run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(cfg, &run.Config); err != nil {
		return nil, err
	}

	return run, nil
}

func (r *Repository) GetOptimizationRunsByPlanID(planID int64) ([]*domain.OptimizationRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, status, config, error, created_at, version
		FROM optimization_runs WHERE plan_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*domain.OptimizationRun{}
	for rows.Next() {
		run := &domain.OptimizationRun{
			PlanID: planID,
		}

		var cfg []byte
		dst := []any{&run.ID, &run.Status, &cfg, &run.Error, &run.CreatedAt, &run.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cfg, &run.Config); err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

func (r *Repository) InsertOptimizationResult(runID int64, result *domain.OptimizationResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 同一个任务重复写入结果时覆盖旧的
	query := `DELETE FROM optimization_results WHERE run_id = $1`
	if _, err := tx.ExecContext(ctx, query, runID); err != nil {
		return err
	}

	schedule, err := json.Marshal(result.Schedule)
	if err != nil {
		return err
	}
	workDays, err := json.Marshal(result.WorkDays)
	if err != nil {
		return err
	}

	query = `
		INSERT INTO optimization_results (
			run_id, schedule, work_days, total_earnings, final_balance,
			min_balance_reached, violations, best_fitness, generations, computation_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	args := []any{
		runID,
		schedule,
		workDays,
		result.TotalEarnings,
		result.FinalBalance,
		result.MinBalanceReached,
		result.Violations,
		result.BestFitness,
		result.Generations,
		result.ComputationTime,
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetOptimizationResultByRunID(runID int64) (*domain.OptimizationResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT schedule, work_days, total_earnings, final_balance,
			min_balance_reached, violations, best_fitness, generations, computation_time
		FROM optimization_results WHERE run_id = $1
	`

	result := &domain.OptimizationResult{}

	var schedule, workDays []byte
	dst := []any{
		&schedule,
		&workDays,
		&result.TotalEarnings,
		&result.FinalBalance,
		&result.MinBalanceReached,
		&result.Violations,
		&result.BestFitness,
		&result.Generations,
		&result.ComputationTime,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, runID).Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(schedule, &result.Schedule); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(workDays, &result.WorkDays); err != nil {
		return nil, err
	}

	return result, nil
}
