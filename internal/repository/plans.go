package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
)

func (r *Repository) CreatePlan(plan *domain.Plan) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO plans (owner_id, name, description, starting_balance, target_ending_balance, minimum_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	args := []any{plan.OwnerID, plan.Name, plan.Description, plan.StartingBalance, plan.TargetEndingBalance, plan.MinimumBalance}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&plan.ID, &plan.CreatedAt, &plan.Version); err != nil {
		return err
	}

	if err := insertPlanTables(ctx, tx, plan); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdatePlan(plan *domain.Plan) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE plans
		SET
			name = $1,
			description = $2,
			starting_balance = $3,
			target_ending_balance = $4,
			minimum_balance = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`

	args := []any{plan.Name, plan.Description, plan.StartingBalance, plan.TargetEndingBalance, plan.MinimumBalance, plan.ID, plan.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&plan.Version); err != nil {
		return err
	}

	// 子表不做增量更新，直接随计划整体重建
	for _, table := range []string{"plan_expenses", "plan_deposits", "plan_shift_types", "plan_manual_constraints"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE plan_id = $1`, plan.ID); err != nil {
			return err
		}
	}

	if err := insertPlanTables(ctx, tx, plan); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func insertPlanTables(ctx context.Context, tx *sql.Tx, plan *domain.Plan) error {
	for _, exp := range plan.Expenses {
		query := `
			INSERT INTO plan_expenses (plan_id, day, name, amount)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, query, plan.ID, exp.Day, exp.Name, exp.Amount); err != nil {
			return err
		}
	}

	for _, dep := range plan.Deposits {
		query := `
			INSERT INTO plan_deposits (plan_id, day, name, amount)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, query, plan.ID, dep.Day, dep.Name, dep.Amount); err != nil {
			return err
		}
	}

	for _, st := range plan.ShiftTypes {
		query := `
			INSERT INTO plan_shift_types (plan_id, name, net, gross)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, query, plan.ID, st.Name, st.Net, st.Gross); err != nil {
			return err
		}
	}

	for _, mc := range plan.ManualConstraints {
		// 强制班次用 JSON 存储，以便区分 "没有强制班次" 和 "强制休息（空数组）"
		var shifts any = nil
		if mc.Shifts != nil {
			data, err := json.Marshal(*mc.Shifts)
			if err != nil {
				return err
			}
			shifts = data
		}

		query := `
			INSERT INTO plan_manual_constraints (plan_id, day, shifts, balance)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, query, plan.ID, mc.Day, shifts, mc.Balance); err != nil {
			return err
		}
	}

	return nil
}

func (r *Repository) GetPlanByID(id int64) (*domain.Plan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT owner_id, name, description, starting_balance, target_ending_balance, minimum_balance, created_at, version
		FROM plans WHERE id = $1
	`

	plan := &domain.Plan{
		ID: id,
	}

	dst := []any{&plan.OwnerID, &plan.Name, &plan.Description, &plan.StartingBalance, &plan.TargetEndingBalance, &plan.MinimumBalance, &plan.CreatedAt, &plan.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := r.loadPlanTables(ctx, plan); err != nil {
		return nil, err
	}

	return plan, nil
}

func (r *Repository) GetAllPlansByOwnerID(ownerID int64) ([]*domain.Plan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, name, description, starting_balance, target_ending_balance, minimum_balance, created_at, version
		FROM plans WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []*domain.Plan{}
	for rows.Next() {
		plan := &domain.Plan{
			OwnerID: ownerID,
		}
		dst := []any{&plan.ID, &plan.Name, &plan.Description, &plan.StartingBalance, &plan.TargetEndingBalance, &plan.MinimumBalance, &plan.CreatedAt, &plan.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, plan := range plans {
		if err := r.loadPlanTables(ctx, plan); err != nil {
			return nil, err
		}
	}

	return plans, nil
}

// loadPlanTables 加载计划的支出、入账、班次类型和手动约束子表
func (r *Repository) loadPlanTables(ctx context.Context, plan *domain.Plan) error {
	query := `
		SELECT day, name, amount FROM plan_expenses WHERE plan_id = $1 ORDER BY day
	`
	rows, err := r.dbpool.QueryContext(ctx, query, plan.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	plan.Expenses = make([]domain.Expense, 0)
	for rows.Next() {
		var exp domain.Expense
		if err := rows.Scan(&exp.Day, &exp.Name, &exp.Amount); err != nil {
			return err
		}
		plan.Expenses = append(plan.Expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	query = `
		SELECT day, name, amount FROM plan_deposits WHERE plan_id = $1 ORDER BY day
	`
	rows, err = r.dbpool.QueryContext(ctx, query, plan.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	plan.Deposits = make([]domain.Deposit, 0)
	for rows.Next() {
		var dep domain.Deposit
		if err := rows.Scan(&dep.Day, &dep.Name, &dep.Amount); err != nil {
			return err
		}
		plan.Deposits = append(plan.Deposits, dep)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	query = `
		SELECT name, net, gross FROM plan_shift_types WHERE plan_id = $1 ORDER BY name
	`
	rows, err = r.dbpool.QueryContext(ctx, query, plan.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	plan.ShiftTypes = make(domain.ShiftTypeTable)
	for rows.Next() {
		var st domain.ShiftType
		if err := rows.Scan(&st.Name, &st.Net, &st.Gross); err != nil {
			return err
		}
		plan.ShiftTypes[st.Name] = st
	}
	if err := rows.Err(); err != nil {
		return err
	}

	query = `
		SELECT day, shifts, balance FROM plan_manual_constraints WHERE plan_id = $1 ORDER BY day
	`
	rows, err = r.dbpool.QueryContext(ctx, query, plan.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	plan.ManualConstraints = make([]domain.ManualConstraint, 0)
	for rows.Next() {
		var mc domain.ManualConstraint
		var shifts []byte
		var balance sql.NullFloat64

		if err := rows.Scan(&mc.Day, &shifts, &balance); err != nil {
			return err
		}
		if shifts != nil {
			forced := []string{}
			if err := json.Unmarshal(shifts, &forced); err != nil {
				return err
			}
			mc.Shifts = &forced
		}
		if balance.Valid {
			mc.Balance = &balance.Float64
		}

		plan.ManualConstraints = append(plan.ManualConstraints, mc)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeletePlan(id int64) error {
	query := `
		DELETE FROM plans WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
