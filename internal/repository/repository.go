package repository

import (
	"database/sql"

	"github.com/shiftcash-dev/shift-planner/backend/internal/config"
)

// Repository 封装所有数据库访问
// 每个方法都用配置中的超时时间包一层 context：
// 单条查询用 QueryTimeout，涉及多条语句的事务用 TransactionTimeout
type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}
