package domain

import (
	"time"
)

// Role: 普通用户只能管理自己的计划，管理员额外拥有用户管理
// 和访问所有计划的权限
type Role string

const (
	RoleNormalUser Role = "普通用户"
	RoleAdmin      Role = "管理员"
)

// User 的密码散列和乐观锁版本号永远不会出现在响应里
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
