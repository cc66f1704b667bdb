package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shiftcash-dev/shift-planner/backend/internal/config"
	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
	"github.com/shiftcash-dev/shift-planner/backend/internal/optimizer"
	"github.com/shiftcash-dev/shift-planner/backend/internal/repository"
)

// Notifier 把引擎的通知转换成外部副作用：
// 		1. 进度快照写入 redis（带过期时间）
// 		2. 任务状态和最终结果写入数据库
// 		3. 终态时向消息队列发布邮件通知
// 引擎本身对这些一无所知，它只会调用 Sink
type Notifier struct {
	cfg     *config.Config
	repo    *repository.Repository
	rdb     *redis.Client
	channel *amqp.Channel
	manager *optimizer.Manager
}

func New(cfg *config.Config, repo *repository.Repository, rdb *redis.Client, channel *amqp.Channel, manager *optimizer.Manager) *Notifier {
	return &Notifier{
		cfg:     cfg,
		repo:    repo,
		rdb:     rdb,
		channel: channel,
		manager: manager,
	}
}

// ProgressKey 是进度快照在 redis 中的键
func ProgressKey(runID int64) string {
	return fmt.Sprintf("progress_run_%d", runID)
}

// SinkFor 为一次优化任务构造 Sink
// 通知在引擎的 goroutine 里同步处理，处理失败只记录日志，绝不打断引擎
func (n *Notifier) SinkFor(plan *domain.Plan, owner *domain.User) optimizer.Sink {
	return optimizer.SinkFunc(func(note domain.EngineNotification) {
		switch note.Type {
		case domain.NotifyProgress:
			n.saveProgress(note)
		case domain.NotifyPaused:
			n.updateStatus(note.RunID, domain.RunStatusPaused, "")
		case domain.NotifyResumed:
			n.updateStatus(note.RunID, domain.RunStatusRunning, "")
		case domain.NotifyComplete:
			n.updateStatus(note.RunID, domain.RunStatusCompleted, "")
			if note.Result != nil {
				if err := n.repo.InsertOptimizationResult(note.RunID, note.Result); err != nil {
					slog.Error("保存优化结果失败", "runID", note.RunID, "error", err)
				}
				n.publishMail(domain.NotificationMessage{
					Type: "run_completed",
					To:   owner.Email,
					Data: domain.RunCompletedMailData{
						FullName:     owner.FullName,
						PlanName:     plan.Name,
						FinalBalance: note.Result.FinalBalance,
						WorkDays:     len(note.Result.WorkDays),
						Violations:   note.Result.Violations,
					},
				})
			}
			n.manager.Release(plan.ID, note.RunID)
		case domain.NotifyCancelled:
			n.updateStatus(note.RunID, domain.RunStatusCancelled, "")
			n.manager.Release(plan.ID, note.RunID)
		case domain.NotifyError:
			n.updateStatus(note.RunID, domain.RunStatusFailed, note.Error)
			n.publishMail(domain.NotificationMessage{
				Type: "run_failed",
				To:   owner.Email,
				Data: domain.RunFailedMailData{
					FullName: owner.FullName,
					PlanName: plan.Name,
					Reason:   note.Error,
				},
			})
			n.manager.Release(plan.ID, note.RunID)
		}
	})
}

func (n *Notifier) saveProgress(note domain.EngineNotification) {
	data, err := json.Marshal(note.Progress)
	if err != nil {
		slog.Error("序列化进度快照失败", "runID", note.RunID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(n.cfg.Redis.OperationExpiration)*time.Minute)
	defer cancel()

	if err := n.rdb.Set(ctx, ProgressKey(note.RunID), data, time.Duration(n.cfg.Progress.Expiration)*time.Second).Err(); err != nil {
		slog.Error("写入进度快照失败", "runID", note.RunID, "error", err)
	}
}

func (n *Notifier) updateStatus(runID int64, status domain.RunStatus, errMsg string) {
	if err := n.repo.UpdateOptimizationRunStatus(runID, status, errMsg); err != nil {
		slog.Error("更新任务状态失败", "runID", runID, "status", status, "error", err)
	}
}

func (n *Notifier) publishMail(msg domain.NotificationMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("序列化通知消息失败", "type", msg.Type, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(n.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := n.channel.PublishWithContext(
		ctx,
		"",
		"notification_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        data,
		},
	); err != nil {
		slog.Error("发布通知消息失败", "type", msg.Type, "error", err)
	}
}
