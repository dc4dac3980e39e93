// Package queue carries asynchronous scan kicks over a Redis stream so
// the trigger endpoint can return before the scan runs.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ColdCrayon/Pickit-sub001/internal/scanner"
)

// KickTask is one enqueued scan request covering a list of sports.
type KickTask struct {
	ID          string   `json:"id"`
	Sports      []string `json:"sports"`
	Market      string   `json:"market"`
	WindowHours int      `json:"window_hours"`
	Limit       int      `json:"limit"`
	PauseMs     int      `json:"pause_ms"`
}

// Publisher enqueues kick tasks with XADD.
type Publisher struct {
	Client *redis.Client
	Stream string
}

func (p *Publisher) Enqueue(ctx context.Context, task KickTask) (string, error) {
	if p == nil || p.Client == nil {
		return "", fmt.Errorf("queue unavailable")
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	raw, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("marshal kick task: %w", err)
	}
	err = p.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.Stream,
		Values: map[string]interface{}{"task": string(raw)},
	}).Err()
	if err != nil {
		return "", fmt.Errorf("enqueue kick task: %w", err)
	}
	return task.ID, nil
}

// Scanner is the orchestration surface the worker drives.
type Scanner interface {
	Scan(ctx context.Context, req scanner.ScanRequest) (scanner.ScanResult, error)
}

// Worker consumes kick tasks through a consumer group and runs one scan
// per sport, pausing between sports when the task asks for it.
type Worker struct {
	Client   *redis.Client
	Logger   *zap.Logger
	Scans    Scanner
	Stream   string
	Group    string
	Consumer string
}

// Run blocks consuming tasks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.Client == nil || w.Scans == nil {
		return nil
	}
	err := w.Client.XGroupCreateMkStream(ctx, w.Stream, w.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := w.Client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    w.Group,
			Consumer: w.Consumer,
			Streams:  []string{w.Stream, ">"},
			Count:    1,
			Block:    time.Second,
		}).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if w.Logger != nil {
				w.Logger.Warn("kick stream read failed", zap.Error(err))
			}
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				w.handle(ctx, msg)
				if err := w.Client.XAck(ctx, w.Stream, w.Group, msg.ID).Err(); err != nil && w.Logger != nil {
					w.Logger.Warn("kick ack failed", zap.String("id", msg.ID), zap.Error(err))
				}
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg redis.XMessage) {
	raw, ok := msg.Values["task"].(string)
	if !ok {
		if w.Logger != nil {
			w.Logger.Warn("kick message missing task field", zap.String("id", msg.ID))
		}
		return
	}
	var task KickTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		if w.Logger != nil {
			w.Logger.Warn("kick task decode failed", zap.String("id", msg.ID), zap.Error(err))
		}
		return
	}

	sports := task.Sports
	if len(sports) == 0 {
		sports = []string{""}
	}
	for i, sport := range sports {
		if ctx.Err() != nil {
			return
		}
		result, err := w.Scans.Scan(ctx, scanner.ScanRequest{
			Sport:       sport,
			Market:      task.Market,
			WindowHours: task.WindowHours,
			Limit:       task.Limit,
			Trigger:     "kick",
		})
		if err != nil {
			if w.Logger != nil {
				w.Logger.Warn("kicked scan failed",
					zap.String("task_id", task.ID),
					zap.String("sport", sport),
					zap.Error(err))
			}
			continue
		}
		if w.Logger != nil {
			w.Logger.Info("kicked scan done",
				zap.String("task_id", task.ID),
				zap.String("sport", sport),
				zap.Int("created", result.Created),
				zap.Int("scanned", result.Scanned))
		}
		if task.PauseMs > 0 && i < len(sports)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(task.PauseMs) * time.Millisecond):
			}
		}
	}
}
