package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/avdeenko/license-dashboard-api/internal/config"
	"github.com/avdeenko/license-dashboard-api/internal/service"
	"github.com/avdeenko/license-dashboard-api/internal/tasks"
)

// RunWorkers runs the asynq server and scheduler until ctx is cancelled.
func RunWorkers(ctx context.Context, cfg *config.Config, licenses *service.LicenseService, logger *zap.Logger) error {
	redisConnOpts := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(
		redisConnOpts,
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Named("AsynqServerErrorHandler").Error("Asynq task processing failed",
					zap.String("task_type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err),
				)
			}),
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqServer")),
		},
	)

	mux := asynq.NewServeMux()
	expiryHandler := tasks.NewExpiryReportHandler(licenses, logger)
	mux.HandleFunc(tasks.TypeExpiryReport, expiryHandler.ProcessTask)

	scheduler := asynq.NewScheduler(
		redisConnOpts,
		&asynq.SchedulerOpts{
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqScheduler")),
		},
	)

	expiryTask, err := tasks.NewExpiryReportTask()
	if err != nil {
		return fmt.Errorf("creating expiry report task: %w", err)
	}

	entryID, err := scheduler.Register(cfg.Worker.ExpiryReportSchedule, expiryTask)
	if err != nil {
		return fmt.Errorf("registering periodic expiry report: %w", err)
	}
	logger.Info("Registered periodic expiry report",
		zap.String("entry_id", entryID),
		zap.String("schedule", cfg.Worker.ExpiryReportSchedule),
	)

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting Asynq Server...")
		if err := srv.Run(mux); err != nil {
			return fmt.Errorf("asynq server error: %w", err)
		}
		logger.Info("Asynq Server stopped.")
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting Asynq Scheduler...")
		if err := scheduler.Run(); err != nil {
			return fmt.Errorf("asynq scheduler error: %w", err)
		}
		logger.Info("Asynq Scheduler stopped.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("Shutting down Asynq Scheduler...")
		scheduler.Shutdown()
		logger.Info("Shutting down Asynq Server...")
		srv.Shutdown()
		return nil
	})

	return g.Wait()
}

type asynqLoggerAdapter struct {
	logger *zap.Logger
}

func NewAsynqLoggerAdapter(logger *zap.Logger) *asynqLoggerAdapter {
	return &asynqLoggerAdapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (l *asynqLoggerAdapter) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
