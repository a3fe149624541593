package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeExpiryReport = "license:expiry:report"
)

type ExpiryReportPayload struct{}

func NewExpiryReportTask(opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(ExpiryReportPayload{})
	if err != nil {
		return nil, err
	}

	uniqueOpt := asynq.Unique(15 * time.Minute)
	allOpts := append(opts, uniqueOpt)

	return asynq.NewTask(TypeExpiryReport, payloadBytes, allOpts...), nil
}
