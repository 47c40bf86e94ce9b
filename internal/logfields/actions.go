package logfields

import "go.uber.org/zap"

func Workflow(val string) zap.Field {
	return zap.String("github.workflow", val)
}

func WorkflowID(val int64) zap.Field {
	return zap.Int64("github.workflow_id", val)
}

func RunNumber(val int) zap.Field {
	return zap.Int("github.run_number", val)
}

func RunID(val int64) zap.Field {
	return zap.Int64("github.run_id", val)
}

func CheckRunID(val int64) zap.Field {
	return zap.Int64("github.check_run_id", val)
}
