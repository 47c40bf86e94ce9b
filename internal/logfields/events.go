package logfields

import "go.uber.org/zap"

func Event(val string) zap.Field {
	return zap.String("event", val)
}

func EventType(val string) zap.Field {
	return zap.String("github.event_type", val)
}
