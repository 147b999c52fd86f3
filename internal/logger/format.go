package logger

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	fieldsKey    = "fields"
	requestIDKey = "request_id"
	componentKey = "component"
	errorCodeKey = "error_code"
	callerKey    = "caller"
)

// entryFormatter renders logrus entries as Entry JSON lines.
type entryFormatter struct{}

func (f *entryFormatter) Format(e *logrus.Entry) ([]byte, error) {
	out := Entry{
		Timestamp: e.Time.UTC().Format(time.RFC3339Nano),
		Level:     levelName(e.Level),
		Message:   e.Message,
	}
	if v, ok := e.Data[requestIDKey].(string); ok {
		out.RequestID = v
	}
	if v, ok := e.Data[componentKey].(string); ok {
		out.Component = v
	}
	if v, ok := e.Data[logrus.ErrorKey].(string); ok {
		out.Error = v
	}
	if v, ok := e.Data[errorCodeKey].(string); ok {
		out.ErrorCode = v
	}
	if v, ok := e.Data[callerKey].(string); ok {
		out.Caller = v
	}
	if v, ok := e.Data[fieldsKey].(map[string]interface{}); ok {
		out.Fields = v
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func levelName(l logrus.Level) string {
	if l == logrus.WarnLevel {
		return "warn"
	}
	return l.String()
}
