package log

import (
	"fmt"
	"strings"
	"time"
)

type basicMeter struct {
	name   string
	start  int64
	end    int64
	logger BasicLogger

	params []*Field
}

type BasicMeter interface {
	Done()
}

// NewMeter starts a meter that records a "process-time" metric for name
// against logger once Done is called.
func NewMeter(logger BasicLogger, name string, params ...*Field) BasicMeter {
	return &basicMeter{name: name, start: time.Now().UnixNano(), logger: logger, params: params}
}

func (m *basicMeter) Done() {
	m.end = time.Now().UnixNano()
	diff := time.Duration(m.end - m.start)

	var names []string
	for _, prefix := range m.logger.Tags() {
		if prefix.Type == NodeType {
			continue
		}
		names = append(names, fmt.Sprintf("%s", prefix.Value()))
	}

	names = append(names, m.name)
	metricName := strings.Join(names, "-")

	metricParams := append(m.params, String("metric", metricName), Float64("process-time", diff.Seconds()))
	m.logger.Metric(metricParams...)
}
