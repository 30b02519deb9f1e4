package log

import (
	"strings"
	"time"
	"io"
)

type httpOutput struct {
	formatter LogFormatter
	writer    io.Writer

	bulkSize int
	delay    time.Duration

	logs    []*row
	updated time.Time
}

func (out *httpOutput) Append(level string, message string, fields ...*Field) {
	timestamp := time.Now()
	row := &row{level, timestamp, message, fields}

	if len(out.logs) >= out.bulkSize || (out.updated.UnixNano()-timestamp.UnixNano()) >= out.delay.Nanoseconds() {
		lines := []string{}
		for _, row := range out.logs {
			lines = append(lines, out.formatter.FormatRow(row.timestamp, row.level, row.message, row.fields...))
		}

		go out.writer.Write([]byte(strings.Join(lines, "\n")))
	}

	out.logs = append(out.logs, row)
	out.updated = timestamp
}

func NewHttpOutput(writer io.Writer, formatter LogFormatter, bulkSize int, maxDelay time.Duration) Output {
	return &httpOutput{
		formatter: formatter,
		writer:    writer,
		bulkSize:  bulkSize,
		delay:     maxDelay,
	}
}
