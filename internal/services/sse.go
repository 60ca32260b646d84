package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

const dataPrefix = "data:"

// readEvents parses a text/event-stream body until it ends. Every
// complete line starting with "data:" is decoded as one StreamEvent and
// handed to emit; everything else (comments, event:, retry:, blank
// separators) is skipped. A trailing partial line stays buffered until
// its newline arrives and is dropped if the stream ends first.
//
// It returns io.EOF when the server closed the stream, or the read error.
func readEvents(body io.Reader, logger *zap.SugaredLogger, emit func(model.StreamEvent)) error {
	reader := bufio.NewReader(body)

	for {
		line, err := reader.ReadString('\n')
		if strings.HasSuffix(line, "\n") {
			if ev, ok := parseDataLine(strings.TrimRight(line, "\r\n"), logger); ok {
				emit(ev)
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return err
		}
	}
}

func parseDataLine(line string, logger *zap.SugaredLogger) (model.StreamEvent, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return model.StreamEvent{}, false
	}
	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == "" {
		return model.StreamEvent{}, false
	}
	var ev model.StreamEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		logger.Warnf("Error parsing stream event: %v", err)
		return model.StreamEvent{}, false
	}
	return ev, true
}
