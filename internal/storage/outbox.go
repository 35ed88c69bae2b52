package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lsdHub/internal/model"
)

// OutboxRecord is one line of the outbox file.
type OutboxRecord struct {
	WrittenAt string    `json:"written_at"`
	Msg       model.Msg `json:"msg"`
}

// JSONLOutbox appends emitted instructions to a JSONL file for an external
// relayer. It reports no replies: the relayer delivers them after executing
// the instructions.
type JSONLOutbox struct {
	path string
	mu   sync.Mutex
}

func NewJSONLOutbox(path string) *JSONLOutbox {
	return &JSONLOutbox{path: path}
}

// Dispatch appends msgs as JSON lines.
func (s *JSONLOutbox) Dispatch(_ context.Context, msgs []model.Msg) ([]model.Reply, error) {
	if len(msgs) == 0 {
		return nil, nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create outbox dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open outbox file: %w", err)
	}
	defer file.Close()

	writtenAt := time.Now().UTC().Format(time.RFC3339Nano)
	writer := bufio.NewWriter(file)
	for _, msg := range msgs {
		line, err := json.Marshal(OutboxRecord{WrittenAt: writtenAt, Msg: msg})
		if err != nil {
			return nil, fmt.Errorf("marshal outbox record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return nil, fmt.Errorf("write outbox record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return nil, fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return nil, fmt.Errorf("flush outbox: %w", err)
	}

	return nil, nil
}

// ReadOutbox returns every record of the outbox file at path.
func ReadOutbox(path string) ([]OutboxRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open outbox file: %w", err)
	}
	defer file.Close()

	var records []OutboxRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec OutboxRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("parse outbox record: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read outbox: %w", err)
	}
	return records, nil
}
