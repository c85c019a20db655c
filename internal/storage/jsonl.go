package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"marketScope/internal/model"
)

// JsonlStore appends raw transactions and transfers to JSONL files. The
// files are the durable raw record; derived tables rebuild from them.
type JsonlStore struct {
	txPath       string
	transferPath string
	mu           sync.Mutex
}

func NewJsonlStore(txPath, transferPath string) *JsonlStore {
	return &JsonlStore{txPath: txPath, transferPath: transferPath}
}

// PutTransactionBatch appends raw transactions as JSON lines.
func (s *JsonlStore) PutTransactionBatch(txs []model.RawTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	lines := make([]interface{}, len(txs))
	for i, tx := range txs {
		lines[i] = tx
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLines(s.txPath, lines)
}

// PutTransferBatch appends token transfers as JSON lines.
func (s *JsonlStore) PutTransferBatch(transfers []model.TokenTransfer) error {
	if len(transfers) == 0 {
		return nil
	}
	lines := make([]interface{}, len(transfers))
	for i, t := range transfers {
		lines[i] = t
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLines(s.transferPath, lines)
}

func appendLines(path string, lines []interface{}) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range lines {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}
	return writer.Flush()
}

// ReadTransactions loads every raw transaction from a JSONL file.
func ReadTransactions(path string) ([]model.RawTransaction, error) {
	var out []model.RawTransaction
	err := scanLines(path, func(line []byte) error {
		var tx model.RawTransaction
		if err := json.Unmarshal(line, &tx); err != nil {
			return err
		}
		out = append(out, tx)
		return nil
	})
	return out, err
}

// ReadTransfers loads every token transfer from a JSONL file.
func ReadTransfers(path string) ([]model.TokenTransfer, error) {
	var out []model.TokenTransfer
	err := scanLines(path, func(line []byte) error {
		var t model.TokenTransfer
		if err := json.Unmarshal(line, &t); err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	return out, err
}

func scanLines(path string, fn func([]byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("parse line: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
