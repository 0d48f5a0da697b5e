package filestore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/entity"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/repository/contract"
)

// turnRecord is the on-disk line format, one JSON object per line. It matches
// the shape of the Gemini content a turn is replayed as.
type turnRecord struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryRepository stores each chat as an append-only JSONL file under a
// history directory. It is the flat-file twin of the GORM implementation.
type HistoryRepository struct {
	dir string
	mu  sync.Mutex
}

func NewHistoryRepository(dir string) (contract.HistoryRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &HistoryRepository{dir: dir}, nil
}

func (r *HistoryRepository) chatPath(chatKey int64) string {
	return filepath.Join(r.dir, fmt.Sprintf("chat_%d.jsonl", chatKey))
}

func (r *HistoryRepository) readChat(chatKey int64) ([]turnRecord, error) {
	file, err := os.Open(r.chatPath(chatKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var records []turnRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec turnRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			// Skip corrupt lines instead of failing the whole chat.
			continue
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

func (r *HistoryRepository) writeChat(chatKey int64, records []turnRecord) error {
	if len(records) == 0 {
		err := os.Remove(r.chatPath(chatKey))
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var sb strings.Builder
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}
	return os.WriteFile(r.chatPath(chatKey), []byte(sb.String()), 0o644)
}

func (r *HistoryRepository) AppendTurns(ctx context.Context, turns []*entity.ChatTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byChat := make(map[int64][]turnRecord)
	for _, t := range turns {
		byChat[t.ChatKey] = append(byChat[t.ChatKey], turnRecord{
			Role:      t.Role,
			Text:      t.Text,
			CreatedAt: t.CreatedAt,
		})
	}
	for chatKey, recs := range byChat {
		file, err := os.OpenFile(r.chatPath(chatKey), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			line, err := json.Marshal(rec)
			if err != nil {
				file.Close()
				return err
			}
			if _, err := file.Write(append(line, '\n')); err != nil {
				file.Close()
				return err
			}
		}
		if err := file.Close(); err != nil {
			return err
		}
	}
	return nil
}

func (r *HistoryRepository) FindByChatKey(ctx context.Context, chatKey int64) ([]*entity.ChatTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readChat(chatKey)
	if err != nil {
		return nil, err
	}
	return recordsToEntities(chatKey, records), nil
}

func (r *HistoryRepository) FindAll(ctx context.Context) ([]*entity.ChatTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, err := r.chatKeys()
	if err != nil {
		return nil, err
	}
	var all []*entity.ChatTurn
	for _, key := range keys {
		records, err := r.readChat(key)
		if err != nil {
			return nil, err
		}
		all = append(all, recordsToEntities(key, records)...)
	}
	return all, nil
}

func (r *HistoryRepository) CountByChatKey(ctx context.Context, chatKey int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readChat(chatKey)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

func (r *HistoryRepository) DeleteOldest(ctx context.Context, chatKey int64, count int64) error {
	if count <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readChat(chatKey)
	if err != nil {
		return err
	}
	if int64(len(records)) <= count {
		return r.writeChat(chatKey, nil)
	}
	return r.writeChat(chatKey, records[count:])
}

func (r *HistoryRepository) DeleteByChatKey(ctx context.Context, chatKey int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeChat(chatKey, nil)
}

func (r *HistoryRepository) TruncateAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, err := r.chatKeys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := r.writeChat(key, nil); err != nil {
			return err
		}
	}
	return nil
}

func (r *HistoryRepository) chatKeys() ([]int64, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, "chat_*.jsonl"))
	if err != nil {
		return nil, err
	}
	keys := make([]int64, 0, len(matches))
	for _, match := range matches {
		name := strings.TrimSuffix(filepath.Base(match), ".jsonl")
		key, err := strconv.ParseInt(strings.TrimPrefix(name, "chat_"), 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

func recordsToEntities(chatKey int64, records []turnRecord) []*entity.ChatTurn {
	entities := make([]*entity.ChatTurn, len(records))
	for i, rec := range records {
		entities[i] = &entity.ChatTurn{
			ChatKey:   chatKey,
			Role:      rec.Role,
			Text:      rec.Text,
			CreatedAt: rec.CreatedAt,
		}
	}
	return entities
}
