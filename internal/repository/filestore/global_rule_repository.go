package filestore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/entity"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/repository/contract"
)

type ruleRecord struct {
	Id        int64     `json:"id"`
	Rule      string    `json:"rule"`
	CreatedAt time.Time `json:"created_at"`
}

// GlobalRuleRepository keeps global rules in a single JSONL file next to the
// chat history files.
type GlobalRuleRepository struct {
	path string
	mu   sync.Mutex
}

func NewGlobalRuleRepository(dir string) (contract.GlobalRuleRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &GlobalRuleRepository{path: filepath.Join(dir, "global_rules.jsonl")}, nil
}

func (r *GlobalRuleRepository) read() ([]ruleRecord, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var records []ruleRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec ruleRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

func (r *GlobalRuleRepository) write(records []ruleRecord) error {
	if len(records) == 0 {
		err := os.Remove(r.path)
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
	return os.WriteFile(r.path, []byte(sb.String()), 0o644)
}

func (r *GlobalRuleRepository) Create(ctx context.Context, rule *entity.GlobalRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read()
	if err != nil {
		return err
	}
	var nextId int64 = 1
	for _, rec := range records {
		if rec.Id >= nextId {
			nextId = rec.Id + 1
		}
	}
	rule.Id = nextId
	records = append(records, ruleRecord{Id: rule.Id, Rule: rule.Rule, CreatedAt: rule.CreatedAt})
	return r.write(records)
}

func (r *GlobalRuleRepository) FindAll(ctx context.Context) ([]*entity.GlobalRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read()
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.GlobalRule, len(records))
	for i, rec := range records {
		entities[i] = &entity.GlobalRule{Id: rec.Id, Rule: rec.Rule, CreatedAt: rec.CreatedAt}
	}
	return entities, nil
}

func (r *GlobalRuleRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.read()
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, rec := range records {
		if rec.Id != id {
			kept = append(kept, rec)
		}
	}
	return r.write(kept)
}

func (r *GlobalRuleRepository) TruncateAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(nil)
}
