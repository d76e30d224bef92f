package store

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/rushteam/recbatch/core"
)

// KVRecommendationStore 将任意 core.Store（Memory/Redis）适配为推荐结果
// 存储。每个用户的列表序列化为 JSON，存放在 {prefix}:{user_id}。
//
// KV 后端的 Set 天然是整 value 替换，因此 upsert/幂等语义由后端保证：
// 不存在则写入，存在则整体覆盖，重放同一批数据最终状态一致。
type KVRecommendationStore struct {
	store  core.Store
	prefix string
}

// NewKVRecommendationStore 创建 KV 适配器；prefix 为空时取 "rec"。
func NewKVRecommendationStore(s core.Store, prefix string) *KVRecommendationStore {
	if prefix == "" {
		prefix = "rec"
	}
	return &KVRecommendationStore{store: s, prefix: prefix}
}

func (s *KVRecommendationStore) Name() string {
	return "kv:" + s.store.Name()
}

func (s *KVRecommendationStore) key(userID string) string {
	return s.prefix + ":" + userID
}

func (s *KVRecommendationStore) UpsertBatch(ctx context.Context, lists []*core.RecommendationList) error {
	if len(lists) == 0 {
		return nil
	}

	kvs := make(map[string][]byte, len(lists))
	for _, l := range lists {
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("marshal list for %s: %w", l.UserID, err)
		}
		kvs[s.key(l.UserID)] = data
	}
	return s.store.BatchSet(ctx, kvs)
}

func (s *KVRecommendationStore) Get(ctx context.Context, userID string) (*core.RecommendationList, error) {
	data, err := s.store.Get(ctx, s.key(userID))
	if err != nil {
		return nil, err
	}
	var list core.RecommendationList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse list for %s: %w", userID, err)
	}
	return &list, nil
}

func (s *KVRecommendationStore) Close() error {
	return s.store.Close()
}

var _ core.RecommendationStore = (*KVRecommendationStore)(nil)
