package core

import "context"

// InteractionSource 是交互数据源的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - Scan 逐条回调，支持分页/流式读取，大数据量下不要求一次性装载
//   - 一次运行只读一个一致性快照；运行中产生的新交互不参与本次训练
//
// 实现：
//   - store.SliceSource（内存，测试/示例）
//   - store.CSVSource（CSV 文件）
//   - store.GormStore（MySQL，分批扫描）
type InteractionSource interface {
	// Name 返回数据源名称（用于日志）
	Name() string

	// Scan 遍历全部交互，fn 返回错误时中断
	Scan(ctx context.Context, fn func(Interaction) error) error
}

// Store 是 KV 存储的领域接口。
//
// 推荐结果以序列化列表的形式存放在 KV 后端（memory/redis），
// 通过 store.KVRecommendationStore 适配为 RecommendationStore。
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// BatchGet 批量读取（减少网络往返）
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// BatchSet 批量写入（发布阶段按批提交）
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error

	// Close 关闭连接/释放资源
	Close() error
}

// RecommendationStore 是推荐结果存储的领域接口。
//
// 语义要求：
//   - UpsertBatch 按 user_id 整表替换：不存在则插入，存在则替换整个列表
//     并覆盖 computed_at；从不留下只有部分条目的记录
//   - 同一批数据重放多次，最终状态一致（幂等）
//   - Get 未找到时返回 ErrStoreNotFound（读取侧视为正常的 not found）
type RecommendationStore interface {
	// Name 返回存储后端名称
	Name() string

	// UpsertBatch 原子地插入或整表替换一批用户的推荐列表
	UpsertBatch(ctx context.Context, lists []*RecommendationList) error

	// Get 读取单个用户的推荐列表
	Get(ctx context.Context, userID string) (*RecommendationList, error)

	// Close 关闭连接/释放资源
	Close() error
}
