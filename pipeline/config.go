package pipeline

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/recbatch/core"
	"github.com/rushteam/recbatch/filter"
	"github.com/rushteam/recbatch/pkg/conv"
	"github.com/rushteam/recbatch/store"
	"github.com/rushteam/recbatch/train"
)

// Config 是批处理任务的配置结构（支持 YAML/JSON）。
//
// 示例：
//
//	job:
//	  scale: {min: 0.5, max: 5.0}
//	  model: {factors: 50, epochs: 20, learning_rate: 0.005, regularization: 0.02, seed: 42}
//	  top_n: 20
//	  batch_size: 10000
//	  max_concurrent: 8
//	  rules:
//	    - item_id.startsWith("banned_")
//	  source:
//	    type: csv
//	    config: {path: interactions.csv}
//	  store:
//	    type: redis
//	    config: {addr: "127.0.0.1:6379", db: 0, key_prefix: rec}
type Config struct {
	Job struct {
		Scale         core.RatingScale `yaml:"scale" json:"scale"`
		Model         train.Config     `yaml:"model" json:"model"`
		TopN          int              `yaml:"top_n" json:"top_n"`
		BatchSize     int              `yaml:"batch_size" json:"batch_size"`
		MaxConcurrent int              `yaml:"max_concurrent" json:"max_concurrent"`
		ModelPath     string           `yaml:"model_path" json:"model_path"`
		Blacklist     []string         `yaml:"blacklist" json:"blacklist"`
		Rules         []string         `yaml:"rules" json:"rules"`
		Source        BackendConfig    `yaml:"source" json:"source"`
		Store         BackendConfig    `yaml:"store" json:"store"`
	} `yaml:"job" json:"job"`
}

// BackendConfig 是数据源/存储后端的配置。
type BackendConfig struct {
	Type   string         `yaml:"type" json:"type"`     // csv / mysql / memory / redis
	Config map[string]any `yaml:"config" json:"config"` // 后端特定配置
}

// LoadFromYAML 从 YAML 文件加载任务配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// LoadFromJSON 从 JSON 文件加载任务配置。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &cfg, nil
}

// Factory 根据配置构建数据源与存储后端。
type Factory struct {
	sources map[string]func(map[string]any) (core.InteractionSource, error)
	stores  map[string]func(map[string]any) (core.RecommendationStore, error)
}

func NewFactory() *Factory {
	return &Factory{
		sources: make(map[string]func(map[string]any) (core.InteractionSource, error)),
		stores:  make(map[string]func(map[string]any) (core.RecommendationStore, error)),
	}
}

// RegisterSource 注册数据源构建器。
func (f *Factory) RegisterSource(typ string, builder func(map[string]any) (core.InteractionSource, error)) {
	f.sources[typ] = builder
}

// RegisterStore 注册存储构建器。
func (f *Factory) RegisterStore(typ string, builder func(map[string]any) (core.RecommendationStore, error)) {
	f.stores[typ] = builder
}

// BuildSource 根据类型和配置构建数据源。
func (f *Factory) BuildSource(c BackendConfig) (core.InteractionSource, error) {
	builder, ok := f.sources[c.Type]
	if !ok {
		return nil, fmt.Errorf("unknown source type: %s", c.Type)
	}
	return builder(c.Config)
}

// BuildStore 根据类型和配置构建存储。
func (f *Factory) BuildStore(c BackendConfig) (core.RecommendationStore, error) {
	builder, ok := f.stores[c.Type]
	if !ok {
		return nil, fmt.Errorf("unknown store type: %s", c.Type)
	}
	return builder(c.Config)
}

// DefaultFactory 返回一个包含所有内置后端的默认工厂。
func DefaultFactory() *Factory {
	f := NewFactory()

	f.RegisterSource("csv", func(c map[string]any) (core.InteractionSource, error) {
		path := conv.ConfigGet[string](c, "path", "")
		if path == "" {
			return nil, fmt.Errorf("csv source: path not found")
		}
		return &store.CSVSource{
			Path:     path,
			NoHeader: conv.ConfigGet[bool](c, "no_header", false),
		}, nil
	})
	f.RegisterSource("mysql", func(c map[string]any) (core.InteractionSource, error) {
		return buildGormStore(c)
	})

	f.RegisterStore("memory", func(c map[string]any) (core.RecommendationStore, error) {
		prefix := conv.ConfigGet[string](c, "key_prefix", "")
		return store.NewKVRecommendationStore(store.NewMemoryStore(), prefix), nil
	})
	f.RegisterStore("redis", func(c map[string]any) (core.RecommendationStore, error) {
		addr := conv.ConfigGet[string](c, "addr", "127.0.0.1:6379")
		db := conv.ConfigGetInt(c, "db", 0)
		rs, err := store.NewRedisStore(addr, db)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		prefix := conv.ConfigGet[string](c, "key_prefix", "")
		return store.NewKVRecommendationStore(rs, prefix), nil
	})
	f.RegisterStore("mysql", func(c map[string]any) (core.RecommendationStore, error) {
		return buildGormStore(c)
	})

	return f
}

func buildGormStore(c map[string]any) (*store.GormStore, error) {
	dsn := conv.ConfigGet[string](c, "dsn", "")
	if dsn == "" {
		return nil, fmt.Errorf("mysql: dsn not found")
	}
	return store.NewGormStore(dsn)
}

// BuildJob 根据配置构建 Job（Logger 由调用方注入）。
func (c *Config) BuildJob(f *Factory) (*Job, error) {
	source, err := f.BuildSource(c.Job.Source)
	if err != nil {
		return nil, fmt.Errorf("build source: %w", err)
	}
	recStore, err := f.BuildStore(c.Job.Store)
	if err != nil {
		return nil, fmt.Errorf("build store: %w", err)
	}

	var filters []filter.Filter
	if len(c.Job.Blacklist) > 0 {
		filters = append(filters, filter.NewBlacklistFilter(c.Job.Blacklist))
	}
	for _, expr := range c.Job.Rules {
		rf, err := filter.NewRuleFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("build rule: %w", err)
		}
		filters = append(filters, rf)
	}

	return &Job{
		Source:        source,
		Scale:         c.Job.Scale,
		Train:         c.Job.Model,
		TopN:          c.Job.TopN,
		MaxConcurrent: c.Job.MaxConcurrent,
		Filters:       filters,
		Store:         recStore,
		BatchSize:     c.Job.BatchSize,
		ModelPath:     c.Job.ModelPath,
	}, nil
}
