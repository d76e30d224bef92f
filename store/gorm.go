package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rushteam/recbatch/core"
)

// 扫描/写入的默认批大小，限制单次事务与内存占用。
const gormBatchSize = 10000

// GormStore 是 MySQL 实现：interactions 表作为交互数据源（分批扫描），
// recommendations 表作为推荐结果存储（按 user_id 冲突时整表替换）。
type GormStore struct {
	db *gorm.DB
}

type interactionRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"column:user_id;size:64;not null;index"`
	ItemID    string `gorm:"column:item_id;size:64;not null"`
	Rating    float64
	Timestamp int64
}

func (interactionRow) TableName() string { return "interactions" }

type recommendationRow struct {
	UserID     string `gorm:"column:user_id;primaryKey;size:64"`
	Items      string `gorm:"type:json"`
	ComputedAt time.Time
}

func (recommendationRow) TableName() string { return "recommendations" }

// NewGormStore 连接 MySQL 并自动建表。
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.AutoMigrate(&interactionRow{}, &recommendationRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Name() string { return "mysql" }

// Scan 分批读取全部交互（core.InteractionSource）。
func (s *GormStore) Scan(ctx context.Context, fn func(core.Interaction) error) error {
	var rows []interactionRow
	result := s.db.WithContext(ctx).FindInBatches(&rows, gormBatchSize, func(_ *gorm.DB, _ int) error {
		for _, r := range rows {
			if err := fn(core.Interaction{
				UserID:    r.UserID,
				ItemID:    r.ItemID,
				Rating:    r.Rating,
				Timestamp: r.Timestamp,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return result.Error
}

// SaveInteractions 批量写入交互数据（load 命令用）。
func (s *GormStore) SaveInteractions(ctx context.Context, interactions []core.Interaction) error {
	if len(interactions) == 0 {
		return nil
	}
	rows := make([]interactionRow, 0, len(interactions))
	for _, in := range interactions {
		rows = append(rows, interactionRow{
			UserID:    in.UserID,
			ItemID:    in.ItemID,
			Rating:    in.Rating,
			Timestamp: in.Timestamp,
		})
	}
	return s.db.WithContext(ctx).CreateInBatches(rows, gormBatchSize).Error
}

// UpsertBatch 整表 upsert（core.RecommendationStore）：
// INSERT ... ON DUPLICATE KEY UPDATE items, computed_at，单批一个事务。
func (s *GormStore) UpsertBatch(ctx context.Context, lists []*core.RecommendationList) error {
	if len(lists) == 0 {
		return nil
	}

	rows := make([]recommendationRow, 0, len(lists))
	for _, l := range lists {
		items, err := json.Marshal(l.Items)
		if err != nil {
			return fmt.Errorf("marshal items for %s: %w", l.UserID, err)
		}
		rows = append(rows, recommendationRow{
			UserID:     l.UserID,
			Items:      string(items),
			ComputedAt: l.ComputedAt,
		})
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"items", "computed_at"}),
	}).Create(&rows).Error
}

// Get 读取单个用户的推荐列表；不存在返回 core.ErrStoreNotFound。
func (s *GormStore) Get(ctx context.Context, userID string) (*core.RecommendationList, error) {
	var row recommendationRow
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}

	var items []core.ScoredItem
	if err := json.Unmarshal([]byte(row.Items), &items); err != nil {
		return nil, fmt.Errorf("parse items for %s: %w", userID, err)
	}
	return &core.RecommendationList{
		UserID:     row.UserID,
		Items:      items,
		ComputedAt: row.ComputedAt,
	}, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var (
	_ core.InteractionSource   = (*GormStore)(nil)
	_ core.RecommendationStore = (*GormStore)(nil)
)
