package store

import (
	"context"

	"github.com/rushteam/recbatch/core"
)

// SliceSource 是内存实现的交互数据源，用于测试/示例。
type SliceSource struct {
	Interactions []core.Interaction
}

func (s *SliceSource) Name() string { return "memory" }

func (s *SliceSource) Scan(ctx context.Context, fn func(core.Interaction) error) error {
	for _, in := range s.Interactions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(in); err != nil {
			return err
		}
	}
	return nil
}

var _ core.InteractionSource = (*SliceSource)(nil)
