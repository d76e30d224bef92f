package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rushteam/recbatch/core"
)

// CSVSource 从 CSV 文件流式读取交互数据，逐行回调，不整体装载。
// 行格式：user_id,item_id,rating[,timestamp]，默认首行为表头。
type CSVSource struct {
	Path string

	// NoHeader 为 true 时首行当作数据
	NoHeader bool
}

func (s *CSVSource) Name() string { return "csv" }

func (s *CSVSource) Scan(ctx context.Context, fn func(core.Interaction) error) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s line %d: %w", s.Path, line+1, err)
		}
		line++
		if line == 1 && !s.NoHeader {
			continue
		}

		in, err := parseRecord(record)
		if err != nil {
			return core.NewDomainError(core.ModuleInput, core.ErrorCodeInvalidInput,
				fmt.Sprintf("input: %s line %d: %v", s.Path, line, err))
		}
		if err := fn(in); err != nil {
			return err
		}
	}
}

func parseRecord(record []string) (core.Interaction, error) {
	if len(record) < 3 {
		return core.Interaction{}, fmt.Errorf("want at least 3 fields, got %d", len(record))
	}

	rating, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return core.Interaction{}, fmt.Errorf("bad rating %q", record[2])
	}

	var ts int64
	if len(record) >= 4 && record[3] != "" {
		ts, err = strconv.ParseInt(record[3], 10, 64)
		if err != nil {
			return core.Interaction{}, fmt.Errorf("bad timestamp %q", record[3])
		}
	}

	return core.Interaction{
		UserID:    record[0],
		ItemID:    record[1],
		Rating:    rating,
		Timestamp: ts,
	}, nil
}

var _ core.InteractionSource = (*CSVSource)(nil)
