package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境，定义候选过滤可用的变量。
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("user_id", cel.StringType),
			cel.Variable("item_id", cel.StringType),
		)
	})
	return celEnv, celEnvErr
}

// RuleFilter 是规则过滤器，使用 CEL (Common Expression Language) 表达式
// 判断候选是否剔除。表达式返回 true 表示剔除该候选。
//
// 表达式语法（CEL 标准语法）：
//   - item_id == "item_42"                      → 剔除固定物品
//   - item_id.startsWith("promo_")              → 剔除前缀匹配的物品
//   - user_id == "u1" && item_id == "item_9"    → 针对特定用户剔除
//
// 表达式在构造时编译一次，Evaluate 阶段只执行，批处理中按候选高频调用
// 不会重复编译。
type RuleFilter struct {
	expr string
	prg  cel.Program
}

// NewRuleFilter 编译表达式并创建规则过滤器。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	if expr == "" {
		return nil, fmt.Errorf("rule filter: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("rule filter: cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("rule filter: compile %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule filter: expression %q must return bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("rule filter: program %q: %w", expr, err)
	}
	return &RuleFilter{expr: expr, prg: prg}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(_ context.Context, userID, itemID string) (bool, error) {
	out, _, err := f.prg.Eval(map[string]any{
		"user_id": userID,
		"item_id": itemID,
	})
	if err != nil {
		return false, fmt.Errorf("rule filter: eval %q: %w", f.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule filter: expression %q returned %T, want bool", f.expr, out.Value())
	}
	return result, nil
}
