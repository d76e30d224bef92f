package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 批处理各阶段（input/train/rank/publish/store）的错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），调用方按分类决定是否可重试
type DomainError struct {
	Code    string // 错误代码（如 "EMPTY_DATASET", "NUMERIC_INSTABILITY"）
	Message string // 错误消息
	Module  string // 模块名称（如 "input", "train", "publish"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError；支持 %w 包装链，不是则返回 nil。
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeEmptyDataset       = "EMPTY_DATASET"       // 交互快照为空
	ErrorCodeOutOfRangeRating   = "OUT_OF_RANGE_RATING" // 评分超出声明的量表范围
	ErrorCodeNumericInstability = "NUMERIC_INSTABILITY" // 训练发散，参数非有限
	ErrorCodePartialWrite       = "PARTIAL_WRITE"       // 发布批次部分失败
	ErrorCodeNotFound           = "NOT_FOUND"           // 资源不存在
	ErrorCodeInvalidInput       = "INVALID_INPUT"       // 输入无效
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 内部错误
)

// 模块名称常量
const (
	ModuleInput   = "input"   // 输入快照
	ModuleTrain   = "train"   // 模型训练
	ModuleRank    = "rank"    // Top-N 排序
	ModulePublish = "publish" // 结果发布
	ModuleStore   = "store"   // 存储
)

// 常用哨兵错误
var (
	// ErrEmptyDataset 表示训练输入没有任何交互数据
	ErrEmptyDataset = NewDomainError(ModuleInput, ErrorCodeEmptyDataset, "input: empty interaction snapshot")

	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")
)

func hasCode(err error, code string) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Code == code
}

// IsEmptyDataset 检查错误是否为空数据集
func IsEmptyDataset(err error) bool {
	return hasCode(err, ErrorCodeEmptyDataset)
}

// IsOutOfRangeRating 检查错误是否为评分越界
func IsOutOfRangeRating(err error) bool {
	return hasCode(err, ErrorCodeOutOfRangeRating)
}

// IsNumericInstability 检查错误是否为训练数值发散
func IsNumericInstability(err error) bool {
	return hasCode(err, ErrorCodeNumericInstability)
}

// IsPartialWrite 检查错误是否为发布部分失败（已提交批次保留，可针对失败用户重试）
func IsPartialWrite(err error) bool {
	return hasCode(err, ErrorCodePartialWrite)
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsStoreNotFound 检查错误是否为存储 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == ModuleStore && domainErr.Code == ErrorCodeNotFound
}
