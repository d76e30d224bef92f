// Package recbatch 是一个离线推荐预计算引擎（Recommendation Batch）。
//
// 设计要点：
// - Snapshot-first: 一次运行只读一个一致性交互快照，训练数据与已评分索引同源
// - 单模型约束: 全部推荐列表反映本次运行的单个模型，阶段间显式传值、无全局状态
// - 整表 upsert: 每个用户的列表按批原子替换，重放幂等，失败批次可针对性重试
package recbatch

import "github.com/rushteam/recbatch/pipeline"

// 轻量 facade：便于用户直接 import "recbatch" 使用核心抽象。
type Job = pipeline.Job
type Report = pipeline.Report
type Config = pipeline.Config

var (
	LoadFromYAML   = pipeline.LoadFromYAML
	LoadFromJSON   = pipeline.LoadFromJSON
	DefaultFactory = pipeline.DefaultFactory
)
