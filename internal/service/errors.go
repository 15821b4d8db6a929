package service

import "errors"

var (
	// ErrUserIDRequired 缺少用户 ID，调用方应在任何 I/O 之前拒绝
	ErrUserIDRequired = errors.New("user id 不能为空")
	// ErrInvalidFilter 筛选条件非法
	ErrInvalidFilter = errors.New("筛选条件非法")
	// ErrSyncFailed 贡献同步失败，调用方可重试
	ErrSyncFailed = errors.New("sync failed")
)

// ErrLoginRequired 无法确定上游账号
var ErrLoginRequired = errors.New("login 不能为空")
