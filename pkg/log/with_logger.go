package log

import "go.uber.org/atomic"

// Binder 是一个嵌入式类型，用于在组件内部统一管理和访问 Logger。
// 序列化引擎与工作区存储等组件通过嵌入 Binder 获得带固定字段的本地 Logger。
type Binder struct {
	logger atomic.Pointer[MLogger]
}

// SetLogger 将 Logger 绑定到 Binder 上。
func (w *Binder) SetLogger(logger *MLogger) {
	w.logger.Store(logger)
}

// Logger 返回当前绑定在 Binder 上的 Logger。
// 如果尚未绑定，则退回到全局 Logger。
func (w *Binder) Logger() *MLogger {
	l := w.logger.Load()
	if l == nil {
		return With()
	}
	return l
}
