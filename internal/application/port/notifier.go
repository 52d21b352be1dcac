package port

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeWarn:
		return "warn"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// Notice 短暂显示给用户的提示（校验失败、服务端错误、连接异常）
type Notice struct {
	Level   NoticeLevel
	Message string
}

type Notifier interface {
	Notify(n Notice)
}
