package tracker

import "errors"

// ErrSendRejected send() 在非 Connected 状态下被调用
var ErrSendRejected = errors.New("send rejected: session not connected")

// ErrEmptyTicker 提交的代码为空
var ErrEmptyTicker = errors.New("ticker is empty")

// ErrNotConnected 提交时连接尚未建立
var ErrNotConnected = errors.New("not connected")

// ErrEngineStopped 事件循环已退出
var ErrEngineStopped = errors.New("engine stopped")
