package server

// Room 循环的入站命令。三种命令走同一个通道，保证同一连接上的
// 加入 → 事件 → 离开 按到达顺序处理。

// joinCmd 新连接
type joinCmd struct {
	ID   PlayerID
	Conn Conn
}

// Input 某连接发来的一帧原始数据，解码在 Room 线程中完成
type Input struct {
	PlayerID PlayerID
	Frame    []byte
}

// leaveCmd 连接断开
type leaveCmd struct {
	ID PlayerID
}
