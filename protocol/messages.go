package protocol

// 每个事件一个显式的消息结构体。
// 客户端→服务端的消息里 id 字段仅为兼容保留，服务端一律以连接标识为准。

// Connected 服务端→新连接（一次）
type Connected struct {
	ID string `json:"id" jsonschema:"description=Connection identifier assigned by the server"`
}

// PlayerRecord 玩家记录（currentPlayers 的元素，以及转发给其他人的 newPlayer）
type PlayerRecord struct {
	ID         string    `json:"id"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Direction  Direction `json:"direction" jsonschema:"enum=left,enum=right"`
	IsMoving   bool      `json:"isMoving"`
	IsAirborne bool      `json:"isAirborne"`
}

// Position 以 Vec2 形式返回记录中的坐标
func (r PlayerRecord) Position() Vec2 { return Vec2{X: r.X, Y: r.Y} }

// NewPlayer 客户端→服务端：本地初始化完成后发送一次。x/y 可缺省。
type NewPlayer struct {
	ID string   `json:"id,omitempty"`
	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
}

// PlayerMovement 客户端→服务端：电平状态（位置、朝向、移动/离地）
type PlayerMovement struct {
	ID         string    `json:"id,omitempty"`
	Position   *Vec2     `json:"position"`
	Direction  Direction `json:"direction" jsonschema:"enum=left,enum=right"`
	IsMoving   bool      `json:"isMoving"`
	IsAirborne bool      `json:"isAirborne"`
}

// PlayerMoved 服务端→其他连接
type PlayerMoved struct {
	ID         string    `json:"id"`
	Position   Vec2      `json:"position"`
	Direction  Direction `json:"direction" jsonschema:"enum=left,enum=right"`
	IsMoving   bool      `json:"isMoving"`
	IsAirborne bool      `json:"isAirborne"`
}

// PlayerJump 客户端→服务端：边沿事件，每次起跳一次
type PlayerJump struct {
	ID        string    `json:"id,omitempty"`
	Position  *Vec2     `json:"position"`
	Direction Direction `json:"direction" jsonschema:"enum=left,enum=right"`
	VelocityY float64   `json:"velocityY"`
}

// PlayerJumped 服务端→其他连接
type PlayerJumped struct {
	ID        string    `json:"id"`
	Position  Vec2      `json:"position"`
	Direction Direction `json:"direction" jsonschema:"enum=left,enum=right"`
	VelocityY float64   `json:"velocityY"`
}

// PlayerAttack 客户端→服务端：边沿事件
type PlayerAttack struct {
	ID         string    `json:"id,omitempty"`
	Position   *Vec2     `json:"position"`
	Direction  Direction `json:"direction" jsonschema:"enum=left,enum=right"`
	IsAirborne bool      `json:"isAirborne"`
}

// PlayerAttacked 服务端→其他连接
type PlayerAttacked struct {
	ID         string    `json:"id"`
	Position   Vec2      `json:"position"`
	Direction  Direction `json:"direction" jsonschema:"enum=left,enum=right"`
	IsAirborne bool      `json:"isAirborne"`
}

// ChatMessage 客户端→服务端
type ChatMessage struct {
	ID        string `json:"id,omitempty"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp" jsonschema:"description=Sender clock in unix milliseconds"`
}

// ChatMessageReceived 服务端→所有连接（包括发送者本人）
type ChatMessageReceived struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// PlayerDisconnected 服务端→剩余连接
type PlayerDisconnected struct {
	ID string `json:"id"`
}
