package protocol

// 事件名（线上协议），客户端与服务端共用
const (
	EvConnected      = "connected" // 传输层握手：告知新连接自己的标识
	EvCurrentPlayers = "currentPlayers"
	EvNewPlayer      = "newPlayer"

	EvPlayerMovement = "playerMovement"
	EvPlayerMoved    = "playerMoved"
	EvPlayerJump     = "playerJump"
	EvPlayerJumped   = "playerJumped"
	EvPlayerAttack   = "playerAttack"
	EvPlayerAttacked = "playerAttacked"

	EvChatMessage         = "chatMessage"
	EvChatMessageReceived = "chatMessageReceived"

	EvPlayerDisconnected = "playerDisconnected"
)

// Direction 朝向，仅允许 left / right
type Direction string

const (
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

func (d Direction) Valid() bool {
	return d == DirLeft || d == DirRight
}

// Vec2 二维坐标（像素）
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Lerp 单步线性插值：a + (b-a)*t
func Lerp(a, b Vec2, t float64) Vec2 {
	return Vec2{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// Sub 返回 a-b
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

// LenSq 长度平方，避免开方
func (v Vec2) LenSq() float64 { return v.X*v.X + v.Y*v.Y }
