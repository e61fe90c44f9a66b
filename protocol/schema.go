package protocol

// Catalog 汇总全部事件载荷，供 cmd/protocol-schema 反射生成 JSON Schema
type Catalog struct {
	Connected      Connected      `json:"connected"`
	CurrentPlayers []PlayerRecord `json:"currentPlayers"`
	NewPlayerIn    NewPlayer      `json:"newPlayer" jsonschema:"description=client to server"`
	NewPlayerOut   PlayerRecord   `json:"newPlayerBroadcast" jsonschema:"description=server to others"`

	PlayerMovement PlayerMovement `json:"playerMovement"`
	PlayerMoved    PlayerMoved    `json:"playerMoved"`
	PlayerJump     PlayerJump     `json:"playerJump"`
	PlayerJumped   PlayerJumped   `json:"playerJumped"`
	PlayerAttack   PlayerAttack   `json:"playerAttack"`
	PlayerAttacked PlayerAttacked `json:"playerAttacked"`

	ChatMessage         ChatMessage         `json:"chatMessage"`
	ChatMessageReceived ChatMessageReceived `json:"chatMessageReceived"`
	PlayerDisconnected  PlayerDisconnected  `json:"playerDisconnected"`
}
