package clientmqtt

type MQTTConf struct {
	ClientID string // ClientID - уникальное имя клиента для брокеров.
	Schema   string // Schema - тип подключения.
	Host     string // Host - адрес MQTT сервера.
	Port     string // Port - порт MQTT сервера.
	User     string // User - логин для подключения к MQTT серверу.
	Password string // Password - пароль для подключения к MQTT серверу.
	Qos      byte   // Qos - качество обслуживания.
	Topic    string // Topic - префикс топиков.
}

// CommandKind selects what a remote Command does.
type CommandKind int

const (
	CommandStaticScene CommandKind = iota
	CommandDynamicScene
	CommandAttenuation
)

// Command is a remote request received over MQTT. It is applied by the
// poll loop, never from the MQTT goroutines.
type Command struct {
	Kind        CommandKind
	Attenuation uint8 // Attenuation - only for CommandAttenuation.
}

// DMXCommand is the payload published for every output change.
type DMXCommand struct {
	Channel uint16 `json:"channel"` // Channel is the channel a command can talk to (0-127).
	Value   uint8  `json:"value"`   // Value is the value a DMX channel can represent (0-255).
}
