package entities

// Arg is one argument of a lightnode payload. Name and Type may be empty
// depending on the method.
type Arg struct {
	Name  string `json:"name,omitempty"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

type Payload struct {
	Method string `json:"method"`
	Args   []Arg  `json:"args"`
}

type SendMessageRequest struct {
	Nonce     uint32  `json:"nonce"`
	To        string  `json:"to"`
	Signature string  `json:"signature"`
	Payload   Payload `json:"payload"`
}

type SendMessageResult struct {
	MessageID string `json:"messageID"`
	Ok        bool   `json:"ok"`
}

type SendMessageRes struct {
	RPCBaseRes
	Result *SendMessageResult `json:"result,omitempty"`
}
