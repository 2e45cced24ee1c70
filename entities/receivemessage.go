package entities

type ReceiveMessageRequest struct {
	MessageID string `json:"messageID"`
}

type ReceiveMessageValue struct {
	Value string `json:"value"`
}

type ReceiveMessageResult struct {
	Values []ReceiveMessageValue `json:"values"`
}

type ReceiveMessageRes struct {
	RPCBaseRes
	Result *ReceiveMessageResult `json:"result,omitempty"`
}
