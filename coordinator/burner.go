package coordinator

import (
	"context"
	"fmt"

	"github.com/warpgate-labs/xcs-portal/entities"
	"github.com/warpgate-labs/xcs-portal/ledger"
)

// GroupBurner submits burn instructions through the same node group used
// for minting. The burn transaction reference stays empty until the nodes
// produce one; callers poll with the returned messageID.
type GroupBurner struct {
	group          NodeGroup
	receiveAddress func() string
}

func NewGroupBurner(group NodeGroup, receiveAddress func() string) *GroupBurner {
	return &GroupBurner{group: group, receiveAddress: receiveAddress}
}

func (b *GroupBurner) SubmitBurn(ctx context.Context, currency ledger.Currency, amount string, to string) (string, string, error) {
	method, err := burnMethod(currency)
	if err != nil {
		return "", "", err
	}

	request := &entities.SendMessageRequest{
		Nonce:     randomNonce(),
		To:        ServiceName,
		Signature: "",
		Payload: entities.Payload{
			Method: method,
			Args: []entities.Arg{
				{Name: "uid", Type: "public", Value: strip0x(b.receiveAddress())},
				{Name: "amount", Type: "public", Value: amount},
				{Name: "to", Type: "public", Value: to},
			},
		},
	}

	results, err := b.group.Broadcast(ctx, request)
	if err != nil {
		return "", "", err
	}
	for _, result := range results {
		if result.Err == nil && result.Result != nil && result.Result.MessageID != "" {
			return result.Result.MessageID, "", nil
		}
	}
	return "", "", fmt.Errorf("coordinator: no node returned a messageID for burn")
}
