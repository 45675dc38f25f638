package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// LoanMessage is the relay transport payload requesting an instant loan:
// abi.encode(nonce, recipient, amount, timestamp).
type LoanMessage struct {
	Nonce     *big.Int
	Recipient common.Address
	Amount    *big.Int
	Timestamp *big.Int
}

var messageArguments abi.Arguments

func init() {
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	messageArguments = abi.Arguments{
		{Name: "nonce", Type: uint256Type},
		{Name: "recipient", Type: addressType},
		{Name: "amount", Type: uint256Type},
		{Name: "timestamp", Type: uint256Type},
	}
}

func EncodeLoanMessage(msg *LoanMessage) ([]byte, error) {
	payload, err := messageArguments.Pack(msg.Nonce, msg.Recipient, msg.Amount, msg.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("can't encode loan message: %w", err)
	}
	return payload, nil
}

func DecodeLoanMessage(payload []byte) (*LoanMessage, error) {
	values, err := messageArguments.Unpack(payload)
	if err != nil {
		return nil, fmt.Errorf("can't decode loan message: %w", err)
	}
	nonce, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected nonce type %T", values[0])
	}
	recipient, ok := values[1].(common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected recipient type %T", values[1])
	}
	amount, ok := values[2].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected amount type %T", values[2])
	}
	timestamp, ok := values[3].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected timestamp type %T", values[3])
	}
	return &LoanMessage{
		Nonce:     nonce,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: timestamp,
	}, nil
}
