package model

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// MsgKind identifies the collaborator action requested by a Msg.
type MsgKind string

const (
	MsgDelegate       MsgKind = "delegate"
	MsgUndelegate     MsgKind = "undelegate"
	MsgRedelegate     MsgKind = "redelegate"
	MsgWithdrawReward MsgKind = "withdraw_reward"
	MsgSend           MsgKind = "send"
	MsgMint           MsgKind = "mint"
	MsgBurn           MsgKind = "burn"
)

// ReplyMode tells the host when the outcome of a Msg must be reported back.
type ReplyMode string

const (
	ReplyNever   ReplyMode = ""
	ReplyOnError ReplyMode = "on_error"
	ReplyAlways  ReplyMode = "always"
)

// Reply ids understood by the hub.
const (
	ReplyWithdrawIntermittent uint64 = 1
	ReplyWithdrawComplete     uint64 = 2
)

// Msg is an instruction emitted by the hub for the staking or token ledger.
type Msg struct {
	Kind         MsgKind     `json:"kind"`
	Validator    string      `json:"validator,omitempty"`
	DstValidator string      `json:"dst_validator,omitempty"`
	Recipient    string      `json:"recipient,omitempty"`
	Denom        string      `json:"denom,omitempty"`
	Amount       sdkmath.Int `json:"amount"`
	ReplyOn      ReplyMode   `json:"reply_on,omitempty"`
	ReplyID      uint64      `json:"reply_id,omitempty"`
}

func (m Msg) String() string {
	switch m.Kind {
	case MsgRedelegate:
		return fmt.Sprintf("%s %s %s->%s", m.Kind, m.Amount, m.Validator, m.DstValidator)
	case MsgSend, MsgMint:
		return fmt.Sprintf("%s %s to %s", m.Kind, m.Amount, m.Recipient)
	case MsgWithdrawReward:
		return fmt.Sprintf("%s %s", m.Kind, m.Validator)
	default:
		return fmt.Sprintf("%s %s %s", m.Kind, m.Amount, m.Validator)
	}
}

func Delegate(validator string, amount sdkmath.Int) Msg {
	return Msg{Kind: MsgDelegate, Validator: validator, Amount: amount}
}

func Undelegate(validator string, amount sdkmath.Int) Msg {
	return Msg{Kind: MsgUndelegate, Validator: validator, Amount: amount}
}

func Redelegate(src, dst string, amount sdkmath.Int) Msg {
	return Msg{Kind: MsgRedelegate, Validator: src, DstValidator: dst, Amount: amount}
}

func WithdrawReward(validator string, mode ReplyMode, id uint64) Msg {
	return Msg{Kind: MsgWithdrawReward, Validator: validator, Amount: sdkmath.ZeroInt(), ReplyOn: mode, ReplyID: id}
}

func Send(recipient, denom string, amount sdkmath.Int) Msg {
	return Msg{Kind: MsgSend, Recipient: recipient, Denom: denom, Amount: amount}
}

func Mint(recipient string, shares sdkmath.Int) Msg {
	return Msg{Kind: MsgMint, Recipient: recipient, Amount: shares}
}

func Burn(shares sdkmath.Int) Msg {
	return Msg{Kind: MsgBurn, Amount: shares}
}

// Reply reports the outcome of a Msg emitted with a reply mode.
type Reply struct {
	ID    uint64 `json:"id"`
	Error string `json:"error,omitempty"`
}

// Attribute is a key/value pair describing what a command did.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is the outcome of a successful command.
type Response struct {
	Messages   []Msg       `json:"messages"`
	Attributes []Attribute `json:"attributes"`
}

func NewResponse(action string) Response {
	return Response{Attributes: []Attribute{{Key: "action", Value: action}}}
}

func (r *Response) AddMessage(msg Msg) {
	r.Messages = append(r.Messages, msg)
}

func (r *Response) AddAttribute(key string, value interface{}) {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: fmt.Sprint(value)})
}

// Merge appends the messages and attributes of other.
func (r *Response) Merge(other Response) {
	r.Messages = append(r.Messages, other.Messages...)
	r.Attributes = append(r.Attributes, other.Attributes...)
}

// Attribute returns the first value stored under key.
func (r Response) Attribute(key string) (string, bool) {
	for _, attr := range r.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Env describes the caller and block context of a command.
type Env struct {
	Time   uint64 `json:"time"`
	Sender string `json:"sender"`
	Funds  []Coin `json:"funds,omitempty"`
}
