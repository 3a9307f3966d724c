package runtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valence-protocol/valence-go/state"
)

var (
	ErrChannelClosed     = errors.New("channel closed, reopen before resuming delivery")
	ErrChannelNotClosed  = errors.New("channel is not closed")
	ErrNotConnectorOwner = errors.New("only the connector owner can do that")
)

type ChannelState string

const (
	ChannelOpen   ChannelState = "open"
	ChannelClosed ChannelState = "closed"
)

// DeliverFunc is the underlying transport to the remote domain.
type DeliverFunc func(target string, msg []byte) error

type ConnectorInstantiateMsg struct {
	Owner string `json:"owner"`
	// Consecutive delivery failures tolerated before the channel closes
	MaxFailures uint64 `json:"max_failures"`
}

type ConnectorExecuteMsg struct {
	Relay  *RelayMsg  `json:"relay,omitempty"`
	Reopen *ReopenMsg `json:"reopen,omitempty"`
}

type RelayMsg struct {
	Target string          `json:"target"`
	Msg    json.RawMessage `json:"msg"`
}

type ReopenMsg struct{}

// RelayResponse reports the delivery outcome in the response body rather
// than as an execution error, so the connector's failure bookkeeping is
// committed even when delivery fails.
type RelayResponse struct {
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

type ConnectorQueryMsg struct {
	Channel *ChannelQuery `json:"channel,omitempty"`
}

type ChannelQuery struct{}

type ChannelInfo struct {
	State    ChannelState `json:"state"`
	Failures uint64       `json:"failures"`
}

type connectorConfig struct {
	Owner       string `json:"owner"`
	MaxFailures uint64 `json:"max_failures"`
}

// BridgeConnector forwards messages to a remote domain over an injected
// transport. Repeated transport failures close the channel; once closed,
// delivery is suspended until the owner explicitly reopens it, the same
// discipline an interchain account applies to its ICA channel.
type BridgeConnector struct {
	deliver DeliverFunc
}

var _ Contract = (*BridgeConnector)(nil)

var (
	connectorConfigItem = state.NewItem[connectorConfig]("config")
	channelItem         = state.NewItem[ChannelInfo]("channel")
)

func NewBridgeConnector(deliver DeliverFunc) *BridgeConnector {
	return &BridgeConnector{deliver: deliver}
}

func (c *BridgeConnector) Instantiate(deps Deps, env Env, info MessageInfo, msg []byte) error {
	var init ConnectorInstantiateMsg
	if err := json.Unmarshal(msg, &init); err != nil {
		return err
	}
	if init.MaxFailures == 0 {
		init.MaxFailures = 1
	}
	if err := connectorConfigItem.Save(deps.Store, connectorConfig{Owner: init.Owner, MaxFailures: init.MaxFailures}); err != nil {
		return err
	}
	return channelItem.Save(deps.Store, ChannelInfo{State: ChannelOpen})
}

func (c *BridgeConnector) Execute(deps Deps, env Env, info MessageInfo, msg []byte) ([]byte, error) {
	var exec ConnectorExecuteMsg
	if err := json.Unmarshal(msg, &exec); err != nil {
		return nil, err
	}
	switch {
	case exec.Relay != nil:
		return c.relay(deps, exec.Relay)
	case exec.Reopen != nil:
		return nil, c.reopen(deps, info)
	}
	return nil, errors.New("unknown connector execute message")
}

func (c *BridgeConnector) relay(deps Deps, msg *RelayMsg) ([]byte, error) {
	channel, _, err := channelItem.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if channel.State == ChannelClosed {
		return json.Marshal(RelayResponse{Error: ErrChannelClosed.Error()})
	}
	if err := c.deliver(msg.Target, msg.Msg); err != nil {
		config, _, loadErr := connectorConfigItem.Load(deps.Store)
		if loadErr != nil {
			return nil, loadErr
		}
		channel.Failures++
		if channel.Failures >= config.MaxFailures {
			channel.State = ChannelClosed
		}
		if saveErr := channelItem.Save(deps.Store, channel); saveErr != nil {
			return nil, saveErr
		}
		return json.Marshal(RelayResponse{Error: fmt.Sprintf("delivery failed: %v", err)})
	}
	channel.Failures = 0
	if err := channelItem.Save(deps.Store, channel); err != nil {
		return nil, err
	}
	return json.Marshal(RelayResponse{Delivered: true})
}

func (c *BridgeConnector) reopen(deps Deps, info MessageInfo) error {
	config, _, err := connectorConfigItem.Load(deps.Store)
	if err != nil {
		return err
	}
	if info.Sender != config.Owner {
		return ErrNotConnectorOwner
	}
	channel, _, err := channelItem.Load(deps.Store)
	if err != nil {
		return err
	}
	if channel.State != ChannelClosed {
		return ErrChannelNotClosed
	}
	return channelItem.Save(deps.Store, ChannelInfo{State: ChannelOpen})
}

func (c *BridgeConnector) Query(deps Deps, env Env, msg []byte) ([]byte, error) {
	var query ConnectorQueryMsg
	if err := json.Unmarshal(msg, &query); err != nil {
		return nil, err
	}
	if query.Channel != nil {
		channel, _, err := channelItem.Load(deps.Store)
		if err != nil {
			return nil, err
		}
		return json.Marshal(channel)
	}
	return nil, errors.New("unknown connector query message")
}
