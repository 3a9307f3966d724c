// Package ica implements an interchain account contract: a local contract
// controlling an account on a remote chain over an ordered IBC channel.
// Channel lifecycle follows not_created -> in_progress -> created, with
// closed reachable from created on timeout; a closed channel must be
// re-registered before the account can be used again.
package ica

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valence-protocol/valence-go/logger"
	"github.com/valence-protocol/valence-go/runtime"
	"github.com/valence-protocol/valence-go/state"
)

type AccountState string

const (
	StateNotCreated AccountState = "not_created"
	StateInProgress AccountState = "in_progress"
	StateCreated    AccountState = "created"
	StateClosed     AccountState = "closed"
)

var (
	ErrRegistrationInProgress = errors.New("ica registration already in progress or completed")
	ErrNotCreated             = errors.New("ica is not created")
	ErrNotAdmin               = errors.New("only the admin can do that")
)

type InstantiateMsg struct {
	Admin string `json:"admin"`
	// IBC connection the account is registered over
	ConnectionID string `json:"connection_id"`
}

type ExecuteMsg struct {
	RegisterIca *RegisterIca `json:"register_ica,omitempty"`
}

type RegisterIca struct{}

type QueryMsg struct {
	IcaState *IcaStateQuery `json:"ica_state,omitempty"`
}

type IcaStateQuery struct{}

type IcaInformation struct {
	// Address of the interchain account on the remote chain
	Address string `json:"address"`
	// Connection id on the controller side
	ControllerConnectionID string `json:"controller_connection_id"`
}

type IcaStateResponse struct {
	State       AccountState    `json:"state"`
	Information *IcaInformation `json:"information,omitempty"`
}

// SudoMsg is the host callback surface for the ICA channel.
type SudoMsg struct {
	Response *SudoResponse `json:"response,omitempty"`
	Error    *SudoError    `json:"error,omitempty"`
	Timeout  *SudoTimeout  `json:"timeout,omitempty"`
	OpenAck  *SudoOpenAck  `json:"open_ack,omitempty"`
}

type SudoResponse struct {
	Request json.RawMessage `json:"request"`
	Data    []byte          `json:"data"`
}

type SudoError struct {
	Request json.RawMessage `json:"request"`
	Details string          `json:"details"`
}

type SudoTimeout struct {
	Request json.RawMessage `json:"request"`
}

type SudoOpenAck struct {
	PortID                string `json:"port_id"`
	ChannelID             string `json:"channel_id"`
	CounterpartyChannelID string `json:"counterparty_channel_id"`
	// JSON blob carrying {address, controller_connection_id}
	CounterpartyVersion string `json:"counterparty_version"`
}

type accountConfig struct {
	Admin        string `json:"admin"`
	ConnectionID string `json:"connection_id"`
}

// pendingOperation is the continuation record persisted before an async
// host call and consumed when its result arrives.
type pendingOperation struct {
	Kind string `json:"kind"`
}

var (
	accountConfigItem = state.NewItem[accountConfig]("config")
	accountStateItem  = state.NewItem[AccountState]("ica_state")
	icaInfoItem       = state.NewItem[IcaInformation]("ica_info")
	pendingOpItem     = state.NewItem[pendingOperation]("pending_operation")
)

type Contract struct {
	log logger.Logger
}

var _ runtime.Contract = (*Contract)(nil)
var _ runtime.SudoHandler = (*Contract)(nil)

func New(log logger.Logger) *Contract {
	return &Contract{log: log}
}

func (c *Contract) Instantiate(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, msg []byte) error {
	var init InstantiateMsg
	if err := json.Unmarshal(msg, &init); err != nil {
		return err
	}
	if err := accountConfigItem.Save(deps.Store, accountConfig{Admin: init.Admin, ConnectionID: init.ConnectionID}); err != nil {
		return err
	}
	return accountStateItem.Save(deps.Store, StateNotCreated)
}

func (c *Contract) Execute(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, msg []byte) ([]byte, error) {
	var exec ExecuteMsg
	if err := json.Unmarshal(msg, &exec); err != nil {
		return nil, err
	}
	if exec.RegisterIca != nil {
		return nil, c.registerIca(deps, info)
	}
	return nil, errors.New("unknown execute message")
}

func (c *Contract) registerIca(deps runtime.Deps, info runtime.MessageInfo) error {
	cfg, _, err := accountConfigItem.Load(deps.Store)
	if err != nil {
		return err
	}
	if info.Sender != cfg.Admin {
		return ErrNotAdmin
	}
	current, _, err := accountStateItem.Load(deps.Store)
	if err != nil {
		return err
	}
	// Registration is permitted only before the channel ever opened or
	// after it closed.
	if current != StateNotCreated && current != StateClosed {
		return fmt.Errorf("%w: state is %s", ErrRegistrationInProgress, current)
	}
	if err := pendingOpItem.Save(deps.Store, pendingOperation{Kind: "register_ica"}); err != nil {
		return err
	}
	c.log.Info("ica registration submitted",
		logger.WithField("connection_id", cfg.ConnectionID),
	)
	return accountStateItem.Save(deps.Store, StateInProgress)
}

func (c *Contract) Sudo(deps runtime.Deps, env runtime.Env, msg []byte) error {
	var sudo SudoMsg
	if err := json.Unmarshal(msg, &sudo); err != nil {
		return err
	}
	switch {
	case sudo.OpenAck != nil:
		return c.handleOpenAck(deps, sudo.OpenAck)
	case sudo.Response != nil:
		c.log.Debug("ica response received")
		return nil
	case sudo.Error != nil:
		c.log.Error("ica request failed",
			logger.WithField("details", sudo.Error.Details),
		)
		return nil
	case sudo.Timeout != nil:
		// An ordered channel times out closed; the account must be
		// re-registered before it can be used again.
		c.log.Warn("ica channel timed out, closing")
		return accountStateItem.Save(deps.Store, StateClosed)
	}
	return errors.New("unknown sudo message")
}

func (c *Contract) handleOpenAck(deps runtime.Deps, ack *SudoOpenAck) error {
	var version struct {
		Address                string `json:"address"`
		ControllerConnectionID string `json:"controller_connection_id"`
	}
	if err := json.Unmarshal([]byte(ack.CounterpartyVersion), &version); err != nil {
		return fmt.Errorf("malformed counterparty version: %w", err)
	}
	info := IcaInformation{
		Address:                version.Address,
		ControllerConnectionID: version.ControllerConnectionID,
	}
	if err := icaInfoItem.Save(deps.Store, info); err != nil {
		return err
	}
	pendingOpItem.Remove(deps.Store)
	c.log.Info("ica created",
		logger.WithField("address", info.Address),
	)
	return accountStateItem.Save(deps.Store, StateCreated)
}

func (c *Contract) Query(deps runtime.Deps, env runtime.Env, msg []byte) ([]byte, error) {
	var query QueryMsg
	if err := json.Unmarshal(msg, &query); err != nil {
		return nil, err
	}
	if query.IcaState != nil {
		current, _, err := accountStateItem.Load(deps.Store)
		if err != nil {
			return nil, err
		}
		resp := IcaStateResponse{State: current}
		if current == StateCreated || current == StateClosed {
			info, found, err := icaInfoItem.Load(deps.Store)
			if err != nil {
				return nil, err
			}
			if found {
				resp.Information = &info
			}
		}
		return json.Marshal(resp)
	}
	return nil, errors.New("unknown query message")
}
