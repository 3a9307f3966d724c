package ica

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/valence-protocol/valence-go/logger"
	"github.com/valence-protocol/valence-go/runtime"
)

const (
	icaAddr   = "valence1ica"
	adminAddr = "valence1admin"
	aliceAddr = "valence1alice"
)

type IcaTestSuite struct {
	suite.Suite
	router *runtime.Router
}

func TestIca(t *testing.T) {
	suite.Run(t, new(IcaTestSuite))
}

func (s *IcaTestSuite) SetupTest() {
	s.router = runtime.NewRouter(logger.NewMockLogger())
	init, err := json.Marshal(InstantiateMsg{Admin: adminAddr, ConnectionID: "connection-0"})
	s.Require().NoError(err)
	s.Require().NoError(s.router.Instantiate(icaAddr, New(logger.NewMockLogger()), adminAddr, init, nil))
}

func (s *IcaTestSuite) register(sender string) error {
	msg, err := json.Marshal(ExecuteMsg{RegisterIca: &RegisterIca{}})
	s.Require().NoError(err)
	_, err = s.router.Execute(sender, icaAddr, msg, nil)
	return err
}

func (s *IcaTestSuite) state() IcaStateResponse {
	raw, err := s.router.Query(icaAddr, []byte(`{"ica_state":{}}`))
	s.Require().NoError(err)
	var resp IcaStateResponse
	s.Require().NoError(json.Unmarshal(raw, &resp))
	return resp
}

func (s *IcaTestSuite) openAck() {
	ack, err := json.Marshal(SudoMsg{OpenAck: &SudoOpenAck{
		PortID:                "icacontroller-" + icaAddr,
		ChannelID:             "channel-1",
		CounterpartyChannelID: "channel-2",
		CounterpartyVersion:   `{"address":"cosmos1remote","controller_connection_id":"connection-0"}`,
	}})
	s.Require().NoError(err)
	s.Require().NoError(s.router.Sudo(icaAddr, ack))
}

func (s *IcaTestSuite) Test_Lifecycle() {
	s.Equal(StateNotCreated, s.state().State)

	s.ErrorIs(s.register(aliceAddr), ErrNotAdmin)

	s.Require().NoError(s.register(adminAddr))
	s.Equal(StateInProgress, s.state().State)

	s.openAck()
	resp := s.state()
	s.Equal(StateCreated, resp.State)
	s.Require().NotNil(resp.Information)
	s.Equal("cosmos1remote", resp.Information.Address)
	s.Equal("connection-0", resp.Information.ControllerConnectionID)
}

// Registration is rejected while a registration is in progress or the
// account exists, and allowed again only after the channel closed.
func (s *IcaTestSuite) Test_RegistrationGuard() {
	s.Require().NoError(s.register(adminAddr))
	s.ErrorIs(s.register(adminAddr), ErrRegistrationInProgress)

	s.openAck()
	s.ErrorIs(s.register(adminAddr), ErrRegistrationInProgress)

	timeout, err := json.Marshal(SudoMsg{Timeout: &SudoTimeout{Request: json.RawMessage(`{}`)}})
	s.Require().NoError(err)
	s.Require().NoError(s.router.Sudo(icaAddr, timeout))
	s.Equal(StateClosed, s.state().State)

	// A closed channel can be re-registered.
	s.NoError(s.register(adminAddr))
	s.Equal(StateInProgress, s.state().State)
}

func (s *IcaTestSuite) Test_MalformedCounterpartyVersion() {
	s.Require().NoError(s.register(adminAddr))

	ack, err := json.Marshal(SudoMsg{OpenAck: &SudoOpenAck{
		CounterpartyVersion: "not-json",
	}})
	s.Require().NoError(err)
	s.Error(s.router.Sudo(icaAddr, ack))

	// The failed sudo left the registration state untouched.
	s.Equal(StateInProgress, s.state().State)
}
