package sdk

import (
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/spf13/viper"

	"github.com/valence-protocol/valence-go/chainio"
)

func NewClientCtx() client.Context {
	return chainio.NewClientCtx(
		viper.GetString("node"),
		viper.GetString("chain-id"),
	)
}

func WithKeyring(ctx client.Context) client.Context {
	keyringBackend := viper.GetString("keyring-backend")

	kr, err := keyring.New("valence", keyringBackend, ctx.KeyringDir, ctx.Input, ctx.Codec, ctx.KeyringOptions...)
	if err != nil {
		panic(err)
	}

	from := viper.GetString("from")
	record, err := kr.Key(from)
	if err != nil {
		panic(err)
	}
	addr, err := record.GetAddress()
	if err != nil {
		panic(err)
	}

	return ctx.WithKeyring(kr).WithFromName(from).WithFromAddress(addr)
}

func DefaultBroadcastOptions() chainio.BroadcastOptions {
	return chainio.DefaultBroadcastOptions()
}
